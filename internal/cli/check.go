package cli

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single check for one data source",
}

var checkCustomsCmd = &cobra.Command{
	Use:   "customs",
	Short: "Check the customs board for new import/export postings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().CheckCustoms(cmd.Context())
	},
}

var checkDramCmd = &cobra.Command{
	Use:   "dram",
	Short: "Record DRAM/NAND spot prices and notify",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().CheckDram(cmd.Context())
	},
}

var checkOilCmd = &cobra.Command{
	Use:   "oil",
	Short: "Record oil prices and notify",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().CheckOil(cmd.Context())
	},
}

var checkStocksCmd = &cobra.Command{
	Use:   "stocks",
	Short: "Sweep tickers once and alert on threshold moves",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().CheckStocks(cmd.Context())
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Post the daily close summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Summary(cmd.Context())
	},
}

func init() {
	checkCmd.AddCommand(checkCustomsCmd)
	checkCmd.AddCommand(checkDramCmd)
	checkCmd.AddCommand(checkOilCmd)
	checkCmd.AddCommand(checkStocksCmd)
}
