package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simulateCurrent float64
	simulatePrev    float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次股价变动并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateCurrent <= 0 || simulatePrev <= 0 {
			return errors.New("--current 与 --prev 必须大于 0")
		}

		current := decimal.NewFromFloat(simulateCurrent)
		prev := decimal.NewFromFloat(simulatePrev)
		return getApp().SimulateAlert(cmd.Context(), current, prev)
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateCurrent, "current", 0, "当前价")
	simulateCmd.Flags().Float64Var(&simulatePrev, "prev", 0, "前收盘价")
}
