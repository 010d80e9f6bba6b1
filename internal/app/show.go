package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"marketwatch/internal/storage"
)

// ShowOptions configure the show command.
type ShowOptions struct {
	Sheet  string
	Limit  int
	Alerts bool
}

// Show prints recent daily records for a sheet, or recent alerts.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	records, alerts, closeRecords, err := a.openRecords(ctx)
	if err != nil {
		return err
	}
	if closeRecords != nil {
		defer closeRecords()
	}

	if opts.Alerts {
		return a.showAlerts(ctx, alerts, opts.Limit)
	}

	rows, err := records.ListRecent(ctx, opts.Sheet, opts.Limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "no records found")
		return nil
	}

	items := a.sheetItems(opts.Sheet)
	if len(items) == 0 {
		seen := map[string]bool{}
		for _, row := range rows {
			for item := range row.Prices {
				if !seen[item] {
					seen[item] = true
					items = append(items, item)
				}
			}
		}
		sort.Strings(items)
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprint(writer, "Date")
	for _, item := range items {
		fmt.Fprintf(writer, "\t%s\t%s Change", item, item)
	}
	fmt.Fprintln(writer)

	for _, row := range rows {
		fmt.Fprint(writer, row.Date)
		for _, item := range items {
			fmt.Fprintf(writer, "\t%s\t%s", row.Prices[item], row.Changes[item])
		}
		fmt.Fprintln(writer)
	}

	writer.Flush()
	return nil
}

func (a *App) showAlerts(ctx context.Context, alerts storage.AlertStore, limit int) error {
	if alerts == nil {
		return errors.New("alert history requires records.backend=postgres")
	}

	rows, err := alerts.ListRecentAlerts(ctx, limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tTicker\tDirection\tChange%\tCreated (UTC)")
	for _, row := range rows {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\n",
			row.AlertDate,
			row.Ticker,
			row.Direction,
			row.ChangePct.StringFixed(2),
			row.CreatedAt.UTC().Format(time.RFC3339),
		)
	}

	writer.Flush()
	return nil
}

// sheetItems returns the configured item order for a known sheet.
func (a *App) sheetItems(sheet string) []string {
	switch sheet {
	case a.Config.Dram.SheetName:
		return a.Config.Dram.Targets
	case a.Config.Oil.SheetName:
		return a.Config.Oil.Types
	}
	return nil
}
