package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"marketwatch/internal/storage"
)

// ExportOptions hold parameters for exporting recorded history.
type ExportOptions struct {
	Sheet     string
	CSVPath   string
	PNGPath   string
	MaxPoints int
}

// Export renders a sheet's recorded price history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	records, _, closeRecords, err := a.openRecords(ctx)
	if err != nil {
		return err
	}
	if closeRecords != nil {
		defer closeRecords()
	}

	rows, err := records.ListRecent(ctx, opts.Sheet, opts.MaxPoints)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		a.Logger.Info().Str("sheet", opts.Sheet).Msg("no records found for export")
		return nil
	}

	// ListRecent returns newest-first; exports read oldest-first.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	items := a.sheetItems(opts.Sheet)
	if len(items) == 0 {
		return errors.New("unknown sheet; no item layout configured")
	}

	downsampled := downsampleRecords(rows, opts.MaxPoints)
	a.Logger.Info().Int("total", len(rows)).Int("exported", len(downsampled)).Msg("exporting records")

	if opts.CSVPath != "" {
		if err := writeRecordsCSV(opts.CSVPath, items, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeRecordsPNG(opts.PNGPath, opts.Sheet, items, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleRecords(rows []storage.DailyRecord, max int) []storage.DailyRecord {
	if max <= 0 || len(rows) <= max {
		return rows
	}

	result := make([]storage.DailyRecord, 0, max)
	step := float64(len(rows)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(rows) {
			idx = len(rows) - 1
		}
		result = append(result, rows[idx])
	}
	return result
}

func writeRecordsCSV(path string, items []string, rows []storage.DailyRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Date"}
	for _, item := range items {
		header = append(header, item, item+" Change")
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{row.Date}
		for _, item := range items {
			record = append(record, row.Prices[item], row.Changes[item])
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeRecordsPNG(path, sheet string, items []string, rows []storage.DailyRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	series := make([]chart.Series, 0, len(items))
	for _, item := range items {
		var x []time.Time
		var y []float64
		for _, row := range rows {
			date, err := time.Parse("2006-01-02", row.Date)
			if err != nil {
				continue
			}
			price, err := decimal.NewFromString(row.Prices[item])
			if err != nil {
				continue
			}
			x = append(x, date)
			y = append(y, price.InexactFloat64())
		}
		if len(x) < 2 {
			continue
		}
		series = append(series, chart.TimeSeries{
			Name:    item,
			XValues: x,
			YValues: y,
		})
	}
	if len(series) == 0 {
		return errors.New("not enough parseable data points to chart")
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Title:  sheet,
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Price",
			ValueFormatter: priceFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
