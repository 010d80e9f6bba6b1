package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
)

// CSVStore persists daily records as one CSV file per sheet, using the
// spreadsheet-style wide layout [Date, Item, Item Change, ...]. The header
// row is created once; duplicate dates are skipped with the stored changes
// returned.
type CSVStore struct {
	dir string
}

// NewCSVStore builds a file-backed record store rooted at dir.
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{dir: dir}
}

// AppendDaily implements RecordStore.
func (s *CSVStore) AppendDaily(_ context.Context, sheet, date string, items []string, prices map[string]string) (map[string]string, bool, error) {
	rows, err := s.readSheet(sheet)
	if err != nil {
		return nil, false, err
	}

	if len(rows) == 0 {
		rows = append(rows, headerRow(items))
	}

	// Duplicate-date check: return the recorded changes without writing.
	for _, row := range rows[1:] {
		if len(row) == 0 || row[0] != date {
			continue
		}
		changes := make(map[string]string)
		for i, item := range items {
			col := 2 + i*2
			if col < len(row) && row[col] != "" {
				changes[item] = row[col]
			}
		}
		return changes, true, nil
	}

	prevPrices := make(map[string]decimal.Decimal)
	if len(rows) > 1 {
		last := rows[len(rows)-1]
		for i, item := range items {
			col := 1 + i*2
			if col < len(last) {
				if d, err := decimal.NewFromString(last[col]); err == nil {
					prevPrices[item] = d
				}
			}
		}
	}

	changes := make(map[string]string)
	newRow := []string{date}
	for _, item := range items {
		price, ok := prices[item]
		if !ok {
			price = "N/A"
		}

		change := ""
		if cur, curErr := decimal.NewFromString(price); curErr == nil {
			if prev, found := prevPrices[item]; found && prev.IsPositive() {
				pct := cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100))
				change = signedPct(pct)
				changes[item] = change
			}
		}
		newRow = append(newRow, price, change)
	}
	rows = append(rows, newRow)

	if err := s.writeSheet(sheet, rows); err != nil {
		return nil, false, err
	}
	return changes, false, nil
}

// ListRecent implements RecordStore, newest dates first.
func (s *CSVStore) ListRecent(_ context.Context, sheet string, limit int) ([]DailyRecord, error) {
	rows, err := s.readSheet(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := rows[0]
	var items []string
	for col := 1; col < len(header); col += 2 {
		items = append(items, header[col])
	}

	data := rows[1:]
	records := make([]DailyRecord, 0, limit)
	for i := len(data) - 1; i >= 0 && len(records) < limit; i-- {
		row := data[i]
		if len(row) == 0 {
			continue
		}
		rec := DailyRecord{Sheet: sheet, Date: row[0], Prices: make(map[string]string), Changes: make(map[string]string)}
		for j, item := range items {
			priceCol := 1 + j*2
			changeCol := priceCol + 1
			if priceCol < len(row) {
				rec.Prices[item] = row[priceCol]
			}
			if changeCol < len(row) && row[changeCol] != "" {
				rec.Changes[item] = row[changeCol]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *CSVStore) readSheet(sheet string) ([][]string, error) {
	file, err := os.Open(s.path(sheet))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open sheet %s: %w", sheet, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// writeSheet replaces the sheet atomically: write-new-then-rename, so a
// crash mid-write cannot corrupt previously persisted rows.
func (s *CSVStore) writeSheet(sheet string, rows [][]string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create records dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, sheetSlug(sheet)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp sheet: %w", err)
	}
	tmpName := tmp.Name()

	writer := csv.NewWriter(tmp)
	writeErr := writer.WriteAll(rows)
	if writeErr == nil {
		writeErr = writer.Error()
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write sheet %s: %w", sheet, writeErr)
	}

	if err := os.Rename(tmpName, s.path(sheet)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace sheet %s: %w", sheet, err)
	}
	return nil
}

func (s *CSVStore) path(sheet string) string {
	return filepath.Join(s.dir, sheetSlug(sheet)+".csv")
}

func sheetSlug(sheet string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(sheet), " ", "_"))
}

func headerRow(items []string) []string {
	header := []string{"Date"}
	for _, item := range items {
		header = append(header, item, item+" Change")
	}
	return header
}

var _ RecordStore = (*CSVStore)(nil)
