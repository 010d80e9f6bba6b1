package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	selectDayRowsSQL = `SELECT item, price, change_pct
    FROM daily_prices
    WHERE sheet = $1 AND record_date = $2;`

	selectPrevDateSQL = `SELECT record_date::text
    FROM daily_prices
    WHERE sheet = $1 AND record_date < $2
    ORDER BY record_date DESC
    LIMIT 1;`

	insertDayRowSQL = `INSERT INTO daily_prices (
        sheet, record_date, item, price, change_pct
    ) VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (sheet, record_date, item) DO NOTHING;`

	listRecentDatesSQL = `SELECT DISTINCT record_date::text
    FROM daily_prices
    WHERE sheet = $1
    ORDER BY record_date DESC
    LIMIT $2;`

	insertAlertSQL = `INSERT INTO alerts (
        ticker, alert_date, direction, change_pct
    ) VALUES ($1,$2,$3,$4)
    RETURNING id, created_at;`

	listRecentAlertsSQL = `SELECT id, ticker, alert_date::text, direction, change_pct, created_at
    FROM alerts
    ORDER BY created_at DESC
    LIMIT $1;`
)

// RecordStore defines the daily-record persistence contract: append-only
// dated rows per sheet, one row per day, duplicate days skipped while
// returning the previously recorded changes.
type RecordStore interface {
	AppendDaily(ctx context.Context, sheet, date string, items []string, prices map[string]string) (changes map[string]string, skipped bool, err error)
	ListRecent(ctx context.Context, sheet string, limit int) ([]DailyRecord, error)
}

// AlertStore defines operations for alert auditing.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
}

// Store aggregates Postgres-backed daily records and alert auditing.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// AppendDaily records one dated row for a sheet. When the date is already
// present the stored change values are returned and nothing is written.
func (s *Store) AppendDaily(ctx context.Context, sheet, date string, items []string, prices map[string]string) (map[string]string, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	existing, err := s.dayRows(ctx, sheet, date)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		changes := make(map[string]string)
		for item, row := range existing {
			if row.change != "" {
				changes[item] = row.change
			}
		}
		return changes, true, nil
	}

	prevPrices, err := s.previousPrices(ctx, sheet, date)
	if err != nil {
		return nil, false, err
	}

	changes := make(map[string]string)
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback(ctx)

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

		if _, err := tx.Exec(ctx, insertDayRowSQL, sheet, date, item, price, change); err != nil {
			return nil, false, fmt.Errorf("insert daily row: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit append: %w", err)
	}
	return changes, false, nil
}

type dayRow struct {
	price  string
	change string
}

func (s *Store) dayRows(ctx context.Context, sheet, date string) (map[string]dayRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, selectDayRowsSQL, sheet, date)
	if queryErr != nil {
		return nil, fmt.Errorf("select day rows: %w", queryErr)
	}
	defer rows.Close()

	result := make(map[string]dayRow)
	for rows.Next() {
		var item, price, change string
		if err := rows.Scan(&item, &price, &change); err != nil {
			return nil, err
		}
		result[item] = dayRow{price: price, change: change}
	}
	return result, rows.Err()
}

func (s *Store) previousPrices(ctx context.Context, sheet, date string) (map[string]decimal.Decimal, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	var prevDate string
	if err := pool.QueryRow(ctx, selectPrevDateSQL, sheet, date).Scan(&prevDate); err != nil {
		// No prior day yet; first row of the sheet carries no changes.
		return map[string]decimal.Decimal{}, nil
	}

	rows, err := s.dayRows(ctx, sheet, prevDate)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]decimal.Decimal, len(rows))
	for item, row := range rows {
		if d, err := decimal.NewFromString(row.price); err == nil {
			prices[item] = d
		}
	}
	return prices, nil
}

// ListRecent returns the most recent dated rows of a sheet, newest first.
func (s *Store) ListRecent(ctx context.Context, sheet string, limit int) ([]DailyRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentDatesSQL, sheet, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent dates: %w", queryErr)
	}

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			rows.Close()
			return nil, err
		}
		dates = append(dates, d)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	records := make([]DailyRecord, 0, len(dates))
	for _, date := range dates {
		day, err := s.dayRows(ctx, sheet, date)
		if err != nil {
			return nil, err
		}
		rec := DailyRecord{Sheet: sheet, Date: date, Prices: make(map[string]string), Changes: make(map[string]string)}
		for item, row := range day {
			rec.Prices[item] = row.price
			if row.change != "" {
				rec.Changes[item] = row.change
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// InsertAlert persists an alert emission.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.Ticker,
		alert.AlertDate,
		alert.Direction,
		alert.ChangePct.String(),
	)

	rec := alert
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", err)
	}
	return rec, nil
}

// ListRecentAlerts lists most recent alerts.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		var rec AlertRecord
		var changeStr string
		if err := rows.Scan(&rec.ID, &rec.Ticker, &rec.AlertDate, &rec.Direction, &changeStr, &rec.CreatedAt); err != nil {
			return nil, err
		}
		change, convErr := decimal.NewFromString(changeStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse change pct: %w", convErr)
		}
		rec.ChangePct = change
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

var _ RecordStore = (*Store)(nil)
var _ AlertStore = (*Store)(nil)

func signedPct(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if len(s) > 0 && s[0] != '-' {
		s = "+" + s
	}
	return s + "%"
}
