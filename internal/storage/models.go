package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyRecord is one dated row of a logical sheet: a price and a computed
// day-over-day change per tracked item.
type DailyRecord struct {
	Sheet   string
	Date    string
	Prices  map[string]string
	Changes map[string]string
}

// AlertRecord captures an emitted stock alert for auditing.
type AlertRecord struct {
	ID        int64
	Ticker    string
	AlertDate string
	Direction string
	ChangePct decimal.Decimal
	CreatedAt time.Time
}
