package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const ohlcvPath = "/ohlcv"

// OHLCVOptions parameterise the market-data provider client.
type OHLCVOptions struct {
	BaseURL string
	// Lookback bounds the query window. A week covers weekends and holiday
	// stretches so at least one prior trading day is present.
	Lookback time.Duration
}

// Candle is one daily bar as reported by the provider.
type Candle struct {
	Date   string `json:"date"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

type ohlcvResponse struct {
	Ticker  string   `json:"ticker"`
	Candles []Candle `json:"candles"`
	Message string   `json:"message"`
}

// OHLCV fetches daily bars from the market-data provider and derives the
// day-over-day change used by the stock and oil monitors.
type OHLCV struct {
	opts   OHLCVOptions
	client *Client
	logger zerolog.Logger
	now    func() time.Time
}

// NewOHLCV builds a market-data client.
func NewOHLCV(opts OHLCVOptions, client *Client, logger zerolog.Logger) *OHLCV {
	if opts.Lookback <= 0 {
		opts.Lookback = 7 * 24 * time.Hour
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &OHLCV{
		opts:   opts,
		client: client,
		logger: logger.With().Str("component", "ohlcv_fetcher").Logger(),
		now:    time.Now,
	}
}

// FetchCandles returns the daily bars for the lookback window, oldest first.
func (o *OHLCV) FetchCandles(ctx context.Context, ticker string) ([]Candle, error) {
	if o.opts.BaseURL == "" {
		return nil, errors.New("ohlcv base url not configured")
	}

	to := o.now()
	from := to.Add(-o.opts.Lookback)

	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("from", from.Format("20060102"))
	params.Set("to", to.Format("20060102"))

	body, err := o.client.Get(ctx, o.opts.BaseURL+ohlcvPath, params)
	if err != nil {
		return nil, err
	}

	var res ohlcvResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode ohlcv response: %w", err)
	}
	if res.Message != "" && len(res.Candles) == 0 {
		return nil, fmt.Errorf("ohlcv provider: %s", res.Message)
	}
	return res.Candles, nil
}

// FetchQuote derives the latest close, the previous close, and the signed
// day-over-day change for a ticker. With a single bar the session open
// substitutes for the previous close.
func (o *OHLCV) FetchQuote(ctx context.Context, ticker string) (Quote, error) {
	candles, err := o.FetchCandles(ctx, ticker)
	if err != nil {
		return Quote{}, err
	}
	if len(candles) == 0 {
		return Quote{}, fmt.Errorf("no ohlcv data for %s", ticker)
	}

	last := candles[len(candles)-1]
	current, err := decimal.NewFromString(last.Close)
	if err != nil {
		return Quote{}, fmt.Errorf("parse close for %s: %w", ticker, err)
	}

	var prev decimal.Decimal
	if len(candles) >= 2 {
		prev, err = decimal.NewFromString(candles[len(candles)-2].Close)
	} else {
		prev, err = decimal.NewFromString(last.Open)
	}
	if err != nil {
		return Quote{}, fmt.Errorf("parse previous close for %s: %w", ticker, err)
	}
	if prev.IsZero() {
		return Quote{}, fmt.Errorf("previous close is zero for %s", ticker)
	}

	change := current.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100))
	return Quote{Ticker: ticker, Current: current, PrevClose: prev, ChangePct: change}, nil
}

var _ QuoteFetcher = (*OHLCV)(nil)
