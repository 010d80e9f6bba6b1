package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"marketwatch/internal/alerting"
	"marketwatch/internal/detect"
	"marketwatch/internal/fetcher"
	"marketwatch/internal/holiday"
	"marketwatch/internal/scheduler"
	"marketwatch/internal/state"
	"marketwatch/internal/storage"
)

const stockStateName = "stock_alerts"

// StockService alerts on daily moves beyond the threshold, with at most one
// alert per ticker per direction per day, and posts a close summary.
type StockService struct {
	quotes    fetcher.QuoteFetcher
	states    *state.Store
	alerts    storage.AlertStore
	notifier  alerting.Notifier
	holidays  *holiday.Checker
	tickers   map[string]string
	order     []string
	threshold decimal.Decimal
	logger    zerolog.Logger
	now       func() time.Time
}

// NewStock constructs the stock monitor. tickers maps ticker to display name.
func NewStock(quotes fetcher.QuoteFetcher, states *state.Store, alerts storage.AlertStore, notifier alerting.Notifier, holidays *holiday.Checker, tickers map[string]string, thresholdPct float64, logger zerolog.Logger) *StockService {
	order := make([]string, 0, len(tickers))
	for ticker := range tickers {
		order = append(order, ticker)
	}
	sort.Strings(order)

	return &StockService{
		quotes:    quotes,
		states:    states,
		alerts:    alerts,
		notifier:  notifier,
		holidays:  holidays,
		tickers:   tickers,
		order:     order,
		threshold: decimal.NewFromFloat(thresholdPct),
		logger:    logger.With().Str("component", "stock_monitor").Logger(),
		now:       time.Now,
	}
}

// CheckOnce sweeps every ticker against persisted dedup state. Used for
// single-run invocations driven by an external scheduler.
func (s *StockService) CheckOnce(ctx context.Context) error {
	st := s.states.Load(stockStateName)
	s.sweep(ctx, st)
	if err := s.states.Save(stockStateName, st); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist alert state")
	}
	return nil
}

// sweep checks all tickers against st, firing and recording alerts.
func (s *StockService) sweep(ctx context.Context, st *state.SeenState) {
	today := todayIn(s.now())

	for _, ticker := range s.order {
		quote, err := s.quotes.FetchQuote(ctx, ticker)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("quote lookup failed")
			continue
		}

		s.logger.Info().
			Str("ticker", ticker).
			Str("price", quote.Current.String()).
			Str("change_pct", quote.ChangePct.StringFixed(2)).
			Msg("quote checked")

		identityDay := ticker + "_" + today
		decision := detect.Threshold(st, identityDay, quote.ChangePct, s.threshold)
		if !decision.Fire {
			continue
		}

		name := s.tickers[ticker]
		s.logger.Info().
			Str("ticker", ticker).
			Str("reason", string(decision.Reason)).
			Str("direction", decision.Direction).
			Msg("alert fired")

		notify(ctx, s.notifier, s.logger, alerting.FormatStockAlert(name, quote, s.threshold))

		if s.alerts != nil {
			record := storage.AlertRecord{
				Ticker:    ticker,
				AlertDate: today,
				Direction: decision.Direction,
				ChangePct: quote.ChangePct,
			}
			if _, err := s.alerts.InsertAlert(ctx, record); err != nil {
				s.logger.Error().Err(err).Str("ticker", ticker).Msg("failed to persist alert record")
			}
		}

		st.Set(identityDay, decision.Direction)
	}
}

// Summary posts the daily close summary, sorted by change descending.
func (s *StockService) Summary(ctx context.Context) error {
	rows := make([]alerting.SummaryRow, 0, len(s.order))
	for _, ticker := range s.order {
		quote, err := s.quotes.FetchQuote(ctx, ticker)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("quote lookup failed")
			continue
		}
		rows = append(rows, alerting.SummaryRow{Name: s.tickers[ticker], Quote: quote})
	}
	if len(rows) == 0 {
		s.logger.Warn().Msg("no summary data")
		return nil
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Quote.ChangePct.GreaterThan(rows[j].Quote.ChangePct)
	})

	notify(ctx, s.notifier, s.logger, alerting.FormatDailySummary(rows))
	return nil
}

// RunLoop polls during KST market hours with in-memory dedup state. Outside
// market hours the transient state clears so each session starts fresh; the
// close summary fires once per day in the 15:30 window.
func (s *StockService) RunLoop(ctx context.Context, opts scheduler.Options) error {
	st := &state.SeenState{Entries: make(map[string]string)}
	opts.Gate = s.MarketHoursGate
	opts.OnIdle = ClearTransient(st)
	sched := scheduler.New(opts, s.logger)

	return sched.Run(ctx, func(ctx context.Context, now time.Time) error {
		return s.tick(ctx, st, now)
	})
}

// tick runs one in-session sweep and, inside the 15:30 close window, posts
// the daily summary at most once per day.
func (s *StockService) tick(ctx context.Context, st *state.SeenState, now time.Time) error {
	s.sweep(ctx, st)

	local := now.In(holiday.KST)
	hm := local.Hour()*100 + local.Minute()
	summaryKey := "summary_" + todayIn(now)
	if hm >= 1530 && hm < 1600 && !st.Has(summaryKey) {
		if err := s.Summary(ctx); err != nil {
			s.logger.Error().Err(err).Msg("daily summary failed")
		}
		st.Set(summaryKey, "sent")
	}
	return nil
}

// MarketHoursGate reports whether KST trading is open (weekday, not a
// holiday, 09:00-15:30).
func (s *StockService) MarketHoursGate(now time.Time) bool {
	local := now.In(holiday.KST)
	if !s.holidays.IsBusinessDay(local) {
		return false
	}
	hm := local.Hour()*100 + local.Minute()
	return hm >= 900 && hm <= 1530
}

// ClearTransient empties an in-memory dedup state; wired as the scheduler's
// idle hook so off-hours intervals reset alert eligibility.
func ClearTransient(st *state.SeenState) func(time.Time) {
	return func(time.Time) {
		st.Clear()
	}
}
