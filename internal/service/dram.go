package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"marketwatch/internal/alerting"
	"marketwatch/internal/fetcher"
	"marketwatch/internal/storage"
)

// DramService records DRAM/NAND session-average spot prices once per day and
// posts the daily table.
type DramService struct {
	prices   fetcher.SpotPriceFetcher
	records  storage.RecordStore
	notifier alerting.Notifier
	targets  []string
	sheet    string
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDram constructs the DRAM monitor.
func NewDram(prices fetcher.SpotPriceFetcher, records storage.RecordStore, notifier alerting.Notifier, targets []string, sheet string, logger zerolog.Logger) *DramService {
	return &DramService{
		prices:   prices,
		records:  records,
		notifier: notifier,
		targets:  targets,
		sheet:    sheet,
		logger:   logger.With().Str("component", "dram_monitor").Logger(),
		now:      time.Now,
	}
}

// CheckOnce fetches spot prices, appends the dated record row (skipping
// duplicates for the same day), and notifies with the recorded changes.
func (s *DramService) CheckOnce(ctx context.Context) error {
	prices, err := s.prices.FetchSpotPrices(ctx)
	if err != nil {
		return err
	}
	if len(prices) == 0 {
		s.logger.Warn().Msg("no spot price data")
		return nil
	}
	s.logger.Info().Int("items", len(prices)).Msg("spot prices fetched")

	today := todayIn(s.now())

	values := make(map[string]string, len(prices))
	for item, p := range prices {
		values[item] = p.SessionAverage
	}

	changes, skipped, err := s.records.AppendDaily(ctx, s.sheet, today, s.targets, values)
	if err != nil {
		// Run-level warning only; the notification still goes out.
		s.logger.Warn().Err(err).Msg("daily record append failed")
		changes = map[string]string{}
	}
	if skipped {
		s.logger.Info().Str("date", today).Msg("record already exists, skipped")
	}

	notify(ctx, s.notifier, s.logger, alerting.FormatDram(today, s.targets, prices, changes))
	return nil
}
