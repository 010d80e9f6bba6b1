package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"marketwatch/internal/alerting"
	"marketwatch/internal/fetcher"
	"marketwatch/internal/holiday"
	"marketwatch/internal/storage"
)

// OilService records WTI/Brent/Dubai prices once per day and posts the
// daily table. Holidays are skipped.
type OilService struct {
	prices   fetcher.OilPriceFetcher
	records  storage.RecordStore
	notifier alerting.Notifier
	holidays *holiday.Checker
	types    []string
	sheet    string
	logger   zerolog.Logger
	now      func() time.Time
}

// NewOil constructs the oil monitor.
func NewOil(prices fetcher.OilPriceFetcher, records storage.RecordStore, notifier alerting.Notifier, holidays *holiday.Checker, types []string, sheet string, logger zerolog.Logger) *OilService {
	return &OilService{
		prices:   prices,
		records:  records,
		notifier: notifier,
		holidays: holidays,
		types:    types,
		sheet:    sheet,
		logger:   logger.With().Str("component", "oil_monitor").Logger(),
		now:      time.Now,
	}
}

// CheckOnce fetches oil prices, appends the dated record row, and notifies.
func (s *OilService) CheckOnce(ctx context.Context) error {
	if s.holidays.IsHoliday(s.now()) {
		s.logger.Info().Msg("holiday, skipping oil check")
		return nil
	}

	prices, err := s.prices.FetchOilPrices(ctx)
	if err != nil {
		return err
	}
	if len(prices) == 0 {
		s.logger.Warn().Msg("no oil price data")
		return nil
	}
	s.logger.Info().Int("types", len(prices)).Msg("oil prices fetched")

	today := todayIn(s.now())

	values := make(map[string]string, len(prices))
	for name, price := range prices {
		values[name] = price.StringFixed(2)
	}

	changes, skipped, err := s.records.AppendDaily(ctx, s.sheet, today, s.types, values)
	if err != nil {
		s.logger.Warn().Err(err).Msg("daily record append failed")
		changes = map[string]string{}
	}
	if skipped {
		s.logger.Info().Str("date", today).Msg("record already exists, skipped")
	}

	notify(ctx, s.notifier, s.logger, alerting.FormatOil(today, s.types, prices, changes))
	return nil
}
