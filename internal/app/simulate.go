package app

import (
	"context"
	"errors"
	"os"

	"github.com/shopspring/decimal"

	"marketwatch/internal/fetcher"
	"marketwatch/internal/service"
	"marketwatch/internal/state"
)

// SimulateAlert 通过给定的当前价/前收盘价模拟一次股价告警流程。
func (a *App) SimulateAlert(ctx context.Context, current, prevClose decimal.Decimal) error {
	if prevClose.IsZero() {
		return errors.New("前收盘价不能为零")
	}

	notifier := a.newNotifier()

	// 独立的临时状态目录, 避免污染真实去重状态。
	dir, err := os.MkdirTemp("", "marketwatch-simulate-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	quotes := &staticQuoteFetcher{current: current, prevClose: prevClose}
	tickers := map[string]string{"SIM": "시뮬레이션 종목"}

	svc := service.NewStock(quotes, state.NewStore(dir, a.Logger), nil, notifier, a.newHolidays(),
		tickers, a.Config.Stock.ThresholdPct, a.Logger)
	return svc.CheckOnce(ctx)
}

type staticQuoteFetcher struct {
	current   decimal.Decimal
	prevClose decimal.Decimal
}

func (s *staticQuoteFetcher) FetchQuote(ctx context.Context, ticker string) (fetcher.Quote, error) {
	change := s.current.Sub(s.prevClose).Div(s.prevClose).Mul(decimal.NewFromInt(100))
	return fetcher.Quote{
		Ticker:    ticker,
		Current:   s.current,
		PrevClose: s.prevClose,
		ChangePct: change,
	}, nil
}

var _ fetcher.QuoteFetcher = (*staticQuoteFetcher)(nil)
