package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"marketwatch/internal/fetcher"
	"marketwatch/internal/holiday"
	"marketwatch/internal/state"
)

type fakeQuotes struct {
	quotes map[string]fetcher.Quote
	calls  int
}

func (f *fakeQuotes) FetchQuote(_ context.Context, ticker string) (fetcher.Quote, error) {
	f.calls++
	return f.quotes[ticker], nil
}

type fakeNotifier struct {
	messages []string
	files    []string
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeNotifier) NotifyFile(_ context.Context, text, _, filename string) error {
	f.messages = append(f.messages, text)
	f.files = append(f.files, filename)
	return nil
}

func quoteWithChange(ticker string, changePct float64) fetcher.Quote {
	return fetcher.Quote{
		Ticker:    ticker,
		Current:   decimal.NewFromInt(73130),
		PrevClose: decimal.NewFromInt(71000),
		ChangePct: decimal.NewFromFloat(changePct),
	}
}

func newStockFixture(t *testing.T, changePct float64) (*StockService, *fakeQuotes, *fakeNotifier) {
	t.Helper()

	quotes := &fakeQuotes{quotes: map[string]fetcher.Quote{"005930": quoteWithChange("005930", changePct)}}
	notifier := &fakeNotifier{}
	svc := NewStock(quotes, state.NewStore(t.TempDir(), zerolog.Nop()), nil, notifier, holiday.NewChecker(nil),
		map[string]string{"005930": "삼성전자"}, 3.0, zerolog.Nop())
	return svc, quotes, notifier
}

func TestStockAlertDedupPerDay(t *testing.T) {
	svc, quotes, notifier := newStockFixture(t, 4.0)
	ctx := context.Background()

	if err := svc.CheckOnce(ctx); err != nil {
		t.Fatalf("CheckOnce 应成功: %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("+4.0%% 应触发一条告警, 实际 %d", len(notifier.messages))
	}
	if !strings.Contains(notifier.messages[0], "삼성전자") {
		t.Fatalf("告警应包含名称:\n%s", notifier.messages[0])
	}

	// 同日同方向再次超阈不重复告警, 去重状态已持久化。
	quotes.quotes["005930"] = quoteWithChange("005930", 3.5)
	if err := svc.CheckOnce(ctx); err != nil {
		t.Fatal(err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("同方向不应重复告警, 实际 %d 条", len(notifier.messages))
	}

	// 方向反转再次告警。
	quotes.quotes["005930"] = quoteWithChange("005930", -3.2)
	if err := svc.CheckOnce(ctx); err != nil {
		t.Fatal(err)
	}
	if len(notifier.messages) != 2 {
		t.Fatalf("方向反转应再次告警, 实际 %d 条", len(notifier.messages))
	}
	if !strings.Contains(notifier.messages[1], "📉") {
		t.Fatalf("下跌告警应使用 📉:\n%s", notifier.messages[1])
	}
}

func TestStockBelowThresholdSilent(t *testing.T) {
	svc, _, notifier := newStockFixture(t, 2.9)

	if err := svc.CheckOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(notifier.messages) != 0 {
		t.Fatalf("2.9%% 低于阈值不应告警: %v", notifier.messages)
	}
}

func TestStockSummarySortedByChange(t *testing.T) {
	quotes := &fakeQuotes{quotes: map[string]fetcher.Quote{
		"005930": quoteWithChange("005930", 1.2),
		"000660": quoteWithChange("000660", 4.5),
	}}
	notifier := &fakeNotifier{}
	svc := NewStock(quotes, state.NewStore(t.TempDir(), zerolog.Nop()), nil, notifier, holiday.NewChecker(nil),
		map[string]string{"005930": "삼성전자", "000660": "SK하이닉스"}, 3.0, zerolog.Nop())

	if err := svc.Summary(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("应发送一条汇总, 实际 %d", len(notifier.messages))
	}

	msg := notifier.messages[0]
	if !strings.Contains(msg, "일일 종목 요약") {
		t.Fatalf("缺少汇总标题:\n%s", msg)
	}
	if strings.Index(msg, "SK하이닉스") > strings.Index(msg, "삼성전자") {
		t.Fatalf("涨幅最大的应排在最前:\n%s", msg)
	}
}

func TestStockSummaryOncePerDay(t *testing.T) {
	svc, _, notifier := newStockFixture(t, 0)
	ctx := context.Background()
	st := &state.SeenState{Entries: make(map[string]string)}

	summaries := func() int {
		n := 0
		for _, m := range notifier.messages {
			if strings.Contains(m, "일일 종목 요약") {
				n++
			}
		}
		return n
	}

	// 盘中 tick 不发汇总。
	if err := svc.tick(ctx, st, time.Date(2026, 8, 28, 10, 0, 0, 0, holiday.KST)); err != nil {
		t.Fatal(err)
	}
	if summaries() != 0 {
		t.Fatalf("10:00 不应发送汇总, 实际 %d 条", summaries())
	}

	// 15:30 窗口首个 tick 发送汇总。
	if err := svc.tick(ctx, st, time.Date(2026, 8, 28, 15, 30, 0, 0, holiday.KST)); err != nil {
		t.Fatal(err)
	}
	if summaries() != 1 {
		t.Fatalf("15:30 应发送一条汇总, 实际 %d 条", summaries())
	}

	// 同窗口内的后续 tick 不重复发送。
	if err := svc.tick(ctx, st, time.Date(2026, 8, 28, 15, 45, 0, 0, holiday.KST)); err != nil {
		t.Fatal(err)
	}
	if summaries() != 1 {
		t.Fatalf("同日汇总应只有一条, 实际 %d 条", summaries())
	}

	// 次一交易日重新发送。
	if err := svc.tick(ctx, st, time.Date(2026, 8, 31, 15, 30, 0, 0, holiday.KST)); err != nil {
		t.Fatal(err)
	}
	if summaries() != 2 {
		t.Fatalf("次日应再次发送汇总, 实际 %d 条", summaries())
	}
}

func TestMarketHoursGate(t *testing.T) {
	svc, _, _ := newStockFixture(t, 0)

	cases := []struct {
		at   time.Time
		open bool
	}{
		{time.Date(2026, 8, 28, 10, 0, 0, 0, holiday.KST), true},   // 周五盘中
		{time.Date(2026, 8, 28, 9, 0, 0, 0, holiday.KST), true},    // 开盘瞬间
		{time.Date(2026, 8, 28, 15, 30, 0, 0, holiday.KST), true},  // 收盘瞬间
		{time.Date(2026, 8, 28, 8, 59, 0, 0, holiday.KST), false},  // 开盘前
		{time.Date(2026, 8, 28, 15, 31, 0, 0, holiday.KST), false}, // 收盘后
		{time.Date(2026, 8, 29, 10, 0, 0, 0, holiday.KST), false},  // 周六
		{time.Date(2026, 8, 15, 10, 0, 0, 0, holiday.KST), false},  // 광복절
	}

	for _, c := range cases {
		if got := svc.MarketHoursGate(c.at); got != c.open {
			t.Errorf("MarketHoursGate(%s) = %v, want %v", c.at, got, c.open)
		}
	}
}

func TestClearTransientResetsDedup(t *testing.T) {
	st := &state.SeenState{}
	st.Set("005930_2026-08-28", "up")

	ClearTransient(st)(time.Now())
	if st.Has("005930_2026-08-28") {
		t.Fatal("空闲间隔应清空瞬态去重状态")
	}
}
