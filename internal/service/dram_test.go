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
	"marketwatch/internal/storage"
)

type fakeSpotPrices struct {
	prices map[string]fetcher.SpotPrice
}

func (f *fakeSpotPrices) FetchSpotPrices(context.Context) (map[string]fetcher.SpotPrice, error) {
	return f.prices, nil
}

func TestDramRecordsAndNotifies(t *testing.T) {
	targets := []string{"DDR5 16G"}
	prices := &fakeSpotPrices{prices: map[string]fetcher.SpotPrice{
		"DDR5 16G": {SessionAverage: "4.012", SessionChange: "+1.23%"},
	}}
	records := storage.NewCSVStore(t.TempDir())
	notifier := &fakeNotifier{}

	svc := NewDram(prices, records, notifier, targets, "DRAM Prices", zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 8, 27, 10, 0, 0, 0, holiday.KST) }

	if err := svc.CheckOnce(context.Background()); err != nil {
		t.Fatalf("CheckOnce 应成功: %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("应通知一次, 实际 %d", len(notifier.messages))
	}
	if !strings.Contains(notifier.messages[0], "4.012") {
		t.Fatalf("通知应包含价格:\n%s", notifier.messages[0])
	}

	// 次日: 记录环比并入消息。
	prices.prices["DDR5 16G"] = fetcher.SpotPrice{SessionAverage: "4.213", SessionChange: "+0.9%"}
	svc.now = func() time.Time { return time.Date(2026, 8, 28, 10, 0, 0, 0, holiday.KST) }

	if err := svc.CheckOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	// (4.213-4.012)/4.012*100 = 5.01%
	if !strings.Contains(notifier.messages[1], "+5.01%") {
		t.Fatalf("次日通知应包含环比:\n%s", notifier.messages[1])
	}

	// 同日重复运行: 不追加记录, 通知沿用已存环比。
	if err := svc.CheckOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	recent, err := records.ListRecent(context.Background(), "DRAM Prices", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("重复运行不应追加行, 实际 %d 行", len(recent))
	}
	if !strings.Contains(notifier.messages[2], "+5.01%") {
		t.Fatalf("重复运行应沿用已存环比:\n%s", notifier.messages[2])
	}
}

func TestDramEmptyResultSkipsNotification(t *testing.T) {
	svc := NewDram(&fakeSpotPrices{}, storage.NewCSVStore(t.TempDir()), &fakeNotifier{}, []string{"DDR5"}, "DRAM Prices", zerolog.Nop())

	notifier := &fakeNotifier{}
	svc.notifier = notifier
	if err := svc.CheckOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(notifier.messages) != 0 {
		t.Fatal("无数据不应通知")
	}
}

type fakeOilPrices struct {
	prices map[string]decimal.Decimal
	calls  int
}

func (f *fakeOilPrices) FetchOilPrices(context.Context) (map[string]decimal.Decimal, error) {
	f.calls++
	return f.prices, nil
}

func TestOilHolidaySkips(t *testing.T) {
	prices := &fakeOilPrices{prices: map[string]decimal.Decimal{"WTI": decimal.RequireFromString("63.57")}}
	notifier := &fakeNotifier{}
	svc := NewOil(prices, storage.NewCSVStore(t.TempDir()), notifier, holiday.NewChecker(nil),
		[]string{"WTI"}, "Oil Prices", zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 8, 15, 10, 0, 0, 0, holiday.KST) }

	if err := svc.CheckOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if prices.calls != 0 || len(notifier.messages) != 0 {
		t.Fatal("假日应完全跳过油价检查")
	}
}

func TestOilRecordsAndNotifies(t *testing.T) {
	prices := &fakeOilPrices{prices: map[string]decimal.Decimal{
		"WTI":   decimal.RequireFromString("63.57"),
		"Brent": decimal.RequireFromString("67.01"),
	}}
	notifier := &fakeNotifier{}
	svc := NewOil(prices, storage.NewCSVStore(t.TempDir()), notifier, holiday.NewChecker(nil),
		[]string{"WTI", "Brent", "Dubai"}, "Oil Prices", zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 8, 28, 10, 0, 0, 0, holiday.KST) }

	if err := svc.CheckOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("应通知一次, 实际 %d", len(notifier.messages))
	}

	msg := notifier.messages[0]
	if !strings.Contains(msg, "63.57") || !strings.Contains(msg, "67.01") {
		t.Fatalf("通知缺少价格:\n%s", msg)
	}
	if !strings.Contains(msg, "N/A") {
		t.Fatalf("缺失类型应显示 N/A:\n%s", msg)
	}
}
