package holiday

import (
	"testing"
	"time"
)

func TestStatutoryHoliday(t *testing.T) {
	checker := NewChecker(nil)

	liberation := time.Date(2026, 8, 15, 10, 0, 0, 0, KST)
	if !checker.IsHoliday(liberation) {
		t.Fatal("광복절应为法定假日")
	}

	ordinary := time.Date(2026, 8, 28, 10, 0, 0, 0, KST)
	if checker.IsHoliday(ordinary) {
		t.Fatal("普通交易日不应判定为假日")
	}
}

func TestLunarAndSubstituteHolidays(t *testing.T) {
	checker := NewChecker(nil)

	cases := []struct {
		date    time.Time
		holiday bool
		label   string
	}{
		{time.Date(2026, 2, 17, 10, 0, 0, 0, KST), true, "설날"},
		{time.Date(2026, 5, 24, 10, 0, 0, 0, KST), true, "석가탄신일"},
		{time.Date(2026, 5, 25, 10, 0, 0, 0, KST), true, "석가탄신일 대체공휴일"},
		{time.Date(2026, 8, 17, 10, 0, 0, 0, KST), true, "광복절 대체공휴일"},
		{time.Date(2026, 9, 25, 10, 0, 0, 0, KST), true, "추석"},
		{time.Date(2025, 10, 8, 10, 0, 0, 0, KST), true, "추석 대체공휴일"},
		{time.Date(2025, 6, 3, 10, 0, 0, 0, KST), true, "대통령 선거일"},
		{time.Date(2026, 9, 28, 10, 0, 0, 0, KST), false, "연휴 다음 월요일"},
	}

	for _, c := range cases {
		if got := checker.IsHoliday(c.date); got != c.holiday {
			t.Errorf("%s (%s): IsHoliday = %v, want %v", c.label, c.date.Format("2006-01-02"), got, c.holiday)
		}
	}

	if checker.IsBusinessDay(time.Date(2026, 2, 17, 10, 0, 0, 0, KST)) {
		t.Fatal("설날不是交易日")
	}
}

func TestExtraHolidayOverride(t *testing.T) {
	checker := NewChecker([]string{"2026-09-24", " 2026-09-25 ", "not-a-date", ""})

	if !checker.IsHoliday(time.Date(2026, 9, 24, 9, 0, 0, 0, KST)) {
		t.Fatal("추석 연휴覆盖日期应为假日")
	}
	if !checker.IsHoliday(time.Date(2026, 9, 25, 9, 0, 0, 0, KST)) {
		t.Fatal("覆盖日期应容忍首尾空白")
	}
	if checker.IsHoliday(time.Date(2026, 9, 28, 9, 0, 0, 0, KST)) {
		t.Fatal("未覆盖日期不应为假日")
	}
}

func TestHolidayEvaluatedInKST(t *testing.T) {
	checker := NewChecker(nil)

	// UTC 12月24日 20:00 == KST 12月25日 05:00。
	eveUTC := time.Date(2026, 12, 24, 20, 0, 0, 0, time.UTC)
	if !checker.IsHoliday(eveUTC) {
		t.Fatal("时区换算后应落在成탄절")
	}
}

func TestIsBusinessDay(t *testing.T) {
	checker := NewChecker(nil)

	saturday := time.Date(2026, 8, 29, 10, 0, 0, 0, KST)
	if checker.IsBusinessDay(saturday) {
		t.Fatal("周六不是交易日")
	}

	friday := time.Date(2026, 8, 28, 10, 0, 0, 0, KST)
	if !checker.IsBusinessDay(friday) {
		t.Fatal("普通周五应为交易日")
	}

	newYear := time.Date(2027, 1, 1, 10, 0, 0, 0, KST)
	if checker.IsBusinessDay(newYear) {
		t.Fatal("신정不是交易日")
	}
}
