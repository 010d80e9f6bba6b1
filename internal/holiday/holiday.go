package holiday

import (
	"strings"
	"time"
)

// KST is the reference timezone for every market-hours and holiday decision.
var KST = time.FixedZone("KST", 9*60*60)

// statutory lists the fixed-date Korean public holidays.
var statutory = map[[2]int]string{
	{1, 1}:   "신정",
	{3, 1}:   "삼일절",
	{5, 5}:   "어린이날",
	{6, 6}:   "현충일",
	{8, 15}:  "광복절",
	{10, 3}:  "개천절",
	{10, 9}:  "한글날",
	{12, 25}: "성탄절",
}

// movable lists the holidays that cannot be derived from a fixed month/day:
// the lunar holidays (설날 and 추석 with their adjacent days, 석가탄신일),
// the statutory substitute days (대체공휴일), and one-off declared holidays
// such as election days. Years beyond the table rely on the configured
// extra-holiday overrides.
var movable = map[string]string{
	// 2024
	"2024-02-09": "설날 연휴",
	"2024-02-10": "설날",
	"2024-02-11": "설날 연휴",
	"2024-02-12": "대체공휴일 (설날)",
	"2024-04-10": "국회의원 선거일",
	"2024-05-06": "대체공휴일 (어린이날)",
	"2024-05-15": "석가탄신일",
	"2024-09-16": "추석 연휴",
	"2024-09-17": "추석",
	"2024-09-18": "추석 연휴",
	"2024-10-01": "임시공휴일 (국군의 날)",

	// 2025
	"2025-01-27": "임시공휴일",
	"2025-01-28": "설날 연휴",
	"2025-01-29": "설날",
	"2025-01-30": "설날 연휴",
	"2025-03-03": "대체공휴일 (삼일절)",
	"2025-05-06": "대체공휴일 (어린이날·석가탄신일)",
	"2025-06-03": "대통령 선거일",
	"2025-10-05": "추석 연휴",
	"2025-10-06": "추석",
	"2025-10-07": "추석 연휴",
	"2025-10-08": "대체공휴일 (추석)",

	// 2026
	"2026-02-16": "설날 연휴",
	"2026-02-17": "설날",
	"2026-02-18": "설날 연휴",
	"2026-03-02": "대체공휴일 (삼일절)",
	"2026-05-24": "석가탄신일",
	"2026-05-25": "대체공휴일 (석가탄신일)",
	"2026-08-17": "대체공휴일 (광복절)",
	"2026-09-24": "추석 연휴",
	"2026-09-25": "추석",
	"2026-09-26": "추석 연휴",
	"2026-10-05": "대체공휴일 (개천절)",

	// 2027
	"2027-02-05": "설날 연휴",
	"2027-02-06": "설날",
	"2027-02-07": "설날 연휴",
	"2027-02-08": "대체공휴일 (설날)",
	"2027-05-13": "석가탄신일",
	"2027-08-16": "대체공휴일 (광복절)",
	"2027-09-14": "추석 연휴",
	"2027-09-15": "추석",
	"2027-09-16": "추석 연휴",
	"2027-10-04": "대체공휴일 (개천절)",
	"2027-10-11": "대체공휴일 (한글날)",
	"2027-12-27": "대체공휴일 (성탄절)",

	// 2028
	"2028-01-25": "설날 연휴",
	"2028-01-26": "설날",
	"2028-01-27": "설날 연휴",
	"2028-05-02": "석가탄신일",
	"2028-10-02": "추석 연휴",
	"2028-10-03": "추석",
	"2028-10-04": "추석 연휴",
	"2028-10-05": "대체공휴일 (추석)",
}

// Checker answers whether a given date is a Korean non-trading holiday.
type Checker struct {
	extra map[string]struct{}
}

// NewChecker builds a checker with manual overrides in YYYY-MM-DD form.
// Invalid entries are ignored.
func NewChecker(extra []string) *Checker {
	set := make(map[string]struct{}, len(extra))
	for _, d := range extra {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			continue
		}
		set[d] = struct{}{}
	}
	return &Checker{extra: set}
}

// IsHoliday reports whether t (interpreted in KST) falls on a statutory,
// movable, or override holiday. Weekends are a separate concern; see
// IsBusinessDay.
func (c *Checker) IsHoliday(t time.Time) bool {
	local := t.In(KST)
	if _, ok := statutory[[2]int{int(local.Month()), local.Day()}]; ok {
		return true
	}
	date := local.Format("2006-01-02")
	if _, ok := movable[date]; ok {
		return true
	}
	_, ok := c.extra[date]
	return ok
}

// IsBusinessDay reports whether t is a KST weekday that is not a holiday.
func (c *Checker) IsBusinessDay(t time.Time) bool {
	local := t.In(KST)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !c.IsHoliday(local)
}
