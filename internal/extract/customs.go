package extract

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// Metric keys produced by the customs rule set. Values mirror the labels used
// in the source press release.
const (
	KeyMonthExport      = "당월_수출"
	KeyMonthImport      = "당월_수입"
	KeyTradeBalance     = "무역수지"
	KeyPrevExport       = "전월_수출"
	KeyPrevExportChange = "전월대비_수출"
	KeyAnnualExport     = "연간누계_수출"
	KeyPrevImport       = "전월_수입"
	KeyPrevImportChange = "전월대비_수입"
	KeyAnnualImport     = "연간누계_수입"
	KeyAnnualExportRate = "연간누계_수출_증감률"
	KeyAnnualImportRate = "연간누계_수입_증감률"
	KeySemiExport       = "반도체_수출"
	KeySemiShare        = "반도체_비중"
)

var hundred = decimal.NewFromInt(100)

var (
	monthExportRe  = regexp.MustCompile(`수출은?\s*([\d,.]+)억 달러.*?(\d+\.\d+)%\s*증가`)
	monthImportRe  = regexp.MustCompile(`수입은?\s*([\d,.]+)억?\s*달러.*?(\d+\.\d+)%\s*증가`)
	tradeBalanceRe = regexp.MustCompile(`무역수지는?\s*([\d,.]+)억 달러\s*(흑자|적자)`)

	// Statistics table rows. Five positional columns, matching the source
	// layout exactly: prior-year month, prior-year annual, prior month,
	// current month, annual cumulative (unit: USD million).
	exportRowRe = regexp.MustCompile(`수\s*출\s+([\d,]+)\s+([\d,]+)\s+([\d,]+)\s+([\d,]+)\s+([\d,]+)`)
	importRowRe = regexp.MustCompile(`수\s*입\s+([\d,]+)\s+([\d,]+)\s+([\d,]+)\s+([\d,]+)\s+([\d,]+)`)

	annualRateRe = regexp.MustCompile(`\(전년동기대비증감률\)\s*\([\d.△]+\)\s*\([\d.△]+\)\s*\([\d.△]+\)\s*\([\d.△]+\)\s*\(([\d.△]+)\)`)

	semiExportRe = regexp.MustCompile(`반\s*도\s*체\s+([\d,]+)\s+([\d.△]+)`)
	semiShareRe  = regexp.MustCompile(`반도체 수출 비중은?\s*([\d.]+)%`)
)

// CustomsRules is the ordered rule table for the monthly import/export press
// release PDF.
func CustomsRules() []Rule {
	return []Rule{
		{
			Name:     "month_export",
			Pattern:  monthExportRe,
			Collapse: true,
			Render: func(m [][]string) []Field {
				return []Field{{KeyMonthExport, fmt.Sprintf("%s억 달러 (전년동기대비 +%s%%)", m[0][1], m[0][2])}}
			},
		},
		{
			Name:     "month_import",
			Pattern:  monthImportRe,
			Collapse: true,
			Render: func(m [][]string) []Field {
				return []Field{{KeyMonthImport, fmt.Sprintf("%s억 달러 (전년동기대비 +%s%%)", m[0][1], m[0][2])}}
			},
		},
		{
			Name:     "trade_balance",
			Pattern:  tradeBalanceRe,
			Collapse: true,
			Render: func(m [][]string) []Field {
				return []Field{{KeyTradeBalance, fmt.Sprintf("%s억 달러 %s", m[0][1], m[0][2])}}
			},
		},
		{
			Name:    "export_row",
			Pattern: exportRowRe,
			Render:  tradeRowFields(KeyPrevExport, KeyPrevExportChange, KeyAnnualExport),
		},
		{
			Name:    "import_row",
			Pattern: importRowRe,
			Render:  tradeRowFields(KeyPrevImport, KeyPrevImportChange, KeyAnnualImport),
		},
		{
			Name:    "annual_rates",
			Pattern: annualRateRe,
			All:     true,
			Render: func(m [][]string) []Field {
				// Export row comes first in the source table, import second.
				if len(m) < 2 {
					return nil
				}
				return []Field{
					{KeyAnnualExportRate, "+" + m[0][1] + "%"},
					{KeyAnnualImportRate, "+" + m[1][1] + "%"},
				}
			},
		},
		{
			Name:    "semi_export",
			Pattern: semiExportRe,
			Render: func(m [][]string) []Field {
				amount, ok := parseGrouped(m[0][1])
				if !ok {
					return nil
				}
				return []Field{{KeySemiExport, fmt.Sprintf("%s억 달러 (+%s%%)", amount.Div(hundred).StringFixed(1), m[0][2])}}
			},
		},
		{
			Name:     "semi_share",
			Pattern:  semiShareRe,
			Collapse: true,
			Render: func(m [][]string) []Field {
				return []Field{{KeySemiShare, m[0][1] + "%"}}
			},
		},
	}
}

// tradeRowFields renders the prior-month figure, the signed month-over-month
// change, and the annual cumulative from one statistics row. The derived
// change is skipped when the prior month is zero.
func tradeRowFields(prevKey, changeKey, annualKey string) func([][]string) []Field {
	return func(m [][]string) []Field {
		prev, okPrev := parseGrouped(m[0][3])
		cur, okCur := parseGrouped(m[0][4])
		annual, okAnnual := parseGrouped(m[0][5])
		if !okPrev || !okCur || !okAnnual {
			return nil
		}

		fields := []Field{{prevKey, prev.Div(hundred).StringFixed(1) + "억 달러"}}
		if rate, ok := changePct(cur, prev); ok {
			fields = append(fields, Field{changeKey, signedPct(rate)})
		}
		fields = append(fields, Field{annualKey, annual.Div(hundred).StringFixed(1) + "억 달러"})
		return fields
	}
}
