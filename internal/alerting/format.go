package alerting

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"marketwatch/internal/extract"
	"marketwatch/internal/fetcher"
)

const divider = "━━━━━━━━━━━━━━━━━━━━"

// FormatCustoms renders the customs press-release summary message.
func FormatCustoms(title, date, boardLink string, summary extract.Result) string {
	lines := []string{
		"📢 *관세청 수출입 현황 발표*",
		fmt.Sprintf("*%s*", title),
		fmt.Sprintf("등록일: %s", date),
		"",
		divider,
		"*📊 당월 수출입 실적*",
	}

	appendIf := func(key, format string) {
		if v, ok := summary.Get(key); ok {
			lines = append(lines, fmt.Sprintf(format, v))
		}
	}

	appendIf(extract.KeyMonthExport, "  🔺 수출: %s")
	appendIf(extract.KeyMonthImport, "  🔽 수입: %s")
	appendIf(extract.KeyTradeBalance, "  💰 무역수지: %s")

	lines = append(lines, "", "*📅 전월 수출입 실적*")
	appendIf(extract.KeyPrevExport, "  🔺 수출: %s")
	appendIf(extract.KeyPrevImport, "  🔽 수입: %s")
	if v, ok := summary.Get(extract.KeyPrevExportChange); ok {
		lines = append(lines, fmt.Sprintf("  📊 전월대비 증감: 수출 %s, 수입 %s",
			v, summary.GetOr(extract.KeyPrevImportChange, "N/A")))
	}

	lines = append(lines, "", "*📈 연간누계 실적*")
	if v, ok := summary.Get(extract.KeyAnnualExport); ok {
		lines = append(lines, strings.TrimRight(fmt.Sprintf("  🔺 수출: %s %s", v, summary.GetOr(extract.KeyAnnualExportRate, "")), " "))
	}
	if v, ok := summary.Get(extract.KeyAnnualImport); ok {
		lines = append(lines, strings.TrimRight(fmt.Sprintf("  🔽 수입: %s %s", v, summary.GetOr(extract.KeyAnnualImportRate, "")), " "))
	}

	lines = append(lines, "", "*🔬 반도체 수출*")
	appendIf(extract.KeySemiExport, "  수출액: %s")
	appendIf(extract.KeySemiShare, "  수출 비중: %s")

	lines = append(lines, divider)
	lines = append(lines, fmt.Sprintf("🔗 <%s|관세청 보도자료 바로가기>", boardLink))

	return strings.Join(lines, "\n")
}

// FormatDram renders the DRAM/NAND daily price table message.
func FormatDram(date string, targets []string, prices map[string]fetcher.SpotPrice, changes map[string]string) string {
	lines := []string{
		"💾 *DRAM/NAND Spot Price Update*",
		fmt.Sprintf("날짜: %s", date),
		"",
		"```",
		fmt.Sprintf("%-35s %8s %8s", "Item", "Avg ($)", "Change"),
		strings.Repeat("-", 53),
	}

	for _, target := range targets {
		avg := "N/A"
		if p, ok := prices[target]; ok {
			avg = p.SessionAverage
		}
		change := "-"
		if c, ok := changes[target]; ok && c != "" {
			change = c
		}
		lines = append(lines, fmt.Sprintf("%-35s %8s %8s", target, avg, change))
	}

	lines = append(lines, "```", "_Source: DRAMeXchange_")
	return strings.Join(lines, "\n")
}

// FormatOil renders the oil price daily table message.
func FormatOil(date string, types []string, prices map[string]decimal.Decimal, changes map[string]string) string {
	lines := []string{
		"🛢️ *Oil Price Update*",
		fmt.Sprintf("날짜: %s", date),
		"",
		"```",
		fmt.Sprintf("%-15s %12s %10s", "Oil Type", "Price ($)", "Change"),
		strings.Repeat("-", 39),
	}

	for _, t := range types {
		price := "N/A"
		if p, ok := prices[t]; ok {
			price = p.StringFixed(2)
		}
		change := "-"
		if c, ok := changes[t]; ok && c != "" {
			change = c
		}
		lines = append(lines, fmt.Sprintf("%-15s %12s %10s", t, price, change))
	}

	lines = append(lines, "```", "_Source: WTI/Brent via market data provider, Dubai via OilPrice.com_")
	return strings.Join(lines, "\n")
}

// FormatStockAlert renders a threshold-breach alert for one security.
func FormatStockAlert(name string, quote fetcher.Quote, threshold decimal.Decimal) string {
	emoji := "📈"
	if quote.ChangePct.Sign() < 0 {
		emoji = "📉"
	}

	return strings.Join([]string{
		fmt.Sprintf("%s *%s* (%s)", emoji, name, quote.Ticker),
		fmt.Sprintf("현재가: %s원", groupDigits(quote.Current)),
		fmt.Sprintf("전일종가: %s원", groupDigits(quote.PrevClose)),
		fmt.Sprintf("변동률: *%s%%*", signed(quote.ChangePct, 2)),
		fmt.Sprintf("_변동률 %s%% 초과 알림_", threshold.String()),
	}, "\n")
}

// SummaryRow is one security in the daily close summary.
type SummaryRow struct {
	Name  string
	Quote fetcher.Quote
}

// FormatDailySummary renders the market-close summary. Rows are expected to
// be sorted by change, best first.
func FormatDailySummary(rows []SummaryRow) string {
	lines := []string{"📊 *일일 종목 요약* (장 마감)", strings.Repeat("─", 30)}

	total := decimal.Zero
	for _, row := range rows {
		emoji := "➖"
		switch row.Quote.ChangePct.Sign() {
		case 1:
			emoji = "🔺"
		case -1:
			emoji = "🔽"
		}
		lines = append(lines, fmt.Sprintf("%s %s: %s원 → %s원 (%s%%)",
			emoji, row.Name,
			groupDigits(row.Quote.PrevClose),
			groupDigits(row.Quote.Current),
			signed(row.Quote.ChangePct, 2)))
		total = total.Add(row.Quote.ChangePct)
	}

	lines = append(lines, strings.Repeat("─", 30))
	if len(rows) > 0 {
		avg := total.Div(decimal.NewFromInt(int64(len(rows))))
		lines = append(lines, fmt.Sprintf("평균 수익률: %s%%", signed(avg, 2)))
	}
	return strings.Join(lines, "\n")
}

// ExtractionFallback is shown when a report yielded no extractable figures.
const ExtractionFallback = "데이터 추출 실패 - 첨부파일 확인 필요"

func signed(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s
}

// groupDigits renders the integer value with thousands separators.
func groupDigits(d decimal.Decimal) string {
	s := d.Round(0).String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
