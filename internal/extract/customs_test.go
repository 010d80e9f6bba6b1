package extract

import (
	"strings"
	"testing"
)

const pressReleaseText = `
관세청은 2026년 8월 1일부터 20일까지의 수출입 현황을 발표하였다.

수출은  358.2억 달러로 전년 동기 대비 5.2% 증가하였고,
수입은  331.5억
달러로 전년 동기 대비 2.1% 증가하였다.
무역수지는  26.7억 달러 흑자를 기록하였다.

                     (단위: 백만 달러)
 수 출   33,120   412,000   34,100   35,820   278,400
 수 입   32,400   405,000   33,000   33,150   265,100
(전년동기대비증감률) (4.1) (3.3) (2.8) (5.2) (6.4)
(전년동기대비증감률) (2.0) (1.9) (1.5) (2.1) (4.2)

반 도 체   7,420   11.3
한편 반도체 수출 비중은 20.7%로 나타났다.
`

func TestCustomsRulesExtraction(t *testing.T) {
	result := Apply(pressReleaseText, CustomsRules())

	cases := map[string]string{
		KeyMonthExport:      "358.2억 달러 (전년동기대비 +5.2%)",
		KeyMonthImport:      "331.5억 달러 (전년동기대비 +2.1%)",
		KeyTradeBalance:     "26.7억 달러 흑자",
		KeyPrevExport:       "341.0억 달러",
		KeyPrevExportChange: "+5.0%",
		KeyAnnualExport:     "2784.0억 달러",
		KeyPrevImport:       "330.0억 달러",
		KeyAnnualImport:     "2651.0억 달러",
		KeyAnnualExportRate: "+6.4%",
		KeyAnnualImportRate: "+4.2%",
		KeySemiExport:       "74.2억 달러 (+11.3%)",
		KeySemiShare:        "20.7%",
	}

	for key, want := range cases {
		got, ok := result.Get(key)
		if !ok {
			t.Errorf("%s 应被提取", key)
			continue
		}
		if got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestCustomsRulesTolerateLineBreaks(t *testing.T) {
	// PDF 文本提取会在标签内部插入换行与多余空白。
	noisy := strings.ReplaceAll(pressReleaseText, "무역수지는  26.7억 달러", "무역수지는\n  26.7억\t달러")
	result := Apply(noisy, CustomsRules())

	if got, _ := result.Get(KeyTradeBalance); got != "26.7억 달러 흑자" {
		t.Fatalf("换行后仍应提取贸易收支, 实际 %q", got)
	}
}

func TestCustomsExportRowWhitespaceEquivalence(t *testing.T) {
	// 同一统计行, 一个在标签中间断行, 一个单倍空格, 提取结果必须一致。
	broken := "수\n출   100   200   1,234   1,630   5,000"
	plain := "수출 100 200 1,234 1,630 5,000"

	a := Apply(broken, CustomsRules())
	b := Apply(plain, CustomsRules())

	got, ok := a.Get(KeyPrevExportChange)
	if !ok || got != "+32.1%" {
		t.Fatalf("断行文本的环比 = %q, want +32.1%%", got)
	}
	if other, _ := b.Get(KeyPrevExportChange); other != got {
		t.Fatalf("两种排版环比应一致: %q vs %q", got, other)
	}

	av, _ := a.Get(KeyPrevExport)
	bv, _ := b.Get(KeyPrevExport)
	if av != bv || av != "12.3억 달러" {
		t.Fatalf("两种排版金额应一致: %q vs %q", av, bv)
	}
}

func TestCustomsRulesZeroPrevMonthSkipsChange(t *testing.T) {
	text := " 수 출   33,120   412,000   0   35,820   278,400 "
	result := Apply(text, CustomsRules())

	if _, ok := result.Get(KeyPrevExportChange); ok {
		t.Fatal("前月为 0 时不应产生环比, 防止除零")
	}
	if got, _ := result.Get(KeyPrevExport); got != "0.0억 달러" {
		t.Fatalf("前月金额应仍被提取, 实际 %q", got)
	}
}

func TestCustomsRulesNoMatchIsEmpty(t *testing.T) {
	result := Apply("이 문서에는 관련 수치가 없다.", CustomsRules())
	if !result.Empty() {
		t.Fatalf("无匹配时结果应为空: %#v", result.Keys())
	}
}

func TestResultPreservesRuleOrder(t *testing.T) {
	result := Apply(pressReleaseText, CustomsRules())

	keys := result.Keys()
	if len(keys) < 3 {
		t.Fatalf("提取键数量不足: %v", keys)
	}
	if keys[0] != KeyMonthExport || keys[1] != KeyMonthImport || keys[2] != KeyTradeBalance {
		t.Fatalf("键顺序应跟随规则表: %v", keys)
	}
}

func TestFromFieldsFallback(t *testing.T) {
	result := FromFields(Field{Key: KeyMonthExport, Value: "fallback"})
	if result.Empty() {
		t.Fatal("fallback 结果不应为空")
	}
	if got := result.GetOr(KeyMonthExport, ""); got != "fallback" {
		t.Fatalf("GetOr 不正确: %q", got)
	}
	if got := result.GetOr(KeyMonthImport, "N/A"); got != "N/A" {
		t.Fatalf("缺失键应返回默认值: %q", got)
	}
}
