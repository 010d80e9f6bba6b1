package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Field is one extracted metric.
type Field struct {
	Key   string
	Value string
}

// Rule matches one logical group of metrics out of raw document text.
// A rule that does not match contributes nothing; absence of a key means
// "not found", never failure.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	// Collapse runs whitespace-normalised matching. PDF text extraction
	// inserts irregular spacing and line breaks inside labels.
	Collapse bool
	// All matches every occurrence; Render then receives all submatch sets.
	All    bool
	Render func(matches [][]string) []Field
}

// Result is an ordered mapping from metric key to rendered value.
type Result struct {
	keys   []string
	values map[string]string
}

// Get returns the value for key and whether it was extracted.
func (r Result) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// GetOr returns the value for key or the fallback.
func (r Result) GetOr(key, fallback string) string {
	if v, ok := r.values[key]; ok {
		return v
	}
	return fallback
}

// Keys lists extracted keys in rule order.
func (r Result) Keys() []string { return r.keys }

// Len reports the number of extracted metrics.
func (r Result) Len() int { return len(r.keys) }

// Empty reports whether nothing was extracted.
func (r Result) Empty() bool { return len(r.keys) == 0 }

func (r *Result) put(f Field) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, exists := r.values[f.Key]; !exists {
		r.keys = append(r.keys, f.Key)
	}
	r.values[f.Key] = f.Value
}

// FromFields builds a Result directly, preserving order. Used for fallback
// summaries when extraction yielded nothing.
func FromFields(fields ...Field) Result {
	var r Result
	for _, f := range fields {
		r.put(f)
	}
	return r
}

var spaceRun = regexp.MustCompile(`\s+`)

func collapseSpace(text string) string {
	return spaceRun.ReplaceAllString(text, " ")
}

// Apply runs every rule against the text and merges the extracted fields in
// rule order. Rules are independent; a miss is silent.
func Apply(text string, rules []Rule) Result {
	collapsed := ""
	var result Result

	for _, rule := range rules {
		input := text
		if rule.Collapse {
			if collapsed == "" {
				collapsed = collapseSpace(text)
			}
			input = collapsed
		}

		var matches [][]string
		if rule.All {
			matches = rule.Pattern.FindAllStringSubmatch(input, -1)
		} else if m := rule.Pattern.FindStringSubmatch(input); m != nil {
			matches = [][]string{m}
		}
		if len(matches) == 0 {
			continue
		}

		for _, f := range rule.Render(matches) {
			result.put(f)
		}
	}

	return result
}

// parseGrouped parses a thousands-separated integer like "1,234".
func parseGrouped(s string) (decimal.Decimal, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// signedPct renders a signed percentage with one decimal place, e.g. "+4.2%".
func signedPct(d decimal.Decimal) string {
	s := d.StringFixed(1)
	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s + "%"
}

// changePct computes (current-previous)/previous*100. The second return is
// false when previous is zero.
func changePct(current, previous decimal.Decimal) (decimal.Decimal, bool) {
	if previous.IsZero() {
		return decimal.Decimal{}, false
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)), true
}
