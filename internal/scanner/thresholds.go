package scanner

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// comparisonRe matches a comparison clause in a market question: an operator
// keyword or symbol, an optional currency symbol, and a number with an
// optional k/m/b magnitude suffix. Keyword and symbol forms are separate
// alternatives; groups 1-3 capture the keyword form, 4-6 the symbol form.
var comparisonRe = regexp.MustCompile(
	`(?i)\b(above|over|greater\s+than|exceeds?|below|under|less\s+than)\b\s*[$€£]?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*([kmb])?` +
		`|([<>])\s*[$€£]?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*([kmb])?`)

// numberRe matches the same currency-number pattern on its own, without a
// comparison operator. The cluster type detector uses it to decide whether a
// question mentions any numeric value at all.
var numberRe = regexp.MustCompile(`(?i)[$€£]?\s*[0-9][0-9,]*(?:\.[0-9]+)?\s*[kmb]?`)

// suffixScale maps a magnitude suffix to its multiplier.
var suffixScale = map[string]float64{
	"k": 1e3,
	"m": 1e6,
	"b": 1e9,
}

// ExtractThresholds parses the first comparison clause out of each market's
// question text. Markets whose question contains no clause are omitted from
// the result rather than null-padded. Only the first match per question is
// used; later numeric mentions are ignored, which is a documented limitation
// of the extraction, not a bug.
func ExtractThresholds(markets []domain.Market) []domain.MarketThreshold {
	out := make([]domain.MarketThreshold, 0, len(markets))
	for _, m := range markets {
		t, ok := extractThreshold(m.Question)
		if !ok {
			continue
		}
		t.MarketID = m.ID
		out = append(out, t)
	}
	return out
}

// extractThreshold scans a single question for its first comparison clause.
func extractThreshold(question string) (domain.MarketThreshold, bool) {
	sub := comparisonRe.FindStringSubmatch(question)
	if sub == nil {
		return domain.MarketThreshold{}, false
	}

	keyword, number, suffix := sub[1], sub[2], sub[3]
	if keyword == "" {
		keyword, number, suffix = sub[4], sub[5], sub[6]
	}

	value, err := parseAmount(number, suffix)
	if err != nil {
		return domain.MarketThreshold{}, false
	}
	return domain.MarketThreshold{
		Operator: normalizeOperator(keyword),
		Value:    value,
	}, true
}

// normalizeOperator collapses the operator vocabulary to ">" or "<".
func normalizeOperator(op string) string {
	switch strings.Join(strings.Fields(strings.ToLower(op)), " ") {
	case "above", "over", "greater than", "exceed", "exceeds", ">":
		return ">"
	default:
		return "<"
	}
}

// parseAmount converts a matched number plus optional magnitude suffix to a
// float value ("1.5m" -> 1_500_000).
func parseAmount(number, suffix string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", ""), 64)
	if err != nil {
		return 0, err
	}
	if scale, ok := suffixScale[strings.ToLower(suffix)]; ok {
		v *= scale
	}
	return v, nil
}

// containsNumber reports whether the question mentions any currency-number
// token, using the same pattern the threshold extractor matches against.
func containsNumber(question string) bool {
	return numberRe.MatchString(question)
}
