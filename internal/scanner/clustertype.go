package scanner

import (
	"strings"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// prefixWords is how many leading question words must agree for a group of
// numeric markets to be treated as a threshold ladder.
const prefixWords = 3

// DetectClusterType classifies a group of markets by their question text and
// category metadata. Empty and singleton groups are always custom: a single
// market has no cross-market structure to exploit.
func DetectClusterType(markets []domain.Market) domain.ClusterType {
	if len(markets) < 2 {
		return domain.ClusterCustom
	}

	allNumeric := true
	for _, m := range markets {
		if !containsNumber(m.Question) {
			allNumeric = false
			break
		}
	}
	if allNumeric && sharesQuestionPrefix(markets, prefixWords) {
		return domain.ClusterThreshold
	}

	if len(markets) <= 5 && sameCategory(markets) {
		return domain.ClusterMutualExclusive
	}
	return domain.ClusterCorrelated
}

// sharesQuestionPrefix reports whether every market's question starts with
// the same n words. The comparison is case sensitive and whitespace
// normalized; questions shorter than n words never share a prefix.
func sharesQuestionPrefix(markets []domain.Market, n int) bool {
	prefix := ""
	for i, m := range markets {
		words := strings.Fields(m.Question)
		if len(words) < n {
			return false
		}
		p := strings.Join(words[:n], " ")
		if i == 0 {
			prefix = p
			continue
		}
		if p != prefix {
			return false
		}
	}
	return true
}

// sameCategory reports whether all markets carry the same category.
func sameCategory(markets []domain.Market) bool {
	cat := markets[0].Category
	for _, m := range markets[1:] {
		if m.Category != cat {
			return false
		}
	}
	return true
}
