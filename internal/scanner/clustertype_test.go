package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

func categoryMarket(id, question, category string) domain.Market {
	return domain.Market{ID: id, Question: question, Category: category}
}

func TestDetectClusterType(t *testing.T) {
	t.Run("empty is custom", func(t *testing.T) {
		assert.Equal(t, domain.ClusterCustom, DetectClusterType(nil))
	})

	t.Run("singleton is custom", func(t *testing.T) {
		markets := []domain.Market{categoryMarket("a", "Will BTC close above 100k?", "crypto")}
		assert.Equal(t, domain.ClusterCustom, DetectClusterType(markets))
	})

	t.Run("numeric questions with shared prefix form a threshold ladder", func(t *testing.T) {
		markets := []domain.Market{
			categoryMarket("a", "Will BTC close above 100k?", "crypto"),
			categoryMarket("b", "Will BTC close above 150k?", "crypto"),
			categoryMarket("c", "Will BTC close above 200k?", "crypto"),
		}
		assert.Equal(t, domain.ClusterThreshold, DetectClusterType(markets))
	})

	t.Run("prefix comparison is case sensitive", func(t *testing.T) {
		markets := []domain.Market{
			categoryMarket("a", "Will BTC close above 100k?", "crypto"),
			categoryMarket("b", "will BTC close above 150k?", "crypto"),
		}
		// falls through to the category check
		assert.Equal(t, domain.ClusterMutualExclusive, DetectClusterType(markets))
	})

	t.Run("small same-category group is mutually exclusive", func(t *testing.T) {
		markets := []domain.Market{
			categoryMarket("a", "Will Smith win?", "politics"),
			categoryMarket("b", "Will Jones win?", "politics"),
			categoryMarket("c", "Will Brown win?", "politics"),
		}
		assert.Equal(t, domain.ClusterMutualExclusive, DetectClusterType(markets))
	})

	t.Run("more than five same-category markets are correlated", func(t *testing.T) {
		var markets []domain.Market
		for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
			markets = append(markets, categoryMarket(id, "Will candidate "+id+" win?", "politics"))
		}
		assert.Equal(t, domain.ClusterCorrelated, DetectClusterType(markets))
	})

	t.Run("mixed categories are correlated", func(t *testing.T) {
		markets := []domain.Market{
			categoryMarket("a", "Will Smith win?", "politics"),
			categoryMarket("b", "Will it rain tomorrow?", "weather"),
		}
		assert.Equal(t, domain.ClusterCorrelated, DetectClusterType(markets))
	})
}

func TestSharesQuestionPrefix(t *testing.T) {
	t.Run("short questions never share a prefix", func(t *testing.T) {
		markets := []domain.Market{
			categoryMarket("a", "BTC up?", "crypto"),
			categoryMarket("b", "BTC up?", "crypto"),
		}
		assert.False(t, sharesQuestionPrefix(markets, 3))
	})

	t.Run("whitespace is normalized", func(t *testing.T) {
		markets := []domain.Market{
			categoryMarket("a", "Will  BTC close above 100k?", "crypto"),
			categoryMarket("b", "Will BTC close above 200k?", "crypto"),
		}
		assert.True(t, sharesQuestionPrefix(markets, 3))
	})
}
