package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

func questionMarket(id, question string) domain.Market {
	return domain.Market{ID: id, Question: question}
}

func TestExtractThresholds(t *testing.T) {
	tests := []struct {
		name     string
		question string
		operator string
		value    float64
	}{
		{"above with currency", "Will BTC close above $100,000 in 2026?", ">", 100000},
		{"over keyword", "Will turnout be over 60 million?", ">", 60e6},
		{"greater than", "Will the index be greater than 5,000?", ">", 5000},
		{"exceeds", "Will revenue exceed $2.5b this year?", ">", 2.5e9},
		{"below keyword", "Will inflation stay below 3.5?", "<", 3.5},
		{"under with suffix", "Will the cap fall under 900k?", "<", 900000},
		{"less than", "Will unemployment be less than 5?", "<", 5},
		{"symbol form gt", "Will ETH trade > $4k by March?", ">", 4000},
		{"symbol form lt", "Will gas settle < 20?", "<", 20},
		{"first clause wins", "Will BTC go above 100k before dropping below 50k?", ">", 100000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractThresholds([]domain.Market{questionMarket("m1", tt.question)})
			require.Len(t, got, 1)
			assert.Equal(t, "m1", got[0].MarketID)
			assert.Equal(t, tt.operator, got[0].Operator)
			assert.InDelta(t, tt.value, got[0].Value, 1e-9)
		})
	}

	t.Run("non matching markets are omitted", func(t *testing.T) {
		got := ExtractThresholds([]domain.Market{
			questionMarket("m1", "Will BTC close above $100k?"),
			questionMarket("m2", "Will the incumbent win?"),
			questionMarket("m3", "Will ETH drop under 2k?"),
		})
		require.Len(t, got, 2)
		assert.Equal(t, "m1", got[0].MarketID)
		assert.Equal(t, "m3", got[1].MarketID)
	})

	t.Run("empty input yields empty non nil slice", func(t *testing.T) {
		got := ExtractThresholds(nil)
		require.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestNormalizeOperator(t *testing.T) {
	assert.Equal(t, ">", normalizeOperator("Above"))
	assert.Equal(t, ">", normalizeOperator("greater  than"))
	assert.Equal(t, ">", normalizeOperator("exceeds"))
	assert.Equal(t, ">", normalizeOperator(">"))
	assert.Equal(t, "<", normalizeOperator("below"))
	assert.Equal(t, "<", normalizeOperator("Less Than"))
	assert.Equal(t, "<", normalizeOperator("<"))
}
