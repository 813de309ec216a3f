package features

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/soulSw0rd/business-reporting/internal/domain"
)

func TestCanonicalSchemaColumns(t *testing.T) {
	schema := CanonicalSchema()
	require.Equal(t, []string{
		"pnl_24h", "pnl_7d", "pnl_30d", "long_percentage_numeric",
		"btc_price", "fear_greed_index", "funding_rate",
	}, schema.Names())
}

func TestFromSnapshotFullRow(t *testing.T) {
	price := decimal.NewFromInt(64000)
	fg := 72
	funding := decimal.NewFromFloat(0.0001)

	snap := domain.Snapshot{
		PnL24h:         decimal.NewFromInt(500),
		PnL7d:          decimal.NewFromInt(1200),
		PnL30d:         decimal.NewFromInt(-300),
		LongPercentage: decimal.NewFromFloat(61.5),
		BTCPrice:       &price,
		FearGreedIndex: &fg,
		FundingRateBTC: &funding,
	}

	vec := NewBuilder().FromSnapshot(snap)
	require.Equal(t, []float64{500, 1200, -300, 61.5, 64000, 72, 0.0001}, vec)
}

func TestFromSnapshotMissingMarketUsesDefaults(t *testing.T) {
	vec := NewBuilder().FromSnapshot(domain.Snapshot{
		PnL7d: decimal.NewFromInt(100),
	})

	require.Equal(t, 100.0, vec[1])
	require.Equal(t, 0.0, vec[4], "missing btc price defaults to zero")
	require.Equal(t, 50.0, vec[5], "missing fear and greed defaults to neutral")
	require.Equal(t, 0.0, vec[6], "missing funding defaults to zero")
}

func TestFromInputsParsesRawStrings(t *testing.T) {
	price := decimal.NewFromInt(64000)
	market := domain.MarketContext{
		BTCPrice:     &price,
		FundingRates: map[string]decimal.Decimal{domain.FundingSymbolBTC: decimal.NewFromFloat(0.0002)},
	}

	vec := NewBuilder().FromInputs(domain.TraderMetrics{
		PnL24h:         "$1.2K",
		PnL7d:          "garbage",
		PnL30d:         "-$2M",
		LongPercentage: "58%",
	}, market)

	require.Equal(t, 1200.0, vec[0])
	require.Equal(t, 0.0, vec[1], "unparseable metrics coerce to zero")
	require.Equal(t, -2000000.0, vec[2])
	require.Equal(t, 58.0, vec[3])
	require.Equal(t, 64000.0, vec[4])
	require.Equal(t, 50.0, vec[5])
	require.Equal(t, 0.0002, vec[6])
}

func TestValidate(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Validate(b.Schema().Names()))

	err := b.Validate([]string{"pnl_24h", "pnl_7d"})
	require.ErrorIs(t, err, ErrSchemaMismatch)

	reordered := []string{
		"pnl_7d", "pnl_24h", "pnl_30d", "long_percentage_numeric",
		"btc_price", "fear_greed_index", "funding_rate",
	}
	require.ErrorIs(t, b.Validate(reordered), ErrSchemaMismatch, "column order matters")
}
