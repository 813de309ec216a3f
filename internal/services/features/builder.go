// Package features turns snapshots into the numeric vectors the models
// consume. The column set is versioned; trainer and predictor both pin the
// schema carried inside the model metadata, never the package default alone.
package features

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/soulSw0rd/business-reporting/internal/domain"
	"github.com/soulSw0rd/business-reporting/internal/numeric"
)

// ErrSchemaMismatch reports that a model artifact was trained against a
// different column set than the one this binary builds.
var ErrSchemaMismatch = errors.New("feature schema mismatch")

const (
	colPnl24h         = "pnl_24h"
	colPnl7d          = "pnl_7d"
	colPnl30d         = "pnl_30d"
	colLongPercentage = "long_percentage_numeric"
	colBTCPrice       = "btc_price"
	colFearGreed      = "fear_greed_index"
	colFundingRate    = "funding_rate"
)

// neutralFearGreed substitutes for a missing index reading; 50 is the middle
// of the 0..100 scale.
const neutralFearGreed = 50

// CanonicalSchema returns the current feature column set.
func CanonicalSchema() domain.FeatureSchema {
	return domain.FeatureSchema{
		Version: "v1",
		Columns: []domain.FeatureColumn{
			{Name: colPnl24h, Default: 0},
			{Name: colPnl7d, Default: 0},
			{Name: colPnl30d, Default: 0},
			{Name: colLongPercentage, Default: 0},
			{Name: colBTCPrice, Default: 0},
			{Name: colFearGreed, Default: neutralFearGreed},
			{Name: colFundingRate, Default: 0},
		},
	}
}

// Builder assembles feature vectors for one schema.
type Builder struct {
	schema domain.FeatureSchema
}

func NewBuilder() *Builder {
	return &Builder{schema: CanonicalSchema()}
}

// Schema returns the builder's column set.
func (b *Builder) Schema() domain.FeatureSchema {
	return b.schema
}

// Validate checks a persisted model's column list against this builder.
func (b *Builder) Validate(columns []string) error {
	if !b.schema.Matches(columns) {
		return errors.Wrapf(ErrSchemaMismatch, "model columns %v, builder columns %v",
			columns, b.schema.Names())
	}
	return nil
}

// FromSnapshot builds the vector for a stored row. Market fields that were
// nil at collection time take the column default.
func (b *Builder) FromSnapshot(snap domain.Snapshot) []float64 {
	out := make([]float64, len(b.schema.Columns))
	for i, col := range b.schema.Columns {
		out[i] = col.Default
		switch col.Name {
		case colPnl24h:
			out[i] = snap.PnL24h.InexactFloat64()
		case colPnl7d:
			out[i] = snap.PnL7d.InexactFloat64()
		case colPnl30d:
			out[i] = snap.PnL30d.InexactFloat64()
		case colLongPercentage:
			out[i] = snap.LongPercentage.InexactFloat64()
		case colBTCPrice:
			if snap.BTCPrice != nil {
				out[i] = snap.BTCPrice.InexactFloat64()
			}
		case colFearGreed:
			if snap.FearGreedIndex != nil {
				out[i] = float64(*snap.FearGreedIndex)
			}
		case colFundingRate:
			if snap.FundingRateBTC != nil {
				out[i] = snap.FundingRateBTC.InexactFloat64()
			}
		}
	}
	return out
}

// FromInputs builds a vector straight from raw scraped metrics and a live
// market context, for ad-hoc predictions on traders not yet in the store.
func (b *Builder) FromInputs(metrics domain.TraderMetrics, market domain.MarketContext) []float64 {
	snap := domain.Snapshot{
		TraderAddress:  strings.TrimSpace(metrics.Address),
		PnL24h:         numeric.ParseMetric(metrics.PnL24h),
		PnL7d:          numeric.ParseMetric(metrics.PnL7d),
		PnL30d:         numeric.ParseMetric(metrics.PnL30d),
		PnLTotal:       numeric.ParseMetric(metrics.PnLTotal),
		LongPercentage: numeric.ParseMetric(metrics.LongPercentage),
		BTCPrice:       market.BTCPrice,
		FearGreedIndex: market.FearGreedIndex,
	}
	if rate, ok := market.FundingRate(domain.FundingSymbolBTC); ok {
		snap.FundingRateBTC = &rate
	}
	return b.FromSnapshot(snap)
}
