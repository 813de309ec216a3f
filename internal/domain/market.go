package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundingSymbolBTC is the perpetual contract whose funding rate feeds the
// model features.
const FundingSymbolBTC = "BTCUSDT"

// TrendContext carries advisory BTC trend indicators for the dashboard.
// These are never model features.
type TrendContext struct {
	EMA20 decimal.Decimal `json:"ema20"`
	EMA50 decimal.Decimal `json:"ema50"`
	RSI14 decimal.Decimal `json:"rsi14"`
}

// MarketContext is the merged output of the market sentiment aggregator.
// Each field is nil/absent when every source for it failed; Errors records
// the failure reason per source so partial results stay diagnosable. The
// same context is attached to every trader snapshot of a collection pass.
type MarketContext struct {
	CollectedAt    time.Time                  `json:"collected_at"`
	BTCPrice       *decimal.Decimal           `json:"btc_price,omitempty"`
	FearGreedIndex *int                       `json:"fear_greed_index,omitempty"`
	FundingRates   map[string]decimal.Decimal `json:"funding_rates,omitempty"`
	TrendBTC       *TrendContext              `json:"trend_btc,omitempty"`
	Errors         map[string]string          `json:"errors,omitempty"`
}

// FundingRate returns the funding rate collected for the symbol, if any.
func (m MarketContext) FundingRate(symbol string) (decimal.Decimal, bool) {
	rate, ok := m.FundingRates[symbol]
	return rate, ok
}
