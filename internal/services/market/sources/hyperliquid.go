package sources

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"
)

// HyperliquidPrice reads the BTC mid price from the Hyperliquid public Info
// API, as a fallback when CoinGecko is unavailable. Mids are keyed by base
// coin ("BTC"), not by pair symbol.
type HyperliquidPrice struct {
	info *hyperliquid.Info
}

func NewHyperliquidPrice(info *hyperliquid.Info) *HyperliquidPrice {
	return &HyperliquidPrice{info: info}
}

func (h *HyperliquidPrice) Name() string { return "hyperliquid" }

func (h *HyperliquidPrice) BTCPrice(ctx context.Context) (decimal.Decimal, error) {
	if h.info == nil {
		return decimal.Zero, errors.New("hyperliquid info client is nil")
	}

	mids, err := h.info.AllMids(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	mid, ok := mids["BTC"]
	if !ok || mid == "" {
		return decimal.Zero, errors.New("hyperliquid returned no BTC mid price")
	}
	return decimal.NewFromString(mid)
}
