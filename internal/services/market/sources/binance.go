package sources

import (
	"context"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// BinanceFunding reads perpetual funding rates from the Binance futures
// premium index endpoint. Public data, no API keys needed.
type BinanceFunding struct {
	client *futures.Client
}

func NewBinanceFunding() *BinanceFunding {
	return &BinanceFunding{client: futures.NewClient("", "")}
}

func (b *BinanceFunding) Name() string { return "binance_funding" }

func (b *BinanceFunding) FundingRate(ctx context.Context, symbol string) (decimal.Decimal, error) {
	rows, err := b.client.NewPremiumIndexService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "binance premium index for %s", symbol)
	}
	if len(rows) == 0 {
		return decimal.Zero, errors.Errorf("binance returned no premium index for %s", symbol)
	}
	return decimal.NewFromString(rows[0].LastFundingRate)
}
