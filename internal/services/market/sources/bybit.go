package sources

import (
	"context"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// BybitFunding reads perpetual funding rates from Bybit linear tickers. It
// backs up the Binance source when that one is down or geo-blocked.
type BybitFunding struct {
	client *bybit.Client
}

func NewBybitFunding(client *bybit.Client) *BybitFunding {
	return &BybitFunding{client: client}
}

func (b *BybitFunding) Name() string { return "bybit_funding" }

func (b *BybitFunding) FundingRate(_ context.Context, symbol string) (decimal.Decimal, error) {
	sym := bybit.SymbolV5(symbol)

	result, err := b.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "linear",
		Symbol:   &sym,
	})
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "bybit tickers for %s", symbol)
	}
	if len(result.Result.LinearInverse.List) == 0 {
		return decimal.Zero, errors.Errorf("bybit returned no linear ticker for %s", symbol)
	}
	return decimal.NewFromString(result.Result.LinearInverse.List[0].FundingRate)
}
