package sentiment

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soulSw0rd/business-reporting/internal/domain"
)

type stubPrice struct {
	name  string
	price decimal.Decimal
	err   error
}

func (s stubPrice) Name() string { return s.name }
func (s stubPrice) BTCPrice(context.Context) (decimal.Decimal, error) {
	return s.price, s.err
}

type stubFearGreed struct {
	value int
	err   error
}

func (s stubFearGreed) Name() string                        { return "fear_and_greed" }
func (s stubFearGreed) Value(context.Context) (int, error)  { return s.value, s.err }

type stubFunding struct {
	name string
	rate decimal.Decimal
	err  error
}

func (s stubFunding) Name() string { return s.name }
func (s stubFunding) FundingRate(context.Context, string) (decimal.Decimal, error) {
	return s.rate, s.err
}

func TestCollectAllSourcesHealthy(t *testing.T) {
	a := NewAggregator(
		[]PriceSource{stubPrice{name: "coingecko", price: decimal.NewFromInt(64000)}},
		stubFearGreed{value: 71},
		[]FundingSource{stubFunding{name: "binance_funding", rate: decimal.NewFromFloat(0.0001)}},
		nil, nil, zap.NewNop())

	got := a.Collect(context.Background())

	require.NotNil(t, got.BTCPrice)
	require.True(t, decimal.NewFromInt(64000).Equal(*got.BTCPrice))
	require.NotNil(t, got.FearGreedIndex)
	require.Equal(t, 71, *got.FearGreedIndex)
	rate, ok := got.FundingRate(domain.FundingSymbolBTC)
	require.True(t, ok)
	require.True(t, decimal.NewFromFloat(0.0001).Equal(rate))
	require.Empty(t, got.Errors)
}

func TestCollectFallsBackToSecondaryPrice(t *testing.T) {
	a := NewAggregator(
		[]PriceSource{
			stubPrice{name: "coingecko", err: errors.New("rate limited")},
			stubPrice{name: "hyperliquid", price: decimal.NewFromInt(63950)},
		},
		stubFearGreed{value: 50},
		nil, nil, nil, zap.NewNop())

	got := a.Collect(context.Background())

	require.NotNil(t, got.BTCPrice)
	require.True(t, decimal.NewFromInt(63950).Equal(*got.BTCPrice))
	require.NotContains(t, got.Errors, "btc_price")
}

func TestCollectDegradesPerSource(t *testing.T) {
	a := NewAggregator(
		[]PriceSource{stubPrice{name: "coingecko", err: errors.New("timeout")}},
		stubFearGreed{err: errors.New("http 503")},
		[]FundingSource{stubFunding{name: "binance_funding", rate: decimal.NewFromFloat(0.0002)}},
		nil, nil, zap.NewNop())

	got := a.Collect(context.Background())

	require.Nil(t, got.BTCPrice, "failed price source leaves the field nil")
	require.Nil(t, got.FearGreedIndex)
	_, ok := got.FundingRate(domain.FundingSymbolBTC)
	require.True(t, ok, "healthy sources still deliver")
	require.Contains(t, got.Errors, "btc_price")
	require.Contains(t, got.Errors, "fear_and_greed")
}

func TestCollectNoSourcesStillReturnsContext(t *testing.T) {
	a := NewAggregator(nil, nil, nil, nil, nil, zap.NewNop())

	got := a.Collect(context.Background())

	require.Nil(t, got.BTCPrice)
	require.Nil(t, got.FearGreedIndex)
	require.Contains(t, got.Errors, "btc_price")
	require.Contains(t, got.Errors, "funding_"+domain.FundingSymbolBTC)
	require.False(t, got.CollectedAt.IsZero())
}
