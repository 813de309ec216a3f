// Package indicators derives the BTC trend block attached to the market
// context. It uses the cinar/indicator library to compute EMA and RSI over
// hourly closes fetched from Binance spot klines.
package indicators

import (
	"context"
	"strconv"

	"github.com/adshao/go-binance/v2"
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/soulSw0rd/business-reporting/internal/domain"
)

const (
	klineSymbol   = "BTCUSDT"
	klineInterval = "1h"
	klineLimit    = 100

	emaShortPeriod = 20
	emaLongPeriod  = 50
	rsiPeriod      = 14
)

// BinanceTrend computes the BTC trend from Binance spot klines. Public
// endpoint, no API keys needed.
type BinanceTrend struct {
	client *binance.Client
}

func NewBinanceTrend() *BinanceTrend {
	return &BinanceTrend{client: binance.NewClient("", "")}
}

func (b *BinanceTrend) Name() string { return "binance_trend" }

// BTCTrend fetches recent hourly closes and returns the latest indicator
// values.
func (b *BinanceTrend) BTCTrend(ctx context.Context) (domain.TrendContext, error) {
	klines, err := b.client.NewKlinesService().
		Symbol(klineSymbol).
		Interval(klineInterval).
		Limit(klineLimit).
		Do(ctx)
	if err != nil {
		return domain.TrendContext{}, errors.Wrap(err, "fetch BTC klines")
	}

	closes := make([]float64, 0, len(klines))
	for _, k := range klines {
		v, err := strconv.ParseFloat(k.Close, 64)
		if err != nil {
			return domain.TrendContext{}, errors.Wrapf(err, "parse close %q", k.Close)
		}
		closes = append(closes, v)
	}

	return Compute(closes)
}

// Compute derives EMA20, EMA50 and RSI14 from a series of closes and returns
// the most recent value of each.
func Compute(closes []float64) (domain.TrendContext, error) {
	if len(closes) < emaLongPeriod+1 {
		return domain.TrendContext{}, errors.Errorf("not enough closes: need %d, got %d", emaLongPeriod+1, len(closes))
	}

	emaShort := lastValue(helper.ChanToSlice(trend.NewEmaWithPeriod[float64](emaShortPeriod).Compute(helper.SliceToChan(closes))))
	emaLong := lastValue(helper.ChanToSlice(trend.NewEmaWithPeriod[float64](emaLongPeriod).Compute(helper.SliceToChan(closes))))
	rsi := lastValue(helper.ChanToSlice(momentum.NewRsiWithPeriod[float64](rsiPeriod).Compute(helper.SliceToChan(closes))))

	return domain.TrendContext{
		EMA20: decimal.NewFromFloat(emaShort),
		EMA50: decimal.NewFromFloat(emaLong),
		RSI14: decimal.NewFromFloat(rsi),
	}, nil
}

func lastValue(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}
