// Package sentiment assembles the market context attached to every snapshot
// batch. Sources are queried concurrently with individual timeouts; a failed
// source leaves its field nil and records the reason, it never fails the
// collection pass. Price and funding each try an ordered list of providers so
// one flaky API does not blind the whole feature.
package sentiment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/soulSw0rd/business-reporting/internal/domain"
)

const sourceTimeout = 15 * time.Second

// PriceSource delivers the BTC spot price.
type PriceSource interface {
	Name() string
	BTCPrice(ctx context.Context) (decimal.Decimal, error)
}

// FearGreedSource delivers the 0..100 Fear & Greed index.
type FearGreedSource interface {
	Name() string
	Value(ctx context.Context) (int, error)
}

// FundingSource delivers a perpetual funding rate for a symbol.
type FundingSource interface {
	Name() string
	FundingRate(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// TrendSource delivers the BTC technical trend block.
type TrendSource interface {
	Name() string
	BTCTrend(ctx context.Context) (domain.TrendContext, error)
}

// Aggregator fans out to the configured sources and merges the results.
type Aggregator struct {
	prices         []PriceSource
	fearGreed      FearGreedSource
	funding        []FundingSource
	trend          TrendSource
	fundingSymbols []string
	logger         *zap.Logger
}

func NewAggregator(prices []PriceSource, fearGreed FearGreedSource, funding []FundingSource,
	trend TrendSource, fundingSymbols []string, logger *zap.Logger) *Aggregator {
	if len(fundingSymbols) == 0 {
		fundingSymbols = []string{domain.FundingSymbolBTC}
	}
	return &Aggregator{
		prices:         prices,
		fearGreed:      fearGreed,
		funding:        funding,
		trend:          trend,
		fundingSymbols: fundingSymbols,
		logger:         logger,
	}
}

// Collect gathers the current market context. It always returns a usable
// context; inspect the Errors map to see which sources were degraded.
func (a *Aggregator) Collect(ctx context.Context) domain.MarketContext {
	out := domain.MarketContext{
		CollectedAt:  time.Now().UTC(),
		FundingRates: make(map[string]decimal.Decimal),
		Errors:       make(map[string]string),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	fail := func(source, reason string) {
		mu.Lock()
		out.Errors[source] = reason
		mu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		price, source, err := a.btcPrice(ctx)
		if err != nil {
			fail("btc_price", err.Error())
			return
		}
		mu.Lock()
		out.BTCPrice = &price
		mu.Unlock()
		a.logger.Debug("btc price collected", zap.String("source", source), zap.String("price", price.String()))
	}()

	if a.fearGreed != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, sourceTimeout)
			defer cancel()

			value, err := a.fearGreed.Value(callCtx)
			if err != nil {
				fail(a.fearGreed.Name(), err.Error())
				return
			}
			mu.Lock()
			out.FearGreedIndex = &value
			mu.Unlock()
		}()
	}

	for _, symbol := range a.fundingSymbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			rate, source, err := a.fundingRate(ctx, symbol)
			if err != nil {
				fail("funding_"+symbol, err.Error())
				return
			}
			mu.Lock()
			out.FundingRates[symbol] = rate
			mu.Unlock()
			a.logger.Debug("funding rate collected",
				zap.String("symbol", symbol), zap.String("source", source))
		}(symbol)
	}

	if a.trend != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, sourceTimeout)
			defer cancel()

			trend, err := a.trend.BTCTrend(callCtx)
			if err != nil {
				fail(a.trend.Name(), err.Error())
				return
			}
			mu.Lock()
			out.TrendBTC = &trend
			mu.Unlock()
		}()
	}

	wg.Wait()

	if len(out.Errors) > 0 {
		a.logger.Warn("market context degraded", zap.Any("source_errors", out.Errors))
	}
	return out
}

// btcPrice walks the price providers in order and returns the first success.
func (a *Aggregator) btcPrice(ctx context.Context) (decimal.Decimal, string, error) {
	var lastErr error
	for _, src := range a.prices {
		callCtx, cancel := context.WithTimeout(ctx, sourceTimeout)
		price, err := src.BTCPrice(callCtx)
		cancel()
		if err == nil {
			return price, src.Name(), nil
		}
		lastErr = fmt.Errorf("%s: %w", src.Name(), err)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no price sources configured")
	}
	return decimal.Zero, "", lastErr
}

func (a *Aggregator) fundingRate(ctx context.Context, symbol string) (decimal.Decimal, string, error) {
	var lastErr error
	for _, src := range a.funding {
		callCtx, cancel := context.WithTimeout(ctx, sourceTimeout)
		rate, err := src.FundingRate(callCtx, symbol)
		cancel()
		if err == nil {
			return rate, src.Name(), nil
		}
		lastErr = fmt.Errorf("%s: %w", src.Name(), err)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no funding sources configured")
	}
	return decimal.Zero, "", lastErr
}
