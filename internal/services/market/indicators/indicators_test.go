package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeUptrend(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 50000 + float64(i)*100
	}

	ctx, err := Compute(closes)
	require.NoError(t, err)

	require.True(t, ctx.EMA20.GreaterThan(ctx.EMA50), "short EMA leads long EMA in a steady uptrend")
	rsi := ctx.RSI14.InexactFloat64()
	require.Greater(t, rsi, 50.0, "rsi above 50 in an uptrend")
	require.LessOrEqual(t, rsi, 100.0)
}

func TestComputeDowntrend(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 70000 - float64(i)*100
	}

	ctx, err := Compute(closes)
	require.NoError(t, err)

	require.True(t, ctx.EMA50.GreaterThan(ctx.EMA20))
	require.Less(t, ctx.RSI14.InexactFloat64(), 50.0)
}

func TestComputeOscillatingSeriesStaysBounded(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 60000 + 500*math.Sin(float64(i)/5)
	}

	ctx, err := Compute(closes)
	require.NoError(t, err)

	rsi := ctx.RSI14.InexactFloat64()
	require.GreaterOrEqual(t, rsi, 0.0)
	require.LessOrEqual(t, rsi, 100.0)
}

func TestComputeRejectsShortSeries(t *testing.T) {
	_, err := Compute(make([]float64, 10))
	require.Error(t, err)
}
