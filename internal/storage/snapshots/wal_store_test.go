package snapshots

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/soulSw0rd/business-reporting/internal/domain"
)

const (
	addrA = "0x1111111111111111111111111111111111111111"
	addrB = "0x2222222222222222222222222222222222222222"
)

func newTestStore(t *testing.T) *WALStore {
	t.Helper()
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testMarket() domain.MarketContext {
	price := decimal.NewFromInt(65000)
	fg := 71
	return domain.MarketContext{
		CollectedAt:    time.Now().UTC(),
		BTCPrice:       &price,
		FearGreedIndex: &fg,
		FundingRates:   map[string]decimal.Decimal{domain.FundingSymbolBTC: decimal.NewFromFloat(0.0001)},
	}
}

func TestAppendAndReadBack(t *testing.T) {
	store := newTestStore(t)
	at := time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC)

	n, err := store.Append([]domain.TraderMetrics{
		{Address: addrA, PnL24h: "$500", PnL7d: "$1.2K", PnL30d: "-$2M", PnLTotal: "$3.4M", LongPercentage: "61.5%"},
	}, testMarket(), at)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	snap, ok := store.Get(domain.SnapshotKey{TraderAddress: addrA, Timestamp: at})
	require.True(t, ok)
	require.True(t, decimal.NewFromInt(500).Equal(snap.PnL24h))
	require.True(t, decimal.NewFromInt(1200).Equal(snap.PnL7d))
	require.True(t, decimal.NewFromInt(-2000000).Equal(snap.PnL30d))
	require.True(t, decimal.NewFromFloat(61.5).Equal(snap.LongPercentage))
	require.NotNil(t, snap.BTCPrice)
	require.True(t, decimal.NewFromInt(65000).Equal(*snap.BTCPrice))
	require.NotNil(t, snap.FearGreedIndex)
	require.Equal(t, 71, *snap.FearGreedIndex)
	require.NotNil(t, snap.FundingRateBTC)
	require.Nil(t, snap.Label7d)
	require.Nil(t, snap.Label30d)
}

func TestAppendUpsertsOnCompositeKey(t *testing.T) {
	store := newTestStore(t)
	at := time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC)
	batch := []domain.TraderMetrics{{Address: addrA, PnL7d: "1000"}}

	_, err := store.Append(batch, testMarket(), at)
	require.NoError(t, err)
	_, err = store.Append(batch, testMarket(), at)
	require.NoError(t, err)

	require.Equal(t, 1, store.Count(), "re-appending the same composite key must overwrite, not duplicate")
}

func TestAppendSkipsMalformedAddresses(t *testing.T) {
	store := newTestStore(t)

	n, err := store.Append([]domain.TraderMetrics{
		{Address: "not-an-address", PnL7d: "100"},
		{Address: "", PnL7d: "100"},
		{Address: addrA, PnL7d: "100"},
		{Address: addrB, PnL7d: "garbage"}, // malformed metric coerces, record survives
	}, testMarket(), time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 2, n, "bad rows are skipped, the rest of the batch is written")

	snap, ok := store.LatestByTrader(addrB)
	require.True(t, ok)
	require.True(t, snap.PnL7d.IsZero())
}

func TestAppendWithMissingMarketContext(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Append([]domain.TraderMetrics{{Address: addrA, PnL7d: "100"}},
		domain.MarketContext{Errors: map[string]string{"coingecko": "timeout"}}, time.Now().UTC())
	require.NoError(t, err)

	snap, ok := store.LatestByTrader(addrA)
	require.True(t, ok)
	require.Nil(t, snap.BTCPrice)
	require.Nil(t, snap.FearGreedIndex)
	require.Nil(t, snap.FundingRateBTC)
}

func TestResolveLabelWriteOnce(t *testing.T) {
	store := newTestStore(t)
	at := time.Date(2026, 7, 1, 6, 0, 0, 0, time.UTC)

	_, err := store.Append([]domain.TraderMetrics{{Address: addrA, PnL7d: "100"}}, testMarket(), at)
	require.NoError(t, err)

	key := domain.SnapshotKey{TraderAddress: addrA, Timestamp: at}
	require.NoError(t, store.ResolveLabel(key, 7, decimal.NewFromInt(1500)))

	snap, ok := store.Get(key)
	require.True(t, ok)
	require.NotNil(t, snap.Label7d)
	require.Equal(t, domain.LabelResolved, snap.Label7d.State)
	require.True(t, snap.Label7d.Profitable)
	require.Nil(t, snap.Label30d, "resolving 7d must not touch the 30d label")

	err = store.ResolveLabel(key, 7, decimal.NewFromInt(-1))
	require.ErrorIs(t, err, ErrLabelResolved)

	require.NoError(t, store.ResolveLabel(key, 30, decimal.NewFromInt(-50)))
	snap, _ = store.Get(key)
	require.NotNil(t, snap.Label30d)
	require.False(t, snap.Label30d.Profitable)
}

func TestResolveLabelZeroPnlIsNotProfitable(t *testing.T) {
	store := newTestStore(t)
	at := time.Now().UTC()
	_, err := store.Append([]domain.TraderMetrics{{Address: addrA}}, testMarket(), at)
	require.NoError(t, err)

	key := domain.SnapshotKey{TraderAddress: addrA, Timestamp: at}
	require.NoError(t, store.ResolveLabel(key, 7, decimal.Zero))

	snap, _ := store.Get(key)
	require.False(t, snap.Label7d.Profitable, "profitability is strictly positive pnl")
}

func TestResolveLabelErrors(t *testing.T) {
	store := newTestStore(t)

	err := store.ResolveLabel(domain.SnapshotKey{TraderAddress: addrA, Timestamp: time.Now()}, 7, decimal.Zero)
	require.ErrorIs(t, err, ErrNotFound)

	at := time.Now().UTC()
	_, err = store.Append([]domain.TraderMetrics{{Address: addrA}}, testMarket(), at)
	require.NoError(t, err)

	err = store.ResolveLabel(domain.SnapshotKey{TraderAddress: addrA, Timestamp: at}, 9, decimal.Zero)
	require.ErrorIs(t, err, ErrBadHorizon)
}

func TestPendingAndLabeledQueries(t *testing.T) {
	store := newTestStore(t)
	t0 := time.Date(2026, 7, 1, 6, 0, 0, 0, time.UTC)
	t1 := t0.Add(7 * 24 * time.Hour)

	_, err := store.Append([]domain.TraderMetrics{{Address: addrA}, {Address: addrB}}, testMarket(), t0)
	require.NoError(t, err)
	_, err = store.Append([]domain.TraderMetrics{{Address: addrA}}, testMarket(), t1)
	require.NoError(t, err)

	pending := store.Pending(7, t0)
	require.Len(t, pending, 2, "only rows at or before the cutoff are pending candidates")
	require.Equal(t, addrA, pending[0].TraderAddress)
	require.Equal(t, addrB, pending[1].TraderAddress)

	require.NoError(t, store.ResolveLabel(domain.SnapshotKey{TraderAddress: addrA, Timestamp: t0}, 7, decimal.NewFromInt(10)))

	require.Len(t, store.Pending(7, t0), 1)
	labeled := store.Labeled(7)
	require.Len(t, labeled, 1)
	require.Equal(t, addrA, labeled[0].TraderAddress)

	pendingCount, resolvedCount := store.LabelCounts(7)
	require.Equal(t, 2, pendingCount)
	require.Equal(t, 1, resolvedCount)
}

func TestTraderSnapshotInWindowIsHalfOpen(t *testing.T) {
	store := newTestStore(t)
	t0 := time.Date(2026, 7, 1, 6, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{0, 24 * time.Hour, 48 * time.Hour} {
		_, err := store.Append([]domain.TraderMetrics{{Address: addrA}}, testMarket(), t0.Add(offset))
		require.NoError(t, err)
	}

	snap, ok := store.TraderSnapshotInWindow(addrA, t0.Add(24*time.Hour), t0.Add(48*time.Hour))
	require.True(t, ok)
	require.True(t, snap.Timestamp.Equal(t0.Add(24*time.Hour)))

	_, ok = store.TraderSnapshotInWindow(addrA, t0.Add(72*time.Hour), t0.Add(96*time.Hour))
	require.False(t, ok)

	_, ok = store.TraderSnapshotInWindow(addrB, t0, t0.Add(72*time.Hour))
	require.False(t, ok)
}

func TestReplayRestoresRowsAndLabels(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 7, 1, 6, 0, 0, 0, time.UTC)

	store, err := NewWALStore(dir)
	require.NoError(t, err)

	_, err = store.Append([]domain.TraderMetrics{{Address: addrA, PnL7d: "$1.5K"}}, testMarket(), at)
	require.NoError(t, err)
	key := domain.SnapshotKey{TraderAddress: addrA, Timestamp: at}
	require.NoError(t, store.ResolveLabel(key, 7, decimal.NewFromInt(900)))
	require.NoError(t, store.Close())

	reopened, err := NewWALStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	snap, ok := reopened.Get(key)
	require.True(t, ok)
	require.True(t, decimal.NewFromInt(1500).Equal(snap.PnL7d))
	require.NotNil(t, snap.Label7d)
	require.True(t, snap.Label7d.Profitable)

	err = reopened.ResolveLabel(key, 7, decimal.NewFromInt(-1))
	require.ErrorIs(t, err, ErrLabelResolved, "write-once survives restart")
}
