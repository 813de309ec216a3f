package labeler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soulSw0rd/business-reporting/internal/domain"
	"github.com/soulSw0rd/business-reporting/internal/storage/snapshots"
)

var testAddrs = []string{
	"0xaaaa000000000000000000000000000000000001",
	"0xaaaa000000000000000000000000000000000002",
	"0xaaaa000000000000000000000000000000000003",
}

func newResolver(t *testing.T) (*Resolver, *snapshots.WALStore, *time.Time) {
	t.Helper()
	store, err := snapshots.NewWALStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	r := NewResolver(store, zap.NewNop())
	r.now = func() time.Time { return now }
	return r, store, &now
}

func appendBatch(t *testing.T, store *snapshots.WALStore, at time.Time, pnl7d ...string) {
	t.Helper()
	records := make([]domain.TraderMetrics, len(pnl7d))
	for i, v := range pnl7d {
		records[i] = domain.TraderMetrics{Address: testAddrs[i], PnL7d: v}
	}
	_, err := store.Append(records, domain.MarketContext{}, at)
	require.NoError(t, err)
}

func TestResolveLabelsFromFutureWindow(t *testing.T) {
	r, store, now := newResolver(t)

	t0 := now.Add(-8 * 24 * time.Hour)
	appendBatch(t, store, t0, "1000", "-500", "2000")
	appendBatch(t, store, t0.Add(7*24*time.Hour), "1500", "-100", "2500")

	n, err := r.Resolve(7)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	wantProfitable := []bool{true, false, true}
	for i, addr := range testAddrs {
		snap, ok := store.Get(domain.SnapshotKey{TraderAddress: addr, Timestamp: t0})
		require.True(t, ok)
		require.NotNil(t, snap.Label7d, "trader %s", addr)
		require.Equal(t, wantProfitable[i], snap.Label7d.Profitable, "trader %s", addr)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	r, store, now := newResolver(t)

	t0 := now.Add(-8 * 24 * time.Hour)
	appendBatch(t, store, t0, "1000")
	appendBatch(t, store, t0.Add(7*24*time.Hour), "1500")

	n, err := r.Resolve(7)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = r.Resolve(7)
	require.NoError(t, err)
	require.Equal(t, 0, n, "already resolved rows are not candidates again")
}

func TestResolveSkipsRowsWithoutFutureData(t *testing.T) {
	r, store, now := newResolver(t)

	appendBatch(t, store, now.Add(-8*24*time.Hour), "1000")

	n, err := r.Resolve(7)
	require.NoError(t, err)
	require.Equal(t, 0, n, "no future observation means the row stays pending")

	pendingCount, _ := store.LabelCounts(7)
	require.Equal(t, 1, pendingCount)
}

func TestResolveIgnoresTooRecentRows(t *testing.T) {
	r, store, now := newResolver(t)

	t0 := now.Add(-3 * 24 * time.Hour)
	appendBatch(t, store, t0, "1000")

	n, err := r.Resolve(7)
	require.NoError(t, err)
	require.Equal(t, 0, n, "rows younger than the horizon are never labeled early")
}

func TestResolveUses30dPnlForLongHorizon(t *testing.T) {
	r, store, now := newResolver(t)

	t0 := now.Add(-31 * 24 * time.Hour)
	_, err := store.Append([]domain.TraderMetrics{
		{Address: testAddrs[0], PnL7d: "5000", PnL30d: "-100"},
	}, domain.MarketContext{}, t0)
	require.NoError(t, err)
	_, err = store.Append([]domain.TraderMetrics{
		{Address: testAddrs[0], PnL7d: "5000", PnL30d: "-100"},
	}, domain.MarketContext{}, t0.Add(30*24*time.Hour))
	require.NoError(t, err)

	n, err := r.Resolve(30)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	snap, ok := store.Get(domain.SnapshotKey{TraderAddress: testAddrs[0], Timestamp: t0})
	require.True(t, ok)
	require.NotNil(t, snap.Label30d)
	require.False(t, snap.Label30d.Profitable, "the 30d horizon reads pnl_30d, not pnl_7d")
	require.Nil(t, snap.Label7d)
}

func TestResolveEmptyStore(t *testing.T) {
	r, _, _ := newResolver(t)

	n, err := r.Resolve(7)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
