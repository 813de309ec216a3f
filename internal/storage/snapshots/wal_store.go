// Package snapshots persists the trader snapshot history in a WAL. Rows are
// keyed by (trader_address, timestamp); appending the same key again
// overwrites the row on replay, so the log realizes upsert semantics while
// staying append-only. Label resolution is written as a separate WAL event,
// which keeps the PENDING -> RESOLVED transition explicit and write-once.
package snapshots

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/gowal"

	"github.com/soulSw0rd/business-reporting/internal/domain"
	"github.com/soulSw0rd/business-reporting/internal/numeric"
)

const (
	DefaultDir   = "./wal/snapshots"
	segmentLimit = 10000
	maxSegments  = 1000

	snapshotKeyPrefix = "trader_snapshot_"
	labelKeyPrefix    = "label_"
)

var (
	// ErrLabelResolved rejects a second resolution of the same horizon.
	ErrLabelResolved = errors.New("label already resolved for this horizon")
	// ErrNotFound reports a missing composite key.
	ErrNotFound = errors.New("snapshot not found")
	// ErrBadHorizon rejects horizons the schema has no label column for.
	ErrBadHorizon = errors.New("unsupported horizon, want 7 or 30 days")
)

// WALStore is the durable snapshot store. All reads are served from an
// in-memory index rebuilt from the WAL at open.
type WALStore struct {
	wal   *gowal.Wal
	mu    sync.RWMutex
	byKey map[string]*domain.Snapshot
}

type labelEvent struct {
	TraderAddress string          `json:"trader_address"`
	Timestamp     time.Time       `json:"timestamp"`
	HorizonDays   int             `json:"horizon_days"`
	Profitable    bool            `json:"profitable"`
	FuturePnl     decimal.Decimal `json:"future_pnl"`
	ResolvedAt    time.Time       `json:"resolved_at"`
}

// NewWALStore opens (or creates) the snapshot WAL under dir and replays it.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "snapshot_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init snapshot WAL")
	}

	s := &WALStore{wal: wal, byKey: make(map[string]*domain.Snapshot)}
	if err := s.replay(); err != nil {
		_ = wal.Close()
		return nil, err
	}

	return s, nil
}

func (s *WALStore) replay() error {
	current := s.wal.CurrentIndex()
	for idx := uint64(1); idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(key, snapshotKeyPrefix):
			var snap domain.Snapshot
			if err := json.Unmarshal(payload, &snap); err != nil {
				return errors.Wrapf(err, "decode snapshot at WAL index %d", idx)
			}
			s.byKey[snap.Key().String()] = &snap
		case strings.HasPrefix(key, labelKeyPrefix):
			var ev labelEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				return errors.Wrapf(err, "decode label event at WAL index %d", idx)
			}
			s.applyLabel(ev)
		}
	}
	return nil
}

func (s *WALStore) applyLabel(ev labelEvent) {
	key := domain.SnapshotKey{TraderAddress: ev.TraderAddress, Timestamp: ev.Timestamp}
	snap, ok := s.byKey[key.String()]
	if !ok {
		return
	}

	label := &domain.HorizonLabel{
		State:      domain.LabelResolved,
		Profitable: ev.Profitable,
		FuturePnl:  ev.FuturePnl,
		ResolvedAt: ev.ResolvedAt,
	}
	if ev.HorizonDays == 30 {
		snap.Label30d = label
	} else {
		snap.Label7d = label
	}
}

// Append normalizes and upserts one collection batch. Every trader in the
// batch shares the timestamp and the market context of the collection pass.
// Records with invalid addresses are skipped so one bad row never sinks the
// batch; a WAL write failure is fatal and propagates immediately.
func (s *WALStore) Append(records []domain.TraderMetrics, market domain.MarketContext, at time.Time) (int, error) {
	if s == nil || s.wal == nil {
		return 0, errors.New("snapshot store is not initialized")
	}

	at = at.UTC()
	fundingBTC, hasFunding := market.FundingRate(domain.FundingSymbolBTC)

	s.mu.Lock()
	defer s.mu.Unlock()

	written := 0
	for _, rec := range records {
		addr := strings.TrimSpace(rec.Address)
		if addr == "" || !common.IsHexAddress(addr) {
			continue
		}

		snap := domain.Snapshot{
			TraderAddress:  addr,
			Timestamp:      at,
			PnL24h:         numeric.ParseMetric(rec.PnL24h),
			PnL7d:          numeric.ParseMetric(rec.PnL7d),
			PnL30d:         numeric.ParseMetric(rec.PnL30d),
			PnLTotal:       numeric.ParseMetric(rec.PnLTotal),
			LongPercentage: numeric.ParseMetric(rec.LongPercentage),
			BTCPrice:       market.BTCPrice,
			FearGreedIndex: market.FearGreedIndex,
		}
		if hasFunding {
			rate := fundingBTC
			snap.FundingRateBTC = &rate
		}

		payload, err := json.Marshal(snap)
		if err != nil {
			return written, errors.Wrapf(err, "marshal snapshot for %s", addr)
		}

		key := fmt.Sprintf("%s%s", snapshotKeyPrefix, snap.Key().String())
		nextIndex := s.wal.CurrentIndex() + 1
		if err := s.wal.Write(nextIndex, key, payload); err != nil {
			return written, errors.Wrapf(err, "persist snapshot for %s", addr)
		}

		s.byKey[snap.Key().String()] = &snap
		written++
	}

	return written, nil
}

// ResolveLabel performs the PENDING -> RESOLVED transition for one row and
// horizon. The label is write-once: a second call for the same horizon
// returns ErrLabelResolved. Profitability is a strict positivity test on the
// future pnl (no fee or cost adjustment; a deliberate simplification).
func (s *WALStore) ResolveLabel(key domain.SnapshotKey, horizonDays int, futurePnl decimal.Decimal) error {
	if s == nil || s.wal == nil {
		return errors.New("snapshot store is not initialized")
	}
	if horizonDays != 7 && horizonDays != 30 {
		return errors.Wrapf(ErrBadHorizon, "horizon %d", horizonDays)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.byKey[key.String()]
	if !ok {
		return errors.Wrapf(ErrNotFound, "key %s", key)
	}
	if snap.LabelResolvedFor(horizonDays) {
		return errors.Wrapf(ErrLabelResolved, "key %s horizon %dd", key, horizonDays)
	}

	ev := labelEvent{
		TraderAddress: snap.TraderAddress,
		Timestamp:     snap.Timestamp,
		HorizonDays:   horizonDays,
		Profitable:    futurePnl.GreaterThan(decimal.Zero),
		FuturePnl:     futurePnl,
		ResolvedAt:    time.Now().UTC(),
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal label event")
	}

	walKey := fmt.Sprintf("%s%s_%dd", labelKeyPrefix, key.String(), horizonDays)
	nextIndex := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(nextIndex, walKey, payload); err != nil {
		return errors.Wrap(err, "persist label event")
	}

	s.applyLabel(ev)
	return nil
}

// Get returns the row for the composite key.
func (s *WALStore) Get(key domain.SnapshotKey) (domain.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.byKey[key.String()]
	if !ok {
		return domain.Snapshot{}, false
	}
	return *snap, true
}

// Count returns the number of distinct (trader, timestamp) rows.
func (s *WALStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

// Pending returns rows whose horizon label is still unresolved and whose
// timestamp is at or before the cutoff, oldest first.
func (s *WALStore) Pending(horizonDays int, cutoff time.Time) []domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Snapshot
	for _, snap := range s.byKey {
		if snap.LabelResolvedFor(horizonDays) {
			continue
		}
		if snap.Timestamp.After(cutoff) {
			continue
		}
		out = append(out, *snap)
	}
	sortSnapshots(out)
	return out
}

// Labeled returns all rows whose horizon label is resolved, oldest first.
func (s *WALStore) Labeled(horizonDays int) []domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Snapshot
	for _, snap := range s.byKey {
		if snap.LabelResolvedFor(horizonDays) {
			out = append(out, *snap)
		}
	}
	sortSnapshots(out)
	return out
}

// TraderSnapshotInWindow returns the trader's earliest snapshot whose
// timestamp falls in the half-open window [from, to).
func (s *WALStore) TraderSnapshotInWindow(address string, from, to time.Time) (domain.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.Snapshot
	for _, snap := range s.byKey {
		if !strings.EqualFold(snap.TraderAddress, address) {
			continue
		}
		if snap.Timestamp.Before(from) || !snap.Timestamp.Before(to) {
			continue
		}
		if best == nil || snap.Timestamp.Before(best.Timestamp) {
			best = snap
		}
	}
	if best == nil {
		return domain.Snapshot{}, false
	}
	return *best, true
}

// LatestByTrader returns the trader's most recent snapshot.
func (s *WALStore) LatestByTrader(address string) (domain.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.Snapshot
	for _, snap := range s.byKey {
		if !strings.EqualFold(snap.TraderAddress, address) {
			continue
		}
		if best == nil || snap.Timestamp.After(best.Timestamp) {
			best = snap
		}
	}
	if best == nil {
		return domain.Snapshot{}, false
	}
	return *best, true
}

// LabelCounts reports how many rows are pending vs resolved for a horizon.
func (s *WALStore) LabelCounts(horizonDays int) (pending, resolved int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, snap := range s.byKey {
		if snap.LabelResolvedFor(horizonDays) {
			resolved++
		} else {
			pending++
		}
	}
	return pending, resolved
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("snapshot store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wal.Close()
}

func sortSnapshots(snaps []domain.Snapshot) {
	sort.Slice(snaps, func(a, b int) bool {
		if !snaps[a].Timestamp.Equal(snaps[b].Timestamp) {
			return snaps[a].Timestamp.Before(snaps[b].Timestamp)
		}
		return snaps[a].TraderAddress < snaps[b].TraderAddress
	})
}
