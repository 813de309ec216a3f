// Package labeler resolves the delayed ground-truth labels. A snapshot taken
// at time T for horizon H is labeled from the trader's own snapshot taken in
// the window [T+H, T+H+24h): if that future row's horizon pnl is strictly
// positive, the trader was profitable. Rows with no future observation stay
// pending and are retried on the next pass.
package labeler

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/soulSw0rd/business-reporting/internal/domain"
)

const labelWindow = 24 * time.Hour

// SnapshotStore is the slice of the snapshot store the resolver needs.
type SnapshotStore interface {
	Pending(horizonDays int, cutoff time.Time) []domain.Snapshot
	TraderSnapshotInWindow(address string, from, to time.Time) (domain.Snapshot, bool)
	ResolveLabel(key domain.SnapshotKey, horizonDays int, futurePnl decimal.Decimal) error
}

// Resolver sweeps pending snapshots and writes resolved labels.
type Resolver struct {
	store  SnapshotStore
	logger *zap.Logger
	now    func() time.Time
}

func NewResolver(store SnapshotStore, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, logger: logger, now: time.Now}
}

// Resolve labels every pending snapshot old enough for the horizon and
// returns how many labels were written. A missing future observation is
// normal and skipped silently; a store write failure aborts the sweep.
func (r *Resolver) Resolve(horizonDays int) (int, error) {
	horizon := time.Duration(horizonDays) * 24 * time.Hour
	cutoff := r.now().UTC().Add(-horizon)

	pending := r.store.Pending(horizonDays, cutoff)
	resolved := 0
	for _, snap := range pending {
		from := snap.Timestamp.Add(horizon)
		future, ok := r.store.TraderSnapshotInWindow(snap.TraderAddress, from, from.Add(labelWindow))
		if !ok {
			continue
		}

		futurePnl := future.PnLForHorizon(horizonDays)
		if err := r.store.ResolveLabel(snap.Key(), horizonDays, futurePnl); err != nil {
			return resolved, errors.Wrapf(err, "resolve label for %s", snap.Key())
		}
		resolved++
	}

	r.logger.Info("label resolution pass finished",
		zap.Int("horizon_days", horizonDays),
		zap.Int("candidates", len(pending)),
		zap.Int("resolved", resolved))

	return resolved, nil
}
