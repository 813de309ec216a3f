package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LabelState tracks the lifecycle of a snapshot's future-profitability label.
// A snapshot is created PENDING and transitions to RESOLVED exactly once per
// horizon, when enough time has passed to look the outcome up. A snapshot with
// no future data ever collected stays PENDING; that is a legitimate state.
type LabelState string

const (
	LabelPending  LabelState = "PENDING"
	LabelResolved LabelState = "RESOLVED"
)

// HorizonLabel is the resolved outcome for one prediction horizon.
type HorizonLabel struct {
	State      LabelState      `json:"state"`
	Profitable bool            `json:"profitable"`
	FuturePnl  decimal.Decimal `json:"future_pnl"`
	ResolvedAt time.Time       `json:"resolved_at"`
}

// SnapshotKey is the composite identity of a snapshot row. The same trader
// appears once per collection pass; re-inserting the same key overwrites.
type SnapshotKey struct {
	TraderAddress string
	Timestamp     time.Time
}

func (k SnapshotKey) String() string {
	return fmt.Sprintf("%s|%s", k.TraderAddress, k.Timestamp.UTC().Format(time.RFC3339Nano))
}

// Snapshot is one recorded observation of a trader's metrics plus the market
// context at collection time. Trader metrics are parse-coerced to numbers at
// append time; market fields are nil when the corresponding source failed.
type Snapshot struct {
	TraderAddress string    `json:"trader_address"`
	Timestamp     time.Time `json:"timestamp"`

	PnL24h         decimal.Decimal `json:"pnl_24h"`
	PnL7d          decimal.Decimal `json:"pnl_7d"`
	PnL30d         decimal.Decimal `json:"pnl_30d"`
	PnLTotal       decimal.Decimal `json:"pnl_total"`
	LongPercentage decimal.Decimal `json:"long_percentage"`

	BTCPrice       *decimal.Decimal `json:"btc_price,omitempty"`
	FearGreedIndex *int             `json:"fear_greed_index,omitempty"`
	FundingRateBTC *decimal.Decimal `json:"funding_rate_btc,omitempty"`

	Label7d  *HorizonLabel `json:"label_7d,omitempty"`
	Label30d *HorizonLabel `json:"label_30d,omitempty"`
}

// Key returns the composite identity of the snapshot.
func (s Snapshot) Key() SnapshotKey {
	return SnapshotKey{TraderAddress: s.TraderAddress, Timestamp: s.Timestamp}
}

// Label returns the label for the given horizon, or nil while it is pending.
func (s Snapshot) Label(horizonDays int) *HorizonLabel {
	if horizonDays == 30 {
		return s.Label30d
	}
	return s.Label7d
}

// LabelResolvedFor reports whether the horizon's label has been written.
func (s Snapshot) LabelResolvedFor(horizonDays int) bool {
	l := s.Label(horizonDays)
	return l != nil && l.State == LabelResolved
}

// PnLForHorizon returns the metric used as ground truth for the horizon:
// pnl_30d for the 30-day horizon, pnl_7d otherwise.
func (s Snapshot) PnLForHorizon(horizonDays int) decimal.Decimal {
	if horizonDays == 30 {
		return s.PnL30d
	}
	return s.PnL7d
}
