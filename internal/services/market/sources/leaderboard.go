package sources

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/soulSw0rd/business-reporting/internal/domain"
	"github.com/soulSw0rd/business-reporting/internal/numeric"
)

const leaderboardBaseURL = "https://stats-data.hyperliquid.xyz"

// HyperliquidLeaderboard fetches top trader performance from the Hyperliquid
// public stats API. Window pnl values arrive as strings and are passed
// through raw; the snapshot store owns numeric coercion.
type HyperliquidLeaderboard struct {
	baseURL string
	limit   int
}

func NewHyperliquidLeaderboard(limit int) *HyperliquidLeaderboard {
	if limit <= 0 {
		limit = 50
	}
	return &HyperliquidLeaderboard{baseURL: leaderboardBaseURL, limit: limit}
}

func (h *HyperliquidLeaderboard) Name() string { return "hyperliquid_leaderboard" }

// windowEntry is one element of a ["day", {"pnl": ...}] tuple; the API mixes
// a string window name and a performance object in the same array.
type windowEntry struct {
	Window string
	Perf   struct {
		Pnl string `json:"pnl"`
	}
}

func (w *windowEntry) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &w.Window)
	}
	return json.Unmarshal(data, &w.Perf)
}

// TopTraders returns the best traders by 30-day pnl, most profitable first.
func (h *HyperliquidLeaderboard) TopTraders(ctx context.Context) ([]domain.TraderMetrics, error) {
	var payload struct {
		LeaderboardRows []struct {
			EthAddress         string          `json:"ethAddress"`
			WindowPerformances [][]windowEntry `json:"windowPerformances"`
		} `json:"leaderboardRows"`
	}
	if err := getJSON(ctx, h.baseURL+"/Mainnet/leaderboard", &payload); err != nil {
		return nil, errors.Wrap(err, "fetch hyperliquid leaderboard")
	}
	if len(payload.LeaderboardRows) == 0 {
		return nil, errors.New("leaderboard is empty")
	}

	out := make([]domain.TraderMetrics, 0, len(payload.LeaderboardRows))
	for _, row := range payload.LeaderboardRows {
		metrics := domain.TraderMetrics{Address: row.EthAddress}
		for _, pair := range row.WindowPerformances {
			if len(pair) != 2 {
				continue
			}
			switch pair[0].Window {
			case "day":
				metrics.PnL24h = pair[1].Perf.Pnl
			case "week":
				metrics.PnL7d = pair[1].Perf.Pnl
			case "month":
				metrics.PnL30d = pair[1].Perf.Pnl
			case "allTime":
				metrics.PnLTotal = pair[1].Perf.Pnl
			}
		}
		out = append(out, metrics)
	}

	sort.SliceStable(out, func(a, b int) bool {
		return numeric.ParseMetric(out[a].PnL30d).GreaterThan(numeric.ParseMetric(out[b].PnL30d))
	})
	if len(out) > h.limit {
		out = out[:h.limit]
	}
	return out, nil
}
