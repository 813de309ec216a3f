package domain

// TraderMetrics is one raw trader record as delivered by a collector. Values
// arrive as scraped strings ("$1.2M", "-45.3%", "1,234.5") and any field may
// be empty; parsing happens when the record enters the snapshot store.
type TraderMetrics struct {
	Address        string `json:"address"`
	PnL24h         string `json:"pnl_24h"`
	PnL7d          string `json:"pnl_7d"`
	PnL30d         string `json:"pnl_30d"`
	PnLTotal       string `json:"pnl_total"`
	LongPercentage string `json:"long_percentage"`
}
