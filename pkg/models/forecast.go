package models

// Trend is the direction a forecast expects a price to move.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// ForecastRecord is a short-term price projection. Forecasts have no
// persistent identity and are recomputed on demand.
type ForecastRecord struct {
	CommodityID   string   `json:"commodity_id"`
	CommodityName string   `json:"commodity_name"`
	NextWeek      float64  `json:"next_week"`
	NextMonth     float64  `json:"next_month"`
	Trend         Trend    `json:"trend"`
	Confidence    int      `json:"confidence"` // 0-100
	Factors       []string `json:"factors"`
}
