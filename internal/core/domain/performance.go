package domain

// AdsetPerformance is the per-adset report row fetched from the external
// data platform. Monetary values are cents; ROAS and CPA are derived and
// zero when undefined (no spend, no conversions).
type AdsetPerformance struct {
	AdsetID     string  `json:"adset_id"`
	CreativeID  string  `json:"creative_id,omitempty"`
	DailyBudget int64   `json:"daily_budget"`
	Spend       int64   `json:"spend"`
	Revenue     int64   `json:"revenue"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	ROAS        float64 `json:"roas"`
	CPA         float64 `json:"cpa"` // cents per conversion
	DaysRunning int     `json:"days_running"`
}

// Metric returns the named metric value for rule evaluation. Unknown
// metrics return (0, false).
func (p AdsetPerformance) Metric(name string) (float64, bool) {
	switch name {
	case "roas":
		return p.ROAS, true
	case "cpa":
		return p.CPA, true
	case "ctr":
		if p.Impressions == 0 {
			return 0, true
		}
		return float64(p.Clicks) / float64(p.Impressions), true
	case "spend":
		return float64(p.Spend), true
	case "revenue":
		return float64(p.Revenue), true
	case "conversions":
		return float64(p.Conversions), true
	case "impressions":
		return float64(p.Impressions), true
	default:
		return 0, false
	}
}

// Report is the response of the data platform's get_reports tool.
type Report struct {
	CampaignID string             `json:"campaign_id"`
	Adsets     []AdsetPerformance `json:"adsets"`
}
