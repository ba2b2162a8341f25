package domain

import "time"

// MinConversionsPerVariant gates A/B analysis: until every variant has at
// least this many conversions no statistical test is run.
const MinConversionsPerVariant = 100

// ABTest is a creative split test. Each creative gets its own adset funded
// with an equal share of the daily budget. The test references but does not
// own the adsets it created.
type ABTest struct {
	ID           string
	CampaignID   string
	CreativeIDs  []string
	AdsetIDs     []string
	DailyBudget  int64
	DurationDays int
	Status       ABTestStatus
	Winner       string
	CreatedAt    time.Time
}

type ABTestStatus string

const (
	ABTestRunning   ABTestStatus = "running"
	ABTestCompleted ABTestStatus = "completed"
	ABTestCancelled ABTestStatus = "cancelled"
)

// SplitBudget divides total cents across n variants. The division is exact:
// any remainder cents go to the first variants one at a time, so the shares
// always sum to total.
func SplitBudget(total int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	share := total / int64(n)
	rem := total - share*int64(n)
	out := make([]int64, n)
	for i := range out {
		out[i] = share
		if int64(i) < rem {
			out[i]++
		}
	}
	return out
}

// VariantResult is the per-creative outcome reported by analyze_ab_test.
// Results are ranked by ROAS descending, independent of the statistical
// winner.
type VariantResult struct {
	CreativeID     string  `json:"creative_id"`
	AdsetID        string  `json:"adset_id"`
	Impressions    int64   `json:"impressions"`
	Conversions    int64   `json:"conversions"`
	Spend          int64   `json:"spend"`
	Revenue        int64   `json:"revenue"`
	ConversionRate float64 `json:"conversion_rate"`
	ROAS           float64 `json:"roas"`
}
