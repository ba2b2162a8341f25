package domain

import "time"

// Campaign represents an advertising campaign on one of the supported ad
// platforms. Budgets are stored in integer units (cents).
type Campaign struct {
	ID          string
	Name        string
	Objective   string
	DailyBudget int64
	Status      CampaignStatus
	Platform    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CampaignStatus enumerates the campaign lifecycle states. Transitions
// happen only through an explicit management action; deletion is soft and
// marks status only.
type CampaignStatus string

const (
	CampaignDraft   CampaignStatus = "draft"
	CampaignActive  CampaignStatus = "active"
	CampaignPaused  CampaignStatus = "paused"
	CampaignDeleted CampaignStatus = "deleted"
)

// ManagementAction maps a manage_campaign action to the resulting status.
// Unknown actions return "" and should be rejected by the caller.
func ManagementAction(action string) CampaignStatus {
	switch action {
	case "pause":
		return CampaignPaused
	case "start":
		return CampaignActive
	case "delete":
		return CampaignDeleted
	default:
		return ""
	}
}

// Adset is a targeting and budget unit beneath a campaign. At creation time
// the campaign's daily budget is split evenly across adsets, so the sum of
// adset budgets equals the campaign budget.
type Adset struct {
	ID          string
	CampaignID  string
	Name        string
	DailyBudget int64
	Targeting   Targeting
	BidStrategy string
	Placement   string
	Status      string
}

// Targeting describes which audience an adset is delivered to.
type Targeting struct {
	AgeMin    int      `json:"age_min"`
	AgeMax    int      `json:"age_max"`
	Countries []string `json:"countries"`
}

// AgeSegment is one of the fixed age bands campaigns are partitioned into.
type AgeSegment struct {
	Min int
	Max int
}

// AgeSegments are the targeting segments used when building a campaign
// structure. One adset is created per segment with an equal budget share.
var AgeSegments = []AgeSegment{
	{Min: 18, Max: 35},
	{Min: 36, Max: 50},
	{Min: 51, Max: 65},
}

// Ad links exactly one creative to an adset. Copy is never empty: when AI
// generation fails a deterministic template string is substituted.
type Ad struct {
	ID         string
	AdsetID    string
	CreativeID string
	Copy       string
	Status     string
}

// CampaignStructure is the full campaign/adset/ad tree produced by
// create_campaign. It is synced to the external data platform and kept as a
// local snapshot for status reads and rule targeting.
type CampaignStructure struct {
	Campaign Campaign `json:"campaign"`
	Adsets   []Adset  `json:"adsets"`
	Ads      []Ad     `json:"ads"`
}

// CallContext identifies the caller of an engine action. It is supplied by
// the orchestration layer and carried through to logs and sync payloads.
type CallContext struct {
	UserID    string
	SessionID string
	RequestID string
}
