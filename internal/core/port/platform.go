package port

import (
	"context"

	"adpilot/internal/core/domain"
)

// Platform is the uniform capability interface over the heterogeneous ad
// network APIs. All three implementations (meta, tiktok, google) return the
// same normalized shapes and map vendor failures to the shared error
// taxonomy before returning, so callers never branch on vendor specifics.
// Every call is already wrapped with retry, timeout and rate limiting by
// the implementation.
type Platform interface {
	// Name returns the platform key ("meta", "tiktok", "google").
	Name() string
	// CreateCampaign creates a campaign shell and returns its vendor id.
	CreateCampaign(ctx context.Context, p CampaignParams) (*CampaignResult, error)
	// CreateAdset creates a targeting/budget unit under a campaign.
	CreateAdset(ctx context.Context, p AdsetParams) (*AdsetResult, error)
	// CreateAd attaches one creative with copy to an adset.
	CreateAd(ctx context.Context, p AdParams) (*AdResult, error)
	// UpdateBudget changes an adset's daily budget (cents).
	UpdateBudget(ctx context.Context, adsetID string, dailyBudget int64) (*BudgetResult, error)
	// PauseAdset stops delivery for an adset.
	PauseAdset(ctx context.Context, adsetID string) (*StatusResult, error)
	// UpdateCampaignStatus applies a pause/start/delete transition.
	UpdateCampaignStatus(ctx context.Context, campaignID string, status domain.CampaignStatus) (*StatusResult, error)
}

type CampaignParams struct {
	Name        string
	Objective   string
	DailyBudget int64
}

type CampaignResult struct {
	ID   string
	Name string
}

type AdsetParams struct {
	CampaignID  string
	Name        string
	DailyBudget int64
	Targeting   domain.Targeting
	BidStrategy string
	Placement   string
}

type AdsetResult struct {
	ID          string
	CampaignID  string
	DailyBudget int64
}

type AdParams struct {
	AdsetID    string
	Name       string
	CreativeID string
	Copy       string
}

type AdResult struct {
	ID         string
	CreativeID string
}

type BudgetResult struct {
	Status    string
	NewBudget int64
}

type StatusResult struct {
	Status    string
	NewStatus string
}

// PlatformRegistry resolves a platform key to its adapter. Unknown keys
// yield a terminal unsupported_platform error.
type PlatformRegistry interface {
	Get(name string) (Platform, error)
}
