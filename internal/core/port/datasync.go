package port

import (
	"context"

	"adpilot/internal/core/domain"
)

// DataSync is the outbound port to the external data platform. The engine
// does not own long-term storage of canonical business records: structures
// are pushed through this tool interface and performance metrics are read
// back from it.
type DataSync interface {
	// CreateCampaign persists a freshly built campaign structure.
	CreateCampaign(ctx context.Context, cc domain.CallContext, structure domain.CampaignStructure) error
	// UpdateCampaign patches fields (status, budget) of a stored campaign.
	UpdateCampaign(ctx context.Context, cc domain.CallContext, campaignID string, fields map[string]any) error
	// GetReports fetches per-adset performance for a campaign.
	GetReports(ctx context.Context, q ReportsQuery) (*domain.Report, error)
}

// ReportsQuery selects the report rows to fetch. AdsetIDs narrows the
// report to specific adsets (used for A/B variants and rule targets);
// TimeRange is a platform-understood range token such as "last_7d".
type ReportsQuery struct {
	CampaignID string
	AdsetIDs   []string
	TimeRange  string
}
