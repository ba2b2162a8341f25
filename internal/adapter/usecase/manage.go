package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"adpilot/internal/core/domain"
)

// ManageResult is the success payload of manage_campaign.
type ManageResult struct {
	CampaignID string `json:"campaign_id"`
	NewStatus  string `json:"new_status"`
}

func (e *Engine) handleManageCampaign(ctx context.Context, p params, cc domain.CallContext) (any, error) {
	campaignID, err := p.str("campaign_id")
	if err != nil {
		return nil, err
	}
	action, err := p.str("action")
	if err != nil {
		return nil, err
	}
	return e.ManageCampaign(ctx, campaignID, action, cc)
}

// ManageCampaign applies a pause/start/delete transition on the platform,
// records it on the snapshot and syncs it to the data platform. Deletion
// is soft: it marks status only.
func (e *Engine) ManageCampaign(ctx context.Context, campaignID, action string, cc domain.CallContext) (*ManageResult, error) {
	status := domain.ManagementAction(action)
	if status == "" {
		return nil, domain.NewValidationError(fmt.Sprintf("action must be pause, start or delete, got %q", action))
	}

	snapshot, err := e.store.GetCampaignSnapshot(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	vendor, err := e.platforms.Get(snapshot.Campaign.Platform)
	if err != nil {
		return nil, err
	}

	if _, err := vendor.UpdateCampaignStatus(ctx, campaignID, status); err != nil {
		return nil, err
	}
	if err := e.store.UpdateCampaignStatus(ctx, campaignID, status); err != nil {
		e.logger.Warn("snapshot status update failed",
			slog.String("campaign_id", campaignID),
			slog.Any("error", err))
	}
	if err := e.sync.UpdateCampaign(ctx, cc, campaignID, map[string]any{"status": string(status)}); err != nil {
		return nil, domain.AsEngineError(err).WithDetails(map[string]any{
			"campaign_id":      campaignID,
			"platform_updated": true,
			"new_status":       string(status),
		})
	}
	if err := e.cache.Invalidate(ctx, statusCacheKey(campaignID)); err != nil {
		e.logger.Warn("cache invalidation failed", slog.Any("error", err))
	}

	return &ManageResult{CampaignID: campaignID, NewStatus: string(status)}, nil
}
