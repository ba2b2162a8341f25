package usecase

import (
	"context"
	"encoding/json"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

// CampaignStatusResult is the success payload of get_campaign_status.
// Stale is set when the live fetch failed and a cached snapshot was served
// instead.
type CampaignStatusResult struct {
	Campaign domain.Campaign `json:"campaign"`
	Adsets   []AdsetStatus   `json:"adsets"`
	Stale    bool            `json:"stale,omitempty"`
}

// AdsetStatus pairs an adset with its latest performance, when available.
type AdsetStatus struct {
	Adset       domain.Adset             `json:"adset"`
	Performance *domain.AdsetPerformance `json:"performance,omitempty"`
}

func (e *Engine) handleGetCampaignStatus(ctx context.Context, p params, _ domain.CallContext) (any, error) {
	campaignID, err := p.str("campaign_id")
	if err != nil {
		return nil, err
	}
	return e.GetCampaignStatus(ctx, campaignID)
}

func statusCacheKey(campaignID string) string {
	return "campaign_status:" + campaignID
}

// GetCampaignStatus reads the campaign structure with fresh performance
// data, served through the cache: a failed live fetch falls back to the
// last cached value, marked stale, and errors surface only when nothing
// was ever cached.
func (e *Engine) GetCampaignStatus(ctx context.Context, campaignID string) (*CampaignStatusResult, error) {
	fetch := func(ctx context.Context) ([]byte, error) {
		snapshot, err := e.store.GetCampaignSnapshot(ctx, campaignID)
		if err != nil {
			return nil, err
		}
		report, err := e.sync.GetReports(ctx, port.ReportsQuery{CampaignID: campaignID, TimeRange: "today"})
		if err != nil {
			return nil, err
		}

		byAdset := make(map[string]domain.AdsetPerformance, len(report.Adsets))
		for _, perf := range report.Adsets {
			byAdset[perf.AdsetID] = perf
		}
		result := CampaignStatusResult{Campaign: snapshot.Campaign}
		for _, adset := range snapshot.Adsets {
			entry := AdsetStatus{Adset: adset}
			if perf, ok := byAdset[adset.ID]; ok {
				entry.Performance = &perf
			}
			result.Adsets = append(result.Adsets, entry)
		}
		return json.Marshal(result)
	}

	payload, stale, err := e.cache.GetOrFetch(ctx, statusCacheKey(campaignID), e.cfg.CacheTTL, fetch)
	if err != nil {
		return nil, domain.AsEngineError(err)
	}
	var result CampaignStatusResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, domain.AsEngineError(err)
	}
	result.Stale = stale
	return &result, nil
}
