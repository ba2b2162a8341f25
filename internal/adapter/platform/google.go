package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"adpilot/internal/config/configs"
	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
	"adpilot/internal/retry"
)

// Google implements port.Platform against the Google Ads REST API. Google
// names resources hierarchically ("customers/{id}/campaigns/{id}") and
// reports budgets in micros; both are normalized away here.
type Google struct {
	c          vendorClient
	customerID string
}

// NewGoogle builds the Google Ads adapter.
func NewGoogle(cfg configs.Platform, exec *retry.Executor, logger *slog.Logger) *Google {
	g := &Google{customerID: cfg.AccountID}
	g.c = vendorClient{
		platform: "google",
		baseURL:  cfg.BaseURL,
		http:     &http.Client{},
		limiter:  newLimiter(cfg.RateLimit, cfg.RateBurst),
		exec:     exec,
		logger:   logger,
		authorize: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+cfg.AccessToken)
		},
		mapError: mapGoogleError,
	}
	return g
}

func (g *Google) Name() string { return "google" }

// centsToMicros converts integer cents to Google's micro units.
func centsToMicros(cents int64) int64 { return cents * 10_000 }

func microsToCents(micros int64) int64 { return micros / 10_000 }

func (g *Google) CreateCampaign(ctx context.Context, p port.CampaignParams) (*port.CampaignResult, error) {
	req := map[string]any{
		"name":                   p.Name,
		"advertisingChannelType": googleObjective(p.Objective),
		"campaignBudget":         map[string]int64{"amountMicros": centsToMicros(p.DailyBudget)},
		"status":                 "PAUSED",
	}
	var resp struct {
		ResourceName string `json:"resourceName"`
		ID           string `json:"id"`
		Name         string `json:"name"`
	}
	path := fmt.Sprintf("/customers/%s/campaigns", g.customerID)
	if err := g.c.call(ctx, "create_campaign", http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &port.CampaignResult{ID: resp.ID, Name: resp.Name}, nil
}

func (g *Google) CreateAdset(ctx context.Context, p port.AdsetParams) (*port.AdsetResult, error) {
	req := map[string]any{
		"campaign":     p.CampaignID,
		"name":         p.Name,
		"amountMicros": centsToMicros(p.DailyBudget),
		"criteria": map[string]any{
			"ageRange":  map[string]int{"min": p.Targeting.AgeMin, "max": p.Targeting.AgeMax},
			"locations": p.Targeting.Countries,
		},
		"biddingStrategyType": googleBidStrategy(p.BidStrategy),
	}
	var resp struct {
		ID           string `json:"id"`
		Campaign     string `json:"campaign"`
		AmountMicros int64  `json:"amountMicros"`
	}
	path := fmt.Sprintf("/customers/%s/adGroups", g.customerID)
	if err := g.c.call(ctx, "create_adset", http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &port.AdsetResult{ID: resp.ID, CampaignID: resp.Campaign, DailyBudget: microsToCents(resp.AmountMicros)}, nil
}

func (g *Google) CreateAd(ctx context.Context, p port.AdParams) (*port.AdResult, error) {
	req := map[string]any{
		"adGroup": p.AdsetID,
		"ad": map[string]any{
			"name":        p.Name,
			"assetId":     p.CreativeID,
			"description": p.Copy,
		},
	}
	var resp struct {
		ID string `json:"id"`
		Ad struct {
			AssetID string `json:"assetId"`
		} `json:"ad"`
	}
	path := fmt.Sprintf("/customers/%s/adGroupAds", g.customerID)
	if err := g.c.call(ctx, "create_ad", http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &port.AdResult{ID: resp.ID, CreativeID: resp.Ad.AssetID}, nil
}

func (g *Google) UpdateBudget(ctx context.Context, adsetID string, dailyBudget int64) (*port.BudgetResult, error) {
	req := map[string]any{"amountMicros": centsToMicros(dailyBudget)}
	var resp struct {
		AmountMicros int64 `json:"amountMicros"`
	}
	path := fmt.Sprintf("/customers/%s/adGroups/%s", g.customerID, adsetID)
	if err := g.c.call(ctx, "update_budget", http.MethodPatch, path, req, &resp); err != nil {
		return nil, err
	}
	return &port.BudgetResult{Status: "updated", NewBudget: microsToCents(resp.AmountMicros)}, nil
}

func (g *Google) PauseAdset(ctx context.Context, adsetID string) (*port.StatusResult, error) {
	req := map[string]string{"status": "PAUSED"}
	path := fmt.Sprintf("/customers/%s/adGroups/%s", g.customerID, adsetID)
	if err := g.c.call(ctx, "pause_adset", http.MethodPatch, path, req, nil); err != nil {
		return nil, err
	}
	return &port.StatusResult{Status: "updated", NewStatus: "paused"}, nil
}

func (g *Google) UpdateCampaignStatus(ctx context.Context, campaignID string, status domain.CampaignStatus) (*port.StatusResult, error) {
	req := map[string]string{"status": googleCampaignStatus(status)}
	path := fmt.Sprintf("/customers/%s/campaigns/%s", g.customerID, campaignID)
	if err := g.c.call(ctx, "update_campaign_status", http.MethodPatch, path, req, nil); err != nil {
		return nil, err
	}
	return &port.StatusResult{Status: "updated", NewStatus: string(status)}, nil
}

func googleObjective(objective string) string {
	switch objective {
	case "conversions", "sales":
		return "PERFORMANCE_MAX"
	case "traffic":
		return "SEARCH"
	default:
		return "DISPLAY"
	}
}

func googleBidStrategy(s string) string {
	if s == "" {
		return "MAXIMIZE_CONVERSIONS"
	}
	return s
}

func googleCampaignStatus(s domain.CampaignStatus) string {
	switch s {
	case domain.CampaignActive:
		return "ENABLED"
	case domain.CampaignDeleted:
		return "REMOVED"
	default:
		return "PAUSED"
	}
}

// mapGoogleError translates googleapis status strings into the taxonomy.
func mapGoogleError(status int, body []byte) *domain.Error {
	var payload struct {
		Error struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)

	switch payload.Error.Status {
	case "UNAUTHENTICATED":
		return domain.NewPlatformError(domain.CodeTokenExpired, "google access token expired")
	case "RESOURCE_EXHAUSTED":
		return domain.NewPlatformError(domain.CodeRateLimitExceeded, "google rate limit exceeded")
	case "UNAVAILABLE":
		return domain.NewPlatformError(domain.CodeServiceUnavailable, "google ads service unavailable")
	case "FAILED_PRECONDITION":
		return domain.NewPlatformError(domain.CodeBudgetInsufficient, payload.Error.Message)
	case "INVALID_ARGUMENT":
		return domain.NewPlatformError(domain.CodeCreativeRejected, payload.Error.Message)
	}
	if status == http.StatusTooManyRequests {
		return domain.NewPlatformError(domain.CodeRateLimitExceeded, "google rate limit exceeded")
	}
	if status >= 500 {
		return domain.NewPlatformError(domain.CodeServiceUnavailable, "google ads service unavailable")
	}
	return domain.NewPlatformError(domain.CodeServiceUnavailable, fmt.Sprintf("google error: %s", payload.Error.Message)).
		WithDetails(map[string]any{"http_status": status, "vendor_status": payload.Error.Status})
}
