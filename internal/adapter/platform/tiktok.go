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

// TikTok implements port.Platform against the TikTok Business API. The
// vendor wraps every response in a {code, message, data} envelope and
// reports failures with code != 0 even on HTTP 200, so unwrapping happens
// here before normalization.
type TikTok struct {
	c            vendorClient
	advertiserID string
}

// NewTikTok builds the TikTok adapter.
func NewTikTok(cfg configs.Platform, exec *retry.Executor, logger *slog.Logger) *TikTok {
	t := &TikTok{advertiserID: cfg.AccountID}
	t.c = vendorClient{
		platform: "tiktok",
		baseURL:  cfg.BaseURL,
		http:     &http.Client{},
		limiter:  newLimiter(cfg.RateLimit, cfg.RateBurst),
		exec:     exec,
		logger:   logger,
		authorize: func(r *http.Request) {
			r.Header.Set("Access-Token", cfg.AccessToken)
		},
		mapError: mapTikTokError,
	}
	return t
}

func (t *TikTok) Name() string { return "tiktok" }

type tiktokEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// unwrap decodes the TikTok envelope and surfaces in-band errors.
func (t *TikTok) unwrap(env tiktokEnvelope, out any) error {
	if env.Code != 0 {
		return tiktokCodeError(env.Code, env.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return domain.NewPlatformError(domain.CodeServiceUnavailable, "decode tiktok data").WithCause(err)
	}
	return nil
}

func (t *TikTok) CreateCampaign(ctx context.Context, p port.CampaignParams) (*port.CampaignResult, error) {
	req := map[string]any{
		"advertiser_id":  t.advertiserID,
		"campaign_name":  p.Name,
		"objective_type": p.Objective,
		"budget":         p.DailyBudget,
		"budget_mode":    "BUDGET_MODE_DAY",
	}
	var env tiktokEnvelope
	if err := t.c.call(ctx, "create_campaign", http.MethodPost, "/campaign/create/", req, &env); err != nil {
		return nil, err
	}
	var data struct {
		CampaignID   string `json:"campaign_id"`
		CampaignName string `json:"campaign_name"`
	}
	if err := t.unwrap(env, &data); err != nil {
		return nil, err
	}
	return &port.CampaignResult{ID: data.CampaignID, Name: data.CampaignName}, nil
}

func (t *TikTok) CreateAdset(ctx context.Context, p port.AdsetParams) (*port.AdsetResult, error) {
	req := map[string]any{
		"advertiser_id": t.advertiserID,
		"campaign_id":   p.CampaignID,
		"adgroup_name":  p.Name,
		"budget":        p.DailyBudget,
		"budget_mode":   "BUDGET_MODE_DAY",
		"age_groups":    []int{p.Targeting.AgeMin, p.Targeting.AgeMax},
		"location_ids":  p.Targeting.Countries,
		"bid_type":      tiktokBidType(p.BidStrategy),
		"placement":     p.Placement,
	}
	var env tiktokEnvelope
	if err := t.c.call(ctx, "create_adset", http.MethodPost, "/adgroup/create/", req, &env); err != nil {
		return nil, err
	}
	var data struct {
		AdgroupID  string `json:"adgroup_id"`
		CampaignID string `json:"campaign_id"`
		Budget     int64  `json:"budget"`
	}
	if err := t.unwrap(env, &data); err != nil {
		return nil, err
	}
	return &port.AdsetResult{ID: data.AdgroupID, CampaignID: data.CampaignID, DailyBudget: data.Budget}, nil
}

func (t *TikTok) CreateAd(ctx context.Context, p port.AdParams) (*port.AdResult, error) {
	req := map[string]any{
		"advertiser_id": t.advertiserID,
		"adgroup_id":    p.AdsetID,
		"ad_name":       p.Name,
		"creative_id":   p.CreativeID,
		"ad_text":       p.Copy,
	}
	var env tiktokEnvelope
	if err := t.c.call(ctx, "create_ad", http.MethodPost, "/ad/create/", req, &env); err != nil {
		return nil, err
	}
	var data struct {
		AdID       string `json:"ad_id"`
		CreativeID string `json:"creative_id"`
	}
	if err := t.unwrap(env, &data); err != nil {
		return nil, err
	}
	return &port.AdResult{ID: data.AdID, CreativeID: data.CreativeID}, nil
}

func (t *TikTok) UpdateBudget(ctx context.Context, adsetID string, dailyBudget int64) (*port.BudgetResult, error) {
	req := map[string]any{
		"advertiser_id": t.advertiserID,
		"adgroup_id":    adsetID,
		"budget":        dailyBudget,
	}
	var env tiktokEnvelope
	if err := t.c.call(ctx, "update_budget", http.MethodPost, "/adgroup/budget/update/", req, &env); err != nil {
		return nil, err
	}
	var data struct {
		Budget int64 `json:"budget"`
	}
	if err := t.unwrap(env, &data); err != nil {
		return nil, err
	}
	return &port.BudgetResult{Status: "updated", NewBudget: data.Budget}, nil
}

func (t *TikTok) PauseAdset(ctx context.Context, adsetID string) (*port.StatusResult, error) {
	req := map[string]any{
		"advertiser_id": t.advertiserID,
		"adgroup_ids":   []string{adsetID},
		"operation":     "DISABLE",
	}
	var env tiktokEnvelope
	if err := t.c.call(ctx, "pause_adset", http.MethodPost, "/adgroup/status/update/", req, &env); err != nil {
		return nil, err
	}
	if err := t.unwrap(env, nil); err != nil {
		return nil, err
	}
	return &port.StatusResult{Status: "updated", NewStatus: "paused"}, nil
}

func (t *TikTok) UpdateCampaignStatus(ctx context.Context, campaignID string, status domain.CampaignStatus) (*port.StatusResult, error) {
	req := map[string]any{
		"advertiser_id": t.advertiserID,
		"campaign_ids":  []string{campaignID},
		"operation":     tiktokOperation(status),
	}
	var env tiktokEnvelope
	if err := t.c.call(ctx, "update_campaign_status", http.MethodPost, "/campaign/status/update/", req, &env); err != nil {
		return nil, err
	}
	if err := t.unwrap(env, nil); err != nil {
		return nil, err
	}
	return &port.StatusResult{Status: "updated", NewStatus: string(status)}, nil
}

func tiktokBidType(s string) string {
	if s == "" {
		return "BID_TYPE_NO_BID"
	}
	return s
}

func tiktokOperation(s domain.CampaignStatus) string {
	switch s {
	case domain.CampaignActive:
		return "ENABLE"
	case domain.CampaignDeleted:
		return "DELETE"
	default:
		return "DISABLE"
	}
}

func tiktokCodeError(code int, message string) *domain.Error {
	switch code {
	case 40105, 40102:
		return domain.NewPlatformError(domain.CodeTokenExpired, "tiktok access token expired")
	case 40100:
		return domain.NewPlatformError(domain.CodeRateLimitExceeded, "tiktok rate limit exceeded")
	case 40002:
		return domain.NewPlatformError(domain.CodeBudgetInsufficient, message)
	case 40003:
		return domain.NewPlatformError(domain.CodeCreativeRejected, message)
	case 50000:
		return domain.NewPlatformError(domain.CodeServiceUnavailable, "tiktok service unavailable")
	}
	return domain.NewPlatformError(domain.CodeServiceUnavailable, fmt.Sprintf("tiktok error: %s", message)).
		WithDetails(map[string]any{"vendor_code": code})
}

func mapTikTokError(status int, body []byte) *domain.Error {
	var env tiktokEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Code != 0 {
		return tiktokCodeError(env.Code, env.Message)
	}
	if status == http.StatusTooManyRequests {
		return domain.NewPlatformError(domain.CodeRateLimitExceeded, "tiktok rate limit exceeded")
	}
	if status >= 500 {
		return domain.NewPlatformError(domain.CodeServiceUnavailable, "tiktok service unavailable")
	}
	return domain.NewPlatformError(domain.CodeServiceUnavailable, fmt.Sprintf("tiktok http %d", status))
}
