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

// Meta implements port.Platform against the Meta Marketing API.
type Meta struct {
	c         vendorClient
	accountID string
}

// NewMeta builds the Meta adapter.
func NewMeta(cfg configs.Platform, exec *retry.Executor, logger *slog.Logger) *Meta {
	m := &Meta{accountID: cfg.AccountID}
	m.c = vendorClient{
		platform: "meta",
		baseURL:  cfg.BaseURL,
		http:     &http.Client{},
		limiter:  newLimiter(cfg.RateLimit, cfg.RateBurst),
		exec:     exec,
		logger:   logger,
		authorize: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+cfg.AccessToken)
		},
		mapError: mapMetaError,
	}
	return m
}

func (m *Meta) Name() string { return "meta" }

type metaCampaignReq struct {
	Name        string `json:"name"`
	Objective   string `json:"objective"`
	DailyBudget int64  `json:"daily_budget"`
	Status      string `json:"status"`
}

type metaIDName struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (m *Meta) CreateCampaign(ctx context.Context, p port.CampaignParams) (*port.CampaignResult, error) {
	var resp metaIDName
	req := metaCampaignReq{Name: p.Name, Objective: p.Objective, DailyBudget: p.DailyBudget, Status: "PAUSED"}
	path := fmt.Sprintf("/act_%s/campaigns", m.accountID)
	if err := m.c.call(ctx, "create_campaign", http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &port.CampaignResult{ID: resp.ID, Name: resp.Name}, nil
}

type metaAdsetReq struct {
	CampaignID  string `json:"campaign_id"`
	Name        string `json:"name"`
	DailyBudget int64  `json:"daily_budget"`
	Targeting   struct {
		AgeMin    int      `json:"age_min"`
		AgeMax    int      `json:"age_max"`
		Countries []string `json:"geo_locations"`
	} `json:"targeting"`
	BillingEvent string `json:"billing_event"`
	BidStrategy  string `json:"bid_strategy"`
}

func (m *Meta) CreateAdset(ctx context.Context, p port.AdsetParams) (*port.AdsetResult, error) {
	req := metaAdsetReq{
		CampaignID:   p.CampaignID,
		Name:         p.Name,
		DailyBudget:  p.DailyBudget,
		BillingEvent: "IMPRESSIONS",
		BidStrategy:  metaBidStrategy(p.BidStrategy),
	}
	req.Targeting.AgeMin = p.Targeting.AgeMin
	req.Targeting.AgeMax = p.Targeting.AgeMax
	req.Targeting.Countries = p.Targeting.Countries

	var resp struct {
		ID          string `json:"id"`
		CampaignID  string `json:"campaign_id"`
		DailyBudget int64  `json:"daily_budget"`
	}
	path := fmt.Sprintf("/act_%s/adsets", m.accountID)
	if err := m.c.call(ctx, "create_adset", http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &port.AdsetResult{ID: resp.ID, CampaignID: resp.CampaignID, DailyBudget: resp.DailyBudget}, nil
}

func (m *Meta) CreateAd(ctx context.Context, p port.AdParams) (*port.AdResult, error) {
	req := map[string]any{
		"adset_id": p.AdsetID,
		"name":     p.Name,
		"creative": map[string]string{"creative_id": p.CreativeID},
		"message":  p.Copy,
		"status":   "ACTIVE",
	}
	var resp struct {
		ID       string `json:"id"`
		Creative struct {
			CreativeID string `json:"creative_id"`
		} `json:"creative"`
	}
	path := fmt.Sprintf("/act_%s/ads", m.accountID)
	if err := m.c.call(ctx, "create_ad", http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &port.AdResult{ID: resp.ID, CreativeID: resp.Creative.CreativeID}, nil
}

func (m *Meta) UpdateBudget(ctx context.Context, adsetID string, dailyBudget int64) (*port.BudgetResult, error) {
	req := map[string]int64{"daily_budget": dailyBudget}
	var resp struct {
		Success     bool  `json:"success"`
		DailyBudget int64 `json:"daily_budget"`
	}
	if err := m.c.call(ctx, "update_budget", http.MethodPost, "/"+adsetID, req, &resp); err != nil {
		return nil, err
	}
	return &port.BudgetResult{Status: "updated", NewBudget: resp.DailyBudget}, nil
}

func (m *Meta) PauseAdset(ctx context.Context, adsetID string) (*port.StatusResult, error) {
	req := map[string]string{"status": "PAUSED"}
	var resp struct {
		Status string `json:"status"`
	}
	if err := m.c.call(ctx, "pause_adset", http.MethodPost, "/"+adsetID, req, &resp); err != nil {
		return nil, err
	}
	return &port.StatusResult{Status: "updated", NewStatus: "paused"}, nil
}

func (m *Meta) UpdateCampaignStatus(ctx context.Context, campaignID string, status domain.CampaignStatus) (*port.StatusResult, error) {
	req := map[string]string{"status": metaCampaignStatus(status)}
	var resp struct {
		Status string `json:"status"`
	}
	if err := m.c.call(ctx, "update_campaign_status", http.MethodPost, "/"+campaignID, req, &resp); err != nil {
		return nil, err
	}
	return &port.StatusResult{Status: "updated", NewStatus: string(status)}, nil
}

func metaBidStrategy(s string) string {
	if s == "" {
		return "LOWEST_COST_WITHOUT_CAP"
	}
	return s
}

func metaCampaignStatus(s domain.CampaignStatus) string {
	switch s {
	case domain.CampaignActive:
		return "ACTIVE"
	case domain.CampaignPaused:
		return "PAUSED"
	case domain.CampaignDeleted:
		return "DELETED"
	default:
		return "PAUSED"
	}
}

// mapMetaError translates Graph-API error codes into the taxonomy.
func mapMetaError(status int, body []byte) *domain.Error {
	var payload struct {
		Error struct {
			Code    int    `json:"code"`
			Subcode int    `json:"error_subcode"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)

	switch payload.Error.Code {
	case 190:
		return domain.NewPlatformError(domain.CodeTokenExpired, "meta access token expired")
	case 4, 17, 32, 613:
		return domain.NewPlatformError(domain.CodeRateLimitExceeded, "meta rate limit exceeded")
	case 1487: // budget level too low
		return domain.NewPlatformError(domain.CodeBudgetInsufficient, payload.Error.Message)
	case 1885:
		return domain.NewPlatformError(domain.CodeCreativeRejected, payload.Error.Message)
	}
	if status == http.StatusTooManyRequests {
		return domain.NewPlatformError(domain.CodeRateLimitExceeded, "meta rate limit exceeded")
	}
	if status >= 500 {
		return domain.NewPlatformError(domain.CodeServiceUnavailable, "meta service unavailable")
	}
	return domain.NewPlatformError(domain.CodeServiceUnavailable, fmt.Sprintf("meta error: %s", payload.Error.Message)).
		WithDetails(map[string]any{"http_status": status, "vendor_code": payload.Error.Code})
}
