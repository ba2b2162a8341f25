package platform

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adpilot/internal/config/configs"
	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
	"adpilot/internal/retry"
)

func testExecutor(attempts int) *retry.Executor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return retry.New(retry.Policy{
		MaxAttempts: attempts,
		Backoff:     []time.Duration{time.Millisecond},
		Timeout:     time.Second,
	}, logger, retry.WithSleep(func(context.Context, time.Duration) error { return nil }))
}

func testPlatformConfig(baseURL string) configs.Platform {
	return configs.Platform{
		BaseURL:     baseURL,
		AccessToken: "tok-123",
		AccountID:   "acct-1",
		RateLimit:   1000,
		RateBurst:   1000,
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMetaCreateCampaignNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/act_acct-1/campaigns", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sales", req["objective"])
		assert.Equal(t, float64(10000), req["daily_budget"])

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "mc-1", "name": "sales campaign"})
	}))
	defer srv.Close()

	m := NewMeta(testPlatformConfig(srv.URL), testExecutor(1), discard())
	res, err := m.CreateCampaign(context.Background(), port.CampaignParams{
		Name: "sales campaign", Objective: "sales", DailyBudget: 10000,
	})
	require.NoError(t, err)
	assert.Equal(t, &port.CampaignResult{ID: "mc-1", Name: "sales campaign"}, res)
}

func TestMetaErrorMapping(t *testing.T) {
	tests := []struct {
		vendorCode int
		httpStatus int
		wantCode   string
		retryable  bool
	}{
		{190, http.StatusBadRequest, domain.CodeTokenExpired, false},
		{4, http.StatusBadRequest, domain.CodeRateLimitExceeded, true},
		{1487, http.StatusBadRequest, domain.CodeBudgetInsufficient, false},
		{1885, http.StatusBadRequest, domain.CodeCreativeRejected, false},
		{0, http.StatusInternalServerError, domain.CodeServiceUnavailable, true},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.httpStatus)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": tt.vendorCode, "message": "vendor says no"},
			})
		}))

		m := NewMeta(testPlatformConfig(srv.URL), testExecutor(1), discard())
		_, err := m.PauseAdset(context.Background(), "as-1")
		require.Error(t, err, "vendor code %d", tt.vendorCode)

		engErr := domain.AsEngineError(err)
		assert.Equal(t, tt.wantCode, engErr.Code, "vendor code %d", tt.vendorCode)
		assert.Equal(t, domain.ErrorTypePlatform, engErr.Type)
		assert.Equal(t, tt.retryable, domain.IsRetryable(err), "vendor code %d", tt.vendorCode)
		srv.Close()
	}
}

func TestMetaRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "daily_budget": 1200})
	}))
	defer srv.Close()

	m := NewMeta(testPlatformConfig(srv.URL), testExecutor(3), discard())
	res, err := m.UpdateBudget(context.Background(), "as-1", 1200)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), res.NewBudget)
	assert.Equal(t, int64(3), calls.Load())
}

func TestMetaDoesNotRetryTerminalErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 190, "message": "expired"},
		})
	}))
	defer srv.Close()

	m := NewMeta(testPlatformConfig(srv.URL), testExecutor(3), discard())
	_, err := m.PauseAdset(context.Background(), "as-1")
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load(), "token errors must fail on the first attempt")
}

func TestTikTokCreateCampaignUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/campaign/create/", r.URL.Path)
		assert.Equal(t, "tok-123", r.Header.Get("Access-Token"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "acct-1", req["advertiser_id"])
		assert.Equal(t, "BUDGET_MODE_DAY", req["budget_mode"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0, "message": "OK",
			"data": map[string]string{"campaign_id": "tc-1", "campaign_name": "sales campaign"},
		})
	}))
	defer srv.Close()

	tk := NewTikTok(testPlatformConfig(srv.URL), testExecutor(1), discard())
	res, err := tk.CreateCampaign(context.Background(), port.CampaignParams{
		Name: "sales campaign", Objective: "conversions", DailyBudget: 10000,
	})
	require.NoError(t, err)
	assert.Equal(t, &port.CampaignResult{ID: "tc-1", Name: "sales campaign"}, res)
}

func TestTikTokInBandErrorOnHTTP200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 40100, "message": "too many requests", "data": map[string]any{},
		})
	}))
	defer srv.Close()

	tk := NewTikTok(testPlatformConfig(srv.URL), testExecutor(1), discard())
	_, err := tk.UpdateBudget(context.Background(), "ag-1", 1000)
	require.Error(t, err)

	engErr := domain.AsEngineError(err)
	assert.Equal(t, domain.CodeRateLimitExceeded, engErr.Code)
	assert.Equal(t, domain.ErrorTypePlatform, engErr.Type)
}

func TestGoogleBudgetUsesMicros(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customers/acct-1/adGroups/ag-1", r.URL.Path)
		assert.Equal(t, http.MethodPatch, r.Method)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float64(12_000_000), req["amountMicros"], "1200 cents is 12M micros")

		_ = json.NewEncoder(w).Encode(map[string]int64{"amountMicros": 12_000_000})
	}))
	defer srv.Close()

	g := NewGoogle(testPlatformConfig(srv.URL), testExecutor(1), discard())
	res, err := g.UpdateBudget(context.Background(), "ag-1", 1200)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), res.NewBudget, "micros convert back to cents")
}

func TestGoogleErrorMapping(t *testing.T) {
	tests := []struct {
		status   string
		wantCode string
	}{
		{"UNAUTHENTICATED", domain.CodeTokenExpired},
		{"RESOURCE_EXHAUSTED", domain.CodeRateLimitExceeded},
		{"UNAVAILABLE", domain.CodeServiceUnavailable},
		{"FAILED_PRECONDITION", domain.CodeBudgetInsufficient},
		{"INVALID_ARGUMENT", domain.CodeCreativeRejected},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"status": tt.status, "message": "nope"},
			})
		}))

		g := NewGoogle(testPlatformConfig(srv.URL), testExecutor(1), discard())
		_, err := g.PauseAdset(context.Background(), "ag-1")
		require.Error(t, err, tt.status)
		assert.Equal(t, tt.wantCode, domain.AsEngineError(err).Code, tt.status)
		srv.Close()
	}
}

func TestRegistryResolvesByName(t *testing.T) {
	exec := testExecutor(1)
	meta := NewMeta(testPlatformConfig("http://meta.invalid"), exec, discard())
	tiktok := NewTikTok(testPlatformConfig("http://tiktok.invalid"), exec, discard())
	google := NewGoogle(testPlatformConfig("http://google.invalid"), exec, discard())

	reg := NewRegistry(meta, tiktok, google)
	for _, name := range []string{"meta", "tiktok", "google"} {
		p, err := reg.Get(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
	}

	_, err := reg.Get("myspace")
	require.Error(t, err)
	assert.Equal(t, domain.CodeUnsupportedPlatform, domain.AsEngineError(err).Code)
}
