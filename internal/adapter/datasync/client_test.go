package datasync

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

func testClient(baseURL string, attempts int) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exec := retry.New(retry.Policy{
		MaxAttempts: attempts,
		Backoff:     []time.Duration{time.Millisecond},
		Timeout:     time.Second,
	}, logger, retry.WithSleep(func(context.Context, time.Duration) error { return nil }))
	return New(configs.DataSync{BaseURL: baseURL, Token: "sync-tok"}, exec, logger)
}

func TestGetReportsDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tools/get_reports", r.URL.Path)
		assert.Equal(t, "Bearer sync-tok", r.Header.Get("Authorization"))

		var req struct {
			Parameters map[string]any `json:"parameters"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "c-1", req.Parameters["campaign_id"])
		assert.Equal(t, "last_7d", req.Parameters["time_range"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"result": map[string]any{
				"campaign_id": "c-1",
				"adsets": []map[string]any{
					{"adset_id": "as-1", "spend": 1000, "revenue": 3000, "conversions": 10},
				},
			},
		})
	}))
	defer srv.Close()

	report, err := testClient(srv.URL, 1).GetReports(context.Background(), port.ReportsQuery{
		CampaignID: "c-1", TimeRange: "last_7d",
	})
	require.NoError(t, err)
	assert.Equal(t, "c-1", report.CampaignID)
	require.Len(t, report.Adsets, 1)
	assert.Equal(t, int64(3000), report.Adsets[0].Revenue)
}

func TestCreateCampaignCarriesCallContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tools/create_campaign", r.URL.Path)

		var req struct {
			UserID    string `json:"user_id"`
			SessionID string `json:"session_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "u-1", req.UserID)
		assert.Equal(t, "s-1", req.SessionID)

		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success"})
	}))
	defer srv.Close()

	err := testClient(srv.URL, 1).CreateCampaign(context.Background(),
		domain.CallContext{UserID: "u-1", SessionID: "s-1"},
		domain.CampaignStructure{Campaign: domain.Campaign{ID: "c-1"}})
	require.NoError(t, err)
}

func TestMissingToolIsTerminal(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 3).GetReports(context.Background(), port.ReportsQuery{CampaignID: "c-1"})
	require.Error(t, err)

	engErr := domain.AsEngineError(err)
	assert.Equal(t, domain.CodeToolNotFound, engErr.Code)
	assert.Equal(t, domain.ErrorTypeSync, engErr.Type)
	assert.Equal(t, int64(1), calls.Load(), "404 must not be retried")
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"result": map[string]any{"campaign_id": "c-1"},
		})
	}))
	defer srv.Close()

	report, err := testClient(srv.URL, 3).GetReports(context.Background(), port.ReportsQuery{CampaignID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, "c-1", report.CampaignID)
	assert.Equal(t, int64(3), calls.Load())
}

func TestInBandToolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "error",
			"error":  map[string]string{"code": "invalid_parameters", "message": "campaign_id is required"},
		})
	}))
	defer srv.Close()

	err := testClient(srv.URL, 1).UpdateCampaign(context.Background(), domain.CallContext{}, "", nil)
	require.Error(t, err)

	engErr := domain.AsEngineError(err)
	assert.Equal(t, domain.CodeInvalidParams, engErr.Code)
	assert.Equal(t, "campaign_id is required", engErr.Message)
}

func TestUnreachableServiceMapsToConnectionFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := testClient(srv.URL, 1).GetReports(context.Background(), port.ReportsQuery{CampaignID: "c-1"})
	require.Error(t, err)
	assert.Equal(t, domain.CodeConnectionFailed, domain.AsEngineError(err).Code)
}
