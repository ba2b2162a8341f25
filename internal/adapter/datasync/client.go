// Package datasync is the outbound adapter for the external data
// platform's tool interface. The engine persists campaign structures and
// reads performance reports through it; it never owns those records.
package datasync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"adpilot/internal/config/configs"
	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
	"adpilot/internal/retry"
)

// Client talks JSON over HTTP to the data platform's tool endpoint:
// POST {base}/tools/{name} with a parameters object, responses use a
// {status, result|error} envelope.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	exec    *retry.Executor
	logger  *slog.Logger
}

// New builds a datasync client.
func New(cfg configs.DataSync, exec *retry.Executor, logger *slog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{},
		exec:    exec,
		logger:  logger,
	}
}

type toolRequest struct {
	Parameters any    `json:"parameters"`
	UserID     string `json:"user_id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}

type toolResponse struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
	Error  struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCampaign persists a freshly built campaign structure.
func (c *Client) CreateCampaign(ctx context.Context, cc domain.CallContext, structure domain.CampaignStructure) error {
	return c.invoke(ctx, "create_campaign", toolRequest{Parameters: structure, UserID: cc.UserID, SessionID: cc.SessionID}, nil)
}

// UpdateCampaign patches fields of a stored campaign.
func (c *Client) UpdateCampaign(ctx context.Context, cc domain.CallContext, campaignID string, fields map[string]any) error {
	params := map[string]any{"campaign_id": campaignID, "fields": fields}
	return c.invoke(ctx, "update_campaign", toolRequest{Parameters: params, UserID: cc.UserID, SessionID: cc.SessionID}, nil)
}

// GetReports fetches per-adset performance for a campaign.
func (c *Client) GetReports(ctx context.Context, q port.ReportsQuery) (*domain.Report, error) {
	params := map[string]any{
		"campaign_id": q.CampaignID,
		"time_range":  q.TimeRange,
	}
	if len(q.AdsetIDs) > 0 {
		params["adset_ids"] = q.AdsetIDs
	}
	var report domain.Report
	if err := c.invoke(ctx, "get_reports", toolRequest{Parameters: params}, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) invoke(ctx context.Context, tool string, req toolRequest, out any) error {
	return c.exec.Do(ctx, "datasync."+tool, func(ctx context.Context) error {
		payload, err := json.Marshal(req)
		if err != nil {
			return domain.NewSyncError(domain.CodeInvalidParams, "encode tool request").WithCause(err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tools/"+tool, bytes.NewReader(payload))
		if err != nil {
			return domain.NewSyncError(domain.CodeInvalidParams, "build tool request").WithCause(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(httpReq)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return domain.NewSyncError(domain.CodeExecutionTimeout, fmt.Sprintf("tool %s timed out", tool)).WithCause(err)
			}
			return domain.NewSyncError(domain.CodeConnectionFailed, "data platform unreachable").WithCause(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return domain.NewSyncError(domain.CodeToolNotFound, fmt.Sprintf("tool %s not found", tool))
		}
		raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return domain.NewSyncError(domain.CodeConnectionFailed, "read tool response").WithCause(err)
		}
		if resp.StatusCode >= 500 {
			return domain.NewSyncError(domain.CodeConnectionFailed, fmt.Sprintf("tool %s: http %d", tool, resp.StatusCode))
		}

		var envelope toolResponse
		if err = json.Unmarshal(raw, &envelope); err != nil {
			return domain.NewSyncError(domain.CodeConnectionFailed, "decode tool response").WithCause(err)
		}
		if envelope.Status != "success" {
			code := envelope.Error.Code
			if code == "" {
				code = domain.CodeInvalidParams
			}
			return domain.NewSyncError(code, envelope.Error.Message)
		}
		if out != nil && len(envelope.Result) > 0 {
			if err = json.Unmarshal(envelope.Result, out); err != nil {
				return domain.NewSyncError(domain.CodeConnectionFailed, "decode tool result").WithCause(err)
			}
		}
		return nil
	})
}
