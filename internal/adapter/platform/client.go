// Package platform contains the outbound adapters for the three supported
// ad networks. Each adapter normalizes its vendor's API into the
// port.Platform interface and maps vendor failures onto the shared error
// taxonomy, so the managers never see a vendor-specific shape.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"adpilot/internal/core/domain"
	"adpilot/internal/metrics"
	"adpilot/internal/retry"
)

// vendorClient is the HTTP machinery shared by the three adapters: rate
// limiting, retry with per-attempt timeout, metrics and taxonomy mapping.
// Vendor specifics (auth, payload shapes, error codes) live in the adapter
// that embeds it.
type vendorClient struct {
	platform string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	exec     *retry.Executor
	logger   *slog.Logger

	// authorize attaches the vendor's credential to a request.
	authorize func(*http.Request)
	// mapError converts a non-2xx vendor response into a taxonomy error.
	mapError func(status int, body []byte) *domain.Error
}

// call performs one logical vendor operation: the retry executor re-issues
// the HTTP exchange on retryable failures, and the whole call is observed
// once in metrics.
func (c *vendorClient) call(ctx context.Context, operation, method, path string, in, out any) error {
	start := time.Now()
	err := c.exec.Do(ctx, c.platform+"."+operation, func(ctx context.Context) error {
		return c.roundTrip(ctx, method, path, in, out)
	})

	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.ObservePlatformCall(c.platform, operation, status, time.Since(start).Seconds())
	if err != nil {
		c.logger.Error("platform call failed",
			slog.String("platform", c.platform),
			slog.String("operation", operation),
			slog.Any("error", err))
	}
	return err
}

func (c *vendorClient) roundTrip(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.NewPlatformError(domain.CodeRateLimitExceeded, "local rate limiter interrupted").WithCause(err)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return domain.NewPlatformError(domain.CodeServiceUnavailable, "encode request").WithCause(err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return domain.NewPlatformError(domain.CodeServiceUnavailable, "build request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			e := domain.NewPlatformError(domain.CodeServiceUnavailable, fmt.Sprintf("%s request timed out", c.platform))
			e.Retryable = true
			return e.WithCause(err)
		}
		return domain.NewPlatformError(domain.CodeServiceUnavailable, fmt.Sprintf("%s unreachable", c.platform)).WithCause(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.NewPlatformError(domain.CodeServiceUnavailable, "read response").WithCause(err)
	}

	if resp.StatusCode >= 400 {
		return c.mapError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err = json.Unmarshal(raw, out); err != nil {
		return domain.NewPlatformError(domain.CodeServiceUnavailable, "decode response").WithCause(err)
	}
	return nil
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
