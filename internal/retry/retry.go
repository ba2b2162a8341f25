// Package retry wraps outbound calls with a bounded per-attempt timeout and
// exponential-backoff retries. Retries are local to a single call: a
// multi-step operation that fails on step five never re-runs steps one
// through four.
package retry

import (
	"context"
	"log/slog"
	"time"

	"adpilot/internal/core/domain"
	"adpilot/internal/metrics"
)

// Policy controls how an Executor runs an operation.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// Backoff holds the delay before attempt 2, 3, ... . When attempts
	// outnumber entries the last entry repeats.
	Backoff []time.Duration
	// Timeout bounds each individual attempt.
	Timeout time.Duration
	// RetryIf decides whether a failed attempt is worth repeating. Nil
	// means domain.IsRetryable.
	RetryIf func(error) bool
}

// DefaultPolicy matches the engine's contract with the ad platforms: three
// attempts with 1s/2s/4s backoff, each bounded by 30 seconds.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
		Timeout:     30 * time.Second,
	}
}

// Executor applies a Policy to operations. It is safe for concurrent use.
type Executor struct {
	policy Policy
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

// Option customizes an Executor.
type Option func(*Executor)

// WithSleep replaces the delay function. Tests use this to observe backoff
// without waiting.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(e *Executor) { e.sleep = sleep }
}

// New builds an Executor. Zero-valued policy fields fall back to
// DefaultPolicy.
func New(policy Policy, logger *slog.Logger, opts ...Option) *Executor {
	def := DefaultPolicy()
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = def.MaxAttempts
	}
	if len(policy.Backoff) == 0 {
		policy.Backoff = def.Backoff
	}
	if policy.Timeout <= 0 {
		policy.Timeout = def.Timeout
	}
	if policy.RetryIf == nil {
		policy.RetryIf = domain.IsRetryable
	}
	e := &Executor{policy: policy, logger: logger, sleep: sleepCtx}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do runs op under the executor's policy. The name labels logs and metrics.
func (e *Executor) Do(ctx context.Context, name string, op func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, e.policy.Timeout)
		err := op(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if !e.policy.RetryIf(err) || attempt == e.policy.MaxAttempts {
			break
		}
		delay := e.backoff(attempt - 1)
		e.logger.Warn("retrying operation",
			slog.String("operation", name),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.Any("error", err))
		metrics.RecordRetry(name)
		if err = e.sleep(ctx, delay); err != nil {
			return lastErr
		}
	}
	return lastErr
}

// Do runs an operation that returns a value under the executor's policy.
func Do[T any](ctx context.Context, e *Executor, name string, op func(context.Context) (T, error)) (T, error) {
	var out T
	err := e.Do(ctx, name, func(ctx context.Context) error {
		var opErr error
		out, opErr = op(ctx)
		return opErr
	})
	return out, err
}

func (e *Executor) backoff(i int) time.Duration {
	if i >= len(e.policy.Backoff) {
		i = len(e.policy.Backoff) - 1
	}
	return e.policy.Backoff[i]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
