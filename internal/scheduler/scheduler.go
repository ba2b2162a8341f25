// Package scheduler drives the periodic rule evaluation loop. It runs on
// its own cron-managed goroutine and shares no in-process mutable state
// with the request path; everything it touches lives behind the engine's
// ports.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"adpilot/internal/core/port"
)

// checkTimeout bounds one full rule evaluation pass.
const checkTimeout = 5 * time.Minute

// Scheduler invokes the engine's CheckRules on a cron spec.
type Scheduler struct {
	engine port.Engine
	cron   *cron.Cron
	logger *slog.Logger
}

// New builds a scheduler around the engine. The spec uses robfig/cron
// syntax, e.g. "@every 10m".
func New(engine port.Engine, spec string, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		engine: engine,
		cron:   cron.New(),
		logger: logger,
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("rule scheduler started")
}

// Stop halts scheduling and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("rule scheduler stopped")
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	triggers, err := s.engine.CheckRules(ctx)
	if err != nil {
		s.logger.Error("rule check pass failed", slog.Any("error", err))
		return
	}
	if len(triggers) > 0 {
		s.logger.Info("rule check pass completed", slog.Int("triggered", len(triggers)))
	}
}
