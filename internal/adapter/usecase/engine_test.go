package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adpilot/internal/cache"
	"adpilot/internal/config/configs"
	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
	"adpilot/internal/core/port/mocks"
)

type engineDeps struct {
	vendor *mocks.Platform
	sync   *mocks.DataSync
	store  *mocks.EngineStore
	writer *mocks.CopyWriter
	cache  *cache.Memory
}

func testConfig() configs.Engine {
	return configs.Engine{
		TargetROAS:      3.0,
		TargetCPA:       1000,
		DefaultPlatform: "meta",
		CacheTTL:        time.Minute,
	}
}

func newTestEngine(t *testing.T) (*Engine, *engineDeps) {
	t.Helper()
	return newTestEngineCfg(t, testConfig())
}

func newTestEngineCfg(t *testing.T, cfg configs.Engine) (*Engine, *engineDeps) {
	t.Helper()
	d := &engineDeps{
		vendor: &mocks.Platform{PlatformName: "meta"},
		sync:   &mocks.DataSync{},
		store:  &mocks.EngineStore{},
		writer: &mocks.CopyWriter{},
		cache:  cache.NewMemory(),
	}
	registry := mocks.Registry{Entries: map[string]port.Platform{"meta": d.vendor}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := NewEngine(registry, d.sync, d.store, d.cache, d.writer, cfg, logger)
	require.NoError(t, err)
	return e, d
}

func testCallContext() domain.CallContext {
	return domain.CallContext{UserID: "u-1", RequestID: "req-1"}
}

func TestUnknownActionRejected(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Execute(context.Background(), "explode_campaign", nil, testCallContext())
	require.Error(t, err)

	engErr := domain.AsEngineError(err)
	assert.Equal(t, domain.CodeUnknownAction, engErr.Code)
	assert.Equal(t, domain.ErrorTypeBusiness, engErr.Type)
	assert.Equal(t, port.Actions, engErr.Details["supported_actions"])
}

func TestMissingParameterRejected(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Execute(context.Background(), port.ActionCreateCampaign, map[string]any{}, testCallContext())
	require.Error(t, err)

	engErr := domain.AsEngineError(err)
	assert.Equal(t, domain.ErrorTypeValidation, engErr.Type)
	assert.Contains(t, engErr.Message, "objective")
}

func TestWrongParameterTypeRejected(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Execute(context.Background(), port.ActionOptimizeBudget, map[string]any{
		"campaign_id":   42,
		"target_metric": "roas",
	}, testCallContext())
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeValidation, domain.AsEngineError(err).Type)
}

func TestFractionalBudgetRejected(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Execute(context.Background(), port.ActionCreateCampaign, map[string]any{
		"objective":    "sales",
		"daily_budget": 99.5,
		"creative_ids": []any{"cr-1"},
		"platform":     "meta",
	}, testCallContext())
	require.Error(t, err)

	engErr := domain.AsEngineError(err)
	assert.Equal(t, domain.ErrorTypeValidation, engErr.Type)
	assert.Contains(t, engErr.Message, "daily_budget")
}
