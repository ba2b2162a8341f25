// Package usecase implements the automation engine's business operations:
// campaign construction, budget optimization, A/B testing, rule evaluation
// and status reads. It orchestrates the platform adapters, the data
// platform sync tool and the engine store behind the port.Engine interface.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"adpilot/internal/config/configs"
	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
	"adpilot/internal/metrics"
)

// Engine routes actions to their owning manager. It holds no mutable
// state of its own; everything cross-cutting lives behind the cache and
// the stores, so concurrent calls are safe.
type Engine struct {
	platforms port.PlatformRegistry
	sync      port.DataSync
	store     port.EngineStore
	cache     port.Cache
	writer    port.CopyWriter
	cfg       configs.Engine
	logger    *slog.Logger

	handlers map[string]handlerFunc
}

type handlerFunc func(ctx context.Context, p params, cc domain.CallContext) (any, error)

// NewEngine wires the engine and validates the dispatch table: every
// action in port.Actions must have a handler, so a missing registration
// fails at startup rather than on first use.
func NewEngine(
	platforms port.PlatformRegistry,
	sync port.DataSync,
	store port.EngineStore,
	cache port.Cache,
	writer port.CopyWriter,
	cfg configs.Engine,
	logger *slog.Logger,
) (*Engine, error) {
	e := &Engine{
		platforms: platforms,
		sync:      sync,
		store:     store,
		cache:     cache,
		writer:    writer,
		cfg:       cfg,
		logger:    logger,
	}
	e.handlers = map[string]handlerFunc{
		port.ActionCreateCampaign:    e.handleCreateCampaign,
		port.ActionOptimizeBudget:    e.handleOptimizeBudget,
		port.ActionManageCampaign:    e.handleManageCampaign,
		port.ActionCreateABTest:      e.handleCreateABTest,
		port.ActionAnalyzeABTest:     e.handleAnalyzeABTest,
		port.ActionCreateRule:        e.handleCreateRule,
		port.ActionGetCampaignStatus: e.handleGetCampaignStatus,
	}
	for _, action := range port.Actions {
		if _, ok := e.handlers[action]; !ok {
			return nil, fmt.Errorf("no handler registered for action %q", action)
		}
	}
	return e, nil
}

// Execute dispatches an action by name. Unknown actions fail fast with a
// typed error listing the supported actions.
func (e *Engine) Execute(ctx context.Context, action string, rawParams map[string]any, cc domain.CallContext) (any, error) {
	h, ok := e.handlers[action]
	if !ok {
		metrics.RecordAction(action, "unknown")
		return nil, domain.NewBusinessError(domain.CodeUnknownAction, fmt.Sprintf("unknown action %q", action)).
			WithDetails(map[string]any{"supported_actions": port.Actions})
	}

	result, err := h(ctx, params(rawParams), cc)
	if err != nil {
		metrics.RecordAction(action, "error")
		e.logger.Error("action failed",
			slog.String("action", action),
			slog.String("user_id", cc.UserID),
			slog.String("request_id", cc.RequestID),
			slog.Any("error", err))
		return nil, err
	}
	metrics.RecordAction(action, "success")
	e.logger.Info("action completed",
		slog.String("action", action),
		slog.String("user_id", cc.UserID),
		slog.String("request_id", cc.RequestID))
	return result, nil
}

// params wraps the loosely-typed parameter object with validating getters.
// JSON numbers arrive as float64; direct Go callers may pass ints.
type params map[string]any

func (p params) str(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", domain.NewValidationError(fmt.Sprintf("parameter %q is required", key))
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", domain.NewValidationError(fmt.Sprintf("parameter %q must be a non-empty string", key))
	}
	return s, nil
}

func (p params) optStr(key, def string) string {
	if s, ok := p[key].(string); ok && s != "" {
		return s
	}
	return def
}

// cents reads a monetary amount in integer cents.
func (p params) cents(key string) (int64, error) {
	v, ok := p[key]
	if !ok {
		return 0, domain.NewValidationError(fmt.Sprintf("parameter %q is required", key))
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, domain.NewValidationError(fmt.Sprintf("parameter %q must be an integer amount in cents", key))
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, domain.NewValidationError(fmt.Sprintf("parameter %q must be a number", key))
	}
}

func (p params) intVal(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, domain.NewValidationError(fmt.Sprintf("parameter %q must be a number", key))
	}
}

func (p params) strSlice(key string) ([]string, error) {
	v, ok := p[key]
	if !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("parameter %q is required", key))
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, domain.NewValidationError(fmt.Sprintf("parameter %q must be a list of strings", key))
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, domain.NewValidationError(fmt.Sprintf("parameter %q must be a list of strings", key))
	}
}

func (p params) optStrSlice(key string) []string {
	out, err := p.strSlice(key)
	if err != nil {
		return nil
	}
	return out
}

func (p params) obj(key string) (map[string]any, error) {
	v, ok := p[key]
	if !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("parameter %q is required", key))
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, domain.NewValidationError(fmt.Sprintf("parameter %q must be an object", key))
	}
	return m, nil
}
