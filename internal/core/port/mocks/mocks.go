// Package mocks provides testify mocks over the engine's ports for use in
// usecase and adapter tests.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

// Platform mocks port.Platform.
type Platform struct {
	mock.Mock
	PlatformName string
}

func (m *Platform) Name() string {
	if m.PlatformName != "" {
		return m.PlatformName
	}
	return "meta"
}

func (m *Platform) CreateCampaign(ctx context.Context, p port.CampaignParams) (*port.CampaignResult, error) {
	args := m.Called(ctx, p)
	var out *port.CampaignResult
	if v := args.Get(0); v != nil {
		out = v.(*port.CampaignResult)
	}
	return out, args.Error(1)
}

func (m *Platform) CreateAdset(ctx context.Context, p port.AdsetParams) (*port.AdsetResult, error) {
	args := m.Called(ctx, p)
	var out *port.AdsetResult
	if v := args.Get(0); v != nil {
		out = v.(*port.AdsetResult)
	}
	return out, args.Error(1)
}

func (m *Platform) CreateAd(ctx context.Context, p port.AdParams) (*port.AdResult, error) {
	args := m.Called(ctx, p)
	var out *port.AdResult
	if v := args.Get(0); v != nil {
		out = v.(*port.AdResult)
	}
	return out, args.Error(1)
}

func (m *Platform) UpdateBudget(ctx context.Context, adsetID string, dailyBudget int64) (*port.BudgetResult, error) {
	args := m.Called(ctx, adsetID, dailyBudget)
	var out *port.BudgetResult
	if v := args.Get(0); v != nil {
		out = v.(*port.BudgetResult)
	}
	return out, args.Error(1)
}

func (m *Platform) PauseAdset(ctx context.Context, adsetID string) (*port.StatusResult, error) {
	args := m.Called(ctx, adsetID)
	var out *port.StatusResult
	if v := args.Get(0); v != nil {
		out = v.(*port.StatusResult)
	}
	return out, args.Error(1)
}

func (m *Platform) UpdateCampaignStatus(ctx context.Context, campaignID string, status domain.CampaignStatus) (*port.StatusResult, error) {
	args := m.Called(ctx, campaignID, status)
	var out *port.StatusResult
	if v := args.Get(0); v != nil {
		out = v.(*port.StatusResult)
	}
	return out, args.Error(1)
}

// Registry is a minimal port.PlatformRegistry over a fixed platform set.
type Registry struct {
	Entries map[string]port.Platform
}

func (r Registry) Get(name string) (port.Platform, error) {
	p, ok := r.Entries[name]
	if !ok {
		return nil, domain.NewBusinessError(domain.CodeUnsupportedPlatform, "platform not supported")
	}
	return p, nil
}

// DataSync mocks port.DataSync.
type DataSync struct {
	mock.Mock
}

func (m *DataSync) CreateCampaign(ctx context.Context, cc domain.CallContext, structure domain.CampaignStructure) error {
	args := m.Called(ctx, cc, structure)
	return args.Error(0)
}

func (m *DataSync) UpdateCampaign(ctx context.Context, cc domain.CallContext, campaignID string, fields map[string]any) error {
	args := m.Called(ctx, cc, campaignID, fields)
	return args.Error(0)
}

func (m *DataSync) GetReports(ctx context.Context, q port.ReportsQuery) (*domain.Report, error) {
	args := m.Called(ctx, q)
	var out *domain.Report
	if v := args.Get(0); v != nil {
		out = v.(*domain.Report)
	}
	return out, args.Error(1)
}

// EngineStore mocks port.EngineStore.
type EngineStore struct {
	mock.Mock
}

func (m *EngineStore) CreateRule(ctx context.Context, rule *domain.Rule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *EngineStore) ListEnabledRules(ctx context.Context) ([]domain.Rule, error) {
	args := m.Called(ctx)
	var out []domain.Rule
	if v := args.Get(0); v != nil {
		out = v.([]domain.Rule)
	}
	return out, args.Error(1)
}

func (m *EngineStore) SetRuleEnabled(ctx context.Context, ruleID string, enabled bool) error {
	args := m.Called(ctx, ruleID, enabled)
	return args.Error(0)
}

func (m *EngineStore) ClaimRuleExecution(ctx context.Context, exec domain.RuleExecution) (bool, error) {
	args := m.Called(ctx, exec)
	return args.Bool(0), args.Error(1)
}

func (m *EngineStore) SetRuleExecutionResult(ctx context.Context, execID, result string) error {
	args := m.Called(ctx, execID, result)
	return args.Error(0)
}

func (m *EngineStore) ListRuleExecutions(ctx context.Context, ruleID string, since time.Time) ([]domain.RuleExecution, error) {
	args := m.Called(ctx, ruleID, since)
	var out []domain.RuleExecution
	if v := args.Get(0); v != nil {
		out = v.([]domain.RuleExecution)
	}
	return out, args.Error(1)
}

func (m *EngineStore) CreateABTest(ctx context.Context, test *domain.ABTest) error {
	args := m.Called(ctx, test)
	return args.Error(0)
}

func (m *EngineStore) GetABTest(ctx context.Context, testID string) (*domain.ABTest, error) {
	args := m.Called(ctx, testID)
	var out *domain.ABTest
	if v := args.Get(0); v != nil {
		out = v.(*domain.ABTest)
	}
	return out, args.Error(1)
}

func (m *EngineStore) CompleteABTest(ctx context.Context, testID, winner string) error {
	args := m.Called(ctx, testID, winner)
	return args.Error(0)
}

func (m *EngineStore) SaveCampaignSnapshot(ctx context.Context, structure domain.CampaignStructure) error {
	args := m.Called(ctx, structure)
	return args.Error(0)
}

func (m *EngineStore) GetCampaignSnapshot(ctx context.Context, campaignID string) (*domain.CampaignStructure, error) {
	args := m.Called(ctx, campaignID)
	var out *domain.CampaignStructure
	if v := args.Get(0); v != nil {
		out = v.(*domain.CampaignStructure)
	}
	return out, args.Error(1)
}

func (m *EngineStore) UpdateCampaignStatus(ctx context.Context, campaignID string, status domain.CampaignStatus) error {
	args := m.Called(ctx, campaignID, status)
	return args.Error(0)
}

// CopyWriter mocks port.CopyWriter.
type CopyWriter struct {
	mock.Mock
}

func (m *CopyWriter) AdCopy(ctx context.Context, objective, creativeID string, segment domain.AgeSegment) (string, error) {
	args := m.Called(ctx, objective, creativeID, segment)
	return args.String(0), args.Error(1)
}

// Engine mocks port.Engine for transport-level tests.
type Engine struct {
	mock.Mock
}

func (m *Engine) Execute(ctx context.Context, action string, params map[string]any, cc domain.CallContext) (any, error) {
	args := m.Called(ctx, action, params, cc)
	return args.Get(0), args.Error(1)
}

func (m *Engine) CheckRules(ctx context.Context) ([]domain.RuleTrigger, error) {
	args := m.Called(ctx)
	var out []domain.RuleTrigger
	if v := args.Get(0); v != nil {
		out = v.([]domain.RuleTrigger)
	}
	return out, args.Error(1)
}
