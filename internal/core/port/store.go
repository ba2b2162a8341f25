package port

import (
	"context"
	"time"

	"adpilot/internal/core/domain"
)

// EngineStore persists the engine's operational state: rules, the rule
// execution log, A/B tests and campaign snapshots. Canonical business
// records live on the external data platform; this store only holds what
// the engine needs between invocations.
type EngineStore interface {
	CreateRule(ctx context.Context, rule *domain.Rule) error
	ListEnabledRules(ctx context.Context) ([]domain.Rule, error)
	SetRuleEnabled(ctx context.Context, ruleID string, enabled bool) error

	// ClaimRuleExecution appends an execution-log entry unless one already
	// exists for (exec.RuleID, exec.WindowStart). It returns false when the
	// window was already claimed, which makes re-evaluation idempotent.
	ClaimRuleExecution(ctx context.Context, exec domain.RuleExecution) (bool, error)
	// SetRuleExecutionResult records the action outcome on a claimed entry.
	// Entries are otherwise immutable.
	SetRuleExecutionResult(ctx context.Context, execID, result string) error
	ListRuleExecutions(ctx context.Context, ruleID string, since time.Time) ([]domain.RuleExecution, error)

	CreateABTest(ctx context.Context, test *domain.ABTest) error
	GetABTest(ctx context.Context, testID string) (*domain.ABTest, error)
	CompleteABTest(ctx context.Context, testID, winner string) error

	SaveCampaignSnapshot(ctx context.Context, structure domain.CampaignStructure) error
	GetCampaignSnapshot(ctx context.Context, campaignID string) (*domain.CampaignStructure, error)
	UpdateCampaignStatus(ctx context.Context, campaignID string, status domain.CampaignStatus) error
}
