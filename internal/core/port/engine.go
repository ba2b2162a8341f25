package port

import (
	"context"

	"adpilot/internal/core/domain"
)

// Actions accepted by Engine.Execute. The dispatch table is validated at
// construction time so an unknown action fails fast with a typed error.
const (
	ActionCreateCampaign    = "create_campaign"
	ActionOptimizeBudget    = "optimize_budget"
	ActionManageCampaign    = "manage_campaign"
	ActionCreateABTest      = "create_ab_test"
	ActionAnalyzeABTest     = "analyze_ab_test"
	ActionCreateRule        = "create_rule"
	ActionGetCampaignStatus = "get_campaign_status"
)

// Actions lists every action the engine must be able to dispatch.
var Actions = []string{
	ActionCreateCampaign,
	ActionOptimizeBudget,
	ActionManageCampaign,
	ActionCreateABTest,
	ActionAnalyzeABTest,
	ActionCreateRule,
	ActionGetCampaignStatus,
}

// Engine is the primary port into the automation domain. Execute routes an
// action name and loosely-typed parameters to the owning manager and
// returns the success payload; failures are always *domain.Error.
type Engine interface {
	Execute(ctx context.Context, action string, params map[string]any, cc domain.CallContext) (any, error)

	// CheckRules evaluates all enabled rules once and returns a trigger
	// notification for each rule that fired. Invoked by the internal
	// scheduler and available to external schedulers.
	CheckRules(ctx context.Context) ([]domain.RuleTrigger, error)
}
