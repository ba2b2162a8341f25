package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

func pauseRule() domain.Rule {
	return domain.Rule{
		ID:   "r-1",
		Name: "pause weak adsets",
		Condition: domain.Condition{
			Metric: "roas", Operator: "lt", Value: 2.0, TimeRange: "last_3d",
		},
		Action:        domain.RuleAction{Type: domain.RuleActionPauseAdset},
		AppliesTo:     domain.RuleTarget{Type: "adset", ID: "as-1", Platform: "meta"},
		CheckInterval: 6 * time.Hour,
		Enabled:       true,
	}
}

func TestCreateRuleStoresEnabledRule(t *testing.T) {
	e, d := newTestEngine(t)

	var stored *domain.Rule
	d.store.On("CreateRule", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.Rule) }).
		Return(nil)

	out, err := e.Execute(context.Background(), port.ActionCreateRule, map[string]any{
		"rule_name": "pause weak adsets",
		"condition": map[string]any{
			"metric": "roas", "operator": "lt", "value": 2.0, "time_range": "last_3d",
		},
		"action":     map[string]any{"type": "pause_adset"},
		"applies_to": map[string]any{"type": "adset", "id": "as-1", "platform": "meta"},
	}, testCallContext())
	require.NoError(t, err)

	res, ok := out.(*CreateRuleResult)
	require.True(t, ok)
	require.NotNil(t, stored)
	assert.Equal(t, res.RuleID, stored.ID)
	assert.True(t, stored.Enabled)
	assert.Equal(t, domain.DefaultCheckInterval, stored.CheckInterval)
	assert.Equal(t, "roas", stored.Condition.Metric)
}

func TestCreateRuleValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	cond := domain.Condition{Metric: "roas", Operator: "lt", Value: 2, TimeRange: "last_3d"}
	action := domain.RuleAction{Type: domain.RuleActionPauseAdset}
	target := domain.RuleTarget{Type: "adset", ID: "as-1", Platform: "meta"}

	_, err := e.CreateRule(ctx, "r", domain.Condition{Metric: "roas", Operator: "between", Value: 2}, action, target, time.Hour)
	assert.Equal(t, domain.CodeInvalidRuleCondition, domain.AsEngineError(err).Code)

	_, err = e.CreateRule(ctx, "r", cond, domain.RuleAction{Type: "explode"}, target, time.Hour)
	assert.Equal(t, domain.ErrorTypeValidation, domain.AsEngineError(err).Type)

	_, err = e.CreateRule(ctx, "r", cond, action, domain.RuleTarget{Type: "pixel", ID: "x"}, time.Hour)
	assert.Equal(t, domain.ErrorTypeValidation, domain.AsEngineError(err).Type)

	_, err = e.CreateRule(ctx, "r", cond, action, domain.RuleTarget{Type: "adset", ID: "as-1", Platform: "myspace"}, time.Hour)
	assert.Equal(t, domain.CodeUnsupportedPlatform, domain.AsEngineError(err).Code)

	_, err = e.CreateRule(ctx, "r", cond, action, target, 0)
	assert.Equal(t, domain.ErrorTypeValidation, domain.AsEngineError(err).Type)
}

func TestCheckRulesTriggersMatchingRule(t *testing.T) {
	e, d := newTestEngine(t)

	d.store.On("ListEnabledRules", mock.Anything).Return([]domain.Rule{pauseRule()}, nil)
	d.sync.On("GetReports", mock.Anything, mock.MatchedBy(func(q port.ReportsQuery) bool {
		return len(q.AdsetIDs) == 1 && q.AdsetIDs[0] == "as-1" && q.TimeRange == "last_3d"
	})).Return(&domain.Report{
		Adsets: []domain.AdsetPerformance{
			// ROAS 1.5, below the rule threshold of 2.0.
			{AdsetID: "as-1", Spend: 1000, Revenue: 1500, Conversions: 5, DailyBudget: 1000},
		},
	}, nil)
	d.store.On("ClaimRuleExecution", mock.Anything, mock.MatchedBy(func(ex domain.RuleExecution) bool {
		return ex.RuleID == "r-1" && ex.Action == domain.RuleActionPauseAdset
	})).Return(true, nil)
	d.vendor.On("PauseAdset", mock.Anything, "as-1").
		Return(&port.StatusResult{Status: "ok", NewStatus: "paused"}, nil)
	d.store.On("SetRuleExecutionResult", mock.Anything, mock.AnythingOfType("string"), "ok").Return(nil)

	triggers, err := e.CheckRules(context.Background())
	require.NoError(t, err)

	require.Len(t, triggers, 1)
	assert.Equal(t, "r-1", triggers[0].RuleID)
	assert.Equal(t, domain.RuleActionPauseAdset, triggers[0].Action)
	assert.InDelta(t, 1.5, triggers[0].Observed, 1e-9)
	assert.Equal(t, "ok", triggers[0].Result)
	d.vendor.AssertExpectations(t)
}

func TestCheckRulesSkipsAlreadyClaimedWindow(t *testing.T) {
	e, d := newTestEngine(t)

	d.store.On("ListEnabledRules", mock.Anything).Return([]domain.Rule{pauseRule()}, nil)
	d.sync.On("GetReports", mock.Anything, mock.Anything).Return(&domain.Report{
		Adsets: []domain.AdsetPerformance{
			{AdsetID: "as-1", Spend: 1000, Revenue: 1500, Conversions: 5},
		},
	}, nil)
	// Another pass already executed this rule in the current window.
	d.store.On("ClaimRuleExecution", mock.Anything, mock.Anything).Return(false, nil)

	triggers, err := e.CheckRules(context.Background())
	require.NoError(t, err)

	assert.Empty(t, triggers)
	d.vendor.AssertNotCalled(t, "PauseAdset", mock.Anything, mock.Anything)
	d.store.AssertNotCalled(t, "SetRuleExecutionResult", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckRulesConditionNotMet(t *testing.T) {
	e, d := newTestEngine(t)

	d.store.On("ListEnabledRules", mock.Anything).Return([]domain.Rule{pauseRule()}, nil)
	d.sync.On("GetReports", mock.Anything, mock.Anything).Return(&domain.Report{
		Adsets: []domain.AdsetPerformance{
			// ROAS 3.0, above the threshold.
			{AdsetID: "as-1", Spend: 1000, Revenue: 3000, Conversions: 5},
		},
	}, nil)

	triggers, err := e.CheckRules(context.Background())
	require.NoError(t, err)

	assert.Empty(t, triggers)
	d.store.AssertNotCalled(t, "ClaimRuleExecution", mock.Anything, mock.Anything)
}

func TestCheckRulesBudgetActionUsesClampedStep(t *testing.T) {
	e, d := newTestEngine(t)

	rule := pauseRule()
	rule.Action = domain.RuleAction{Type: domain.RuleActionDecreaseBudget}

	d.store.On("ListEnabledRules", mock.Anything).Return([]domain.Rule{rule}, nil)
	d.sync.On("GetReports", mock.Anything, mock.Anything).Return(&domain.Report{
		Adsets: []domain.AdsetPerformance{
			{AdsetID: "as-1", Spend: 1000, Revenue: 1500, Conversions: 5, DailyBudget: 1000},
		},
	}, nil)
	d.store.On("ClaimRuleExecution", mock.Anything, mock.Anything).Return(true, nil)
	d.vendor.On("UpdateBudget", mock.Anything, "as-1", int64(800)).
		Return(&port.BudgetResult{Status: "ok", NewBudget: 800}, nil)
	d.store.On("SetRuleExecutionResult", mock.Anything, mock.AnythingOfType("string"), "ok").Return(nil)

	triggers, err := e.CheckRules(context.Background())
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	d.vendor.AssertExpectations(t)
}
