package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
	"adpilot/internal/metrics"
)

// CreateRuleResult is the success payload of create_rule.
type CreateRuleResult struct {
	RuleID string `json:"rule_id"`
}

func (e *Engine) handleCreateRule(ctx context.Context, p params, cc domain.CallContext) (any, error) {
	name, err := p.str("rule_name")
	if err != nil {
		return nil, err
	}
	conditionObj, err := p.obj("condition")
	if err != nil {
		return nil, err
	}
	actionObj, err := p.obj("action")
	if err != nil {
		return nil, err
	}
	targetObj, err := p.obj("applies_to")
	if err != nil {
		return nil, err
	}

	var condition domain.Condition
	if err := decodeObject(conditionObj, &condition); err != nil {
		return nil, domain.NewValidationError("condition is malformed").WithCause(err)
	}
	var action domain.RuleAction
	if err := decodeObject(actionObj, &action); err != nil {
		return nil, domain.NewValidationError("action is malformed").WithCause(err)
	}
	var target domain.RuleTarget
	if err := decodeObject(targetObj, &target); err != nil {
		return nil, domain.NewValidationError("applies_to is malformed").WithCause(err)
	}

	intervalSeconds, err := p.intVal("check_interval", int(domain.DefaultCheckInterval.Seconds()))
	if err != nil {
		return nil, err
	}
	return e.CreateRule(ctx, name, condition, action, target, time.Duration(intervalSeconds)*time.Second)
}

// CreateRule validates and stores a condition→action rule. The rule is
// evaluated on every scheduler pass but acts at most once per
// check-interval window.
func (e *Engine) CreateRule(ctx context.Context, name string, condition domain.Condition, action domain.RuleAction, target domain.RuleTarget, interval time.Duration) (*CreateRuleResult, error) {
	if err := condition.Validate(); err != nil {
		return nil, err
	}
	switch action.Type {
	case domain.RuleActionPauseAdset, domain.RuleActionPauseCampaign,
		domain.RuleActionDecreaseBudget, domain.RuleActionIncreaseBudget,
		domain.RuleActionNotify:
	default:
		return nil, domain.NewValidationError(fmt.Sprintf("unknown rule action %q", action.Type))
	}
	if target.ID == "" || (target.Type != "adset" && target.Type != "campaign") {
		return nil, domain.NewValidationError("applies_to needs a type of adset or campaign and an id")
	}
	if _, err := e.platforms.Get(target.Platform); err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, domain.NewValidationError("check_interval must be positive")
	}

	rule := &domain.Rule{
		ID:            uuid.NewString(),
		Name:          name,
		Condition:     condition,
		Action:        action,
		AppliesTo:     target,
		CheckInterval: interval,
		Enabled:       true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := e.store.CreateRule(ctx, rule); err != nil {
		return nil, domain.AsEngineError(err)
	}
	return &CreateRuleResult{RuleID: rule.ID}, nil
}

// CheckRules evaluates every enabled rule against its latest metric value
// and executes the mapped action for each match. The execution log claims
// the (rule, window) pair before the action runs, so re-running the same
// window never re-triggers it.
func (e *Engine) CheckRules(ctx context.Context) ([]domain.RuleTrigger, error) {
	rules, err := e.store.ListEnabledRules(ctx)
	if err != nil {
		return nil, domain.AsEngineError(err)
	}

	now := time.Now().UTC()
	var triggers []domain.RuleTrigger
	for _, rule := range rules {
		observed, perf, err := e.observeRuleMetric(ctx, rule)
		if err != nil {
			e.logger.Warn("rule metric fetch failed",
				slog.String("rule_id", rule.ID),
				slog.Any("error", err))
			continue
		}
		if !rule.Condition.Matches(observed) {
			continue
		}

		exec := domain.RuleExecution{
			ID:          uuid.NewString(),
			RuleID:      rule.ID,
			TargetID:    rule.AppliesTo.ID,
			Action:      rule.Action.Type,
			WindowStart: rule.EvaluationWindow(now),
			ExecutedAt:  now,
			Result:      "pending",
		}
		claimed, err := e.store.ClaimRuleExecution(ctx, exec)
		if err != nil {
			e.logger.Error("claiming rule execution failed",
				slog.String("rule_id", rule.ID),
				slog.Any("error", err))
			continue
		}
		if !claimed {
			// Already executed for this window.
			continue
		}

		result := "ok"
		if err := e.executeRuleAction(ctx, rule, perf); err != nil {
			result = fmt.Sprintf("error: %v", err)
		}
		if err := e.store.SetRuleExecutionResult(ctx, exec.ID, result); err != nil {
			e.logger.Error("recording rule result failed",
				slog.String("rule_id", rule.ID),
				slog.Any("error", err))
		}
		metrics.RecordRuleTrigger(rule.Action.Type, resultLabel(result))
		e.logger.Info("rule triggered",
			slog.String("rule_id", rule.ID),
			slog.String("target_id", rule.AppliesTo.ID),
			slog.String("action", rule.Action.Type),
			slog.Float64("observed", observed),
			slog.String("result", result))

		triggers = append(triggers, domain.RuleTrigger{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			TargetID: rule.AppliesTo.ID,
			Action:   rule.Action.Type,
			Observed: observed,
			Result:   result,
		})
	}
	return triggers, nil
}

// observeRuleMetric fetches the latest value of the rule's metric within
// its time range, aggregated across the target's report rows.
func (e *Engine) observeRuleMetric(ctx context.Context, rule domain.Rule) (float64, domain.AdsetPerformance, error) {
	q := port.ReportsQuery{TimeRange: rule.Condition.TimeRange}
	if rule.AppliesTo.Type == "campaign" {
		q.CampaignID = rule.AppliesTo.ID
	} else {
		q.AdsetIDs = []string{rule.AppliesTo.ID}
	}
	report, err := e.sync.GetReports(ctx, q)
	if err != nil {
		return 0, domain.AdsetPerformance{}, err
	}
	if len(report.Adsets) == 0 {
		return 0, domain.AdsetPerformance{}, domain.NewBusinessError(domain.CodeCampaignNotFound, "no report rows for rule target")
	}

	agg := aggregatePerformance(report.Adsets)
	value, ok := agg.Metric(rule.Condition.Metric)
	if !ok {
		return 0, agg, domain.NewBusinessError(domain.CodeInvalidRuleCondition,
			fmt.Sprintf("unknown metric %q", rule.Condition.Metric))
	}
	return value, agg, nil
}

// aggregatePerformance sums raw counters across rows and recomputes the
// derived metrics on the totals.
func aggregatePerformance(rows []domain.AdsetPerformance) domain.AdsetPerformance {
	var agg domain.AdsetPerformance
	for _, r := range rows {
		agg.Spend += r.Spend
		agg.Revenue += r.Revenue
		agg.Impressions += r.Impressions
		agg.Clicks += r.Clicks
		agg.Conversions += r.Conversions
		agg.DailyBudget += r.DailyBudget
		if r.DaysRunning > agg.DaysRunning {
			agg.DaysRunning = r.DaysRunning
		}
	}
	agg.AdsetID = rows[0].AdsetID
	if agg.Spend > 0 {
		agg.ROAS = float64(agg.Revenue) / float64(agg.Spend)
	}
	if agg.Conversions > 0 {
		agg.CPA = float64(agg.Spend) / float64(agg.Conversions)
	}
	return agg
}

// executeRuleAction performs the platform side effect for a triggered
// rule. Budget changes reuse the optimizer's 20% step and 50% clamp.
func (e *Engine) executeRuleAction(ctx context.Context, rule domain.Rule, perf domain.AdsetPerformance) error {
	if rule.Action.Type == domain.RuleActionNotify {
		return nil
	}
	vendor, err := e.platforms.Get(rule.AppliesTo.Platform)
	if err != nil {
		return err
	}

	switch rule.Action.Type {
	case domain.RuleActionPauseAdset:
		_, err = vendor.PauseAdset(ctx, rule.AppliesTo.ID)
	case domain.RuleActionPauseCampaign:
		if _, err = vendor.UpdateCampaignStatus(ctx, rule.AppliesTo.ID, domain.CampaignPaused); err == nil {
			if storeErr := e.store.UpdateCampaignStatus(ctx, rule.AppliesTo.ID, domain.CampaignPaused); storeErr != nil {
				e.logger.Warn("snapshot status update failed", slog.Any("error", storeErr))
			}
			if cacheErr := e.cache.Invalidate(ctx, statusCacheKey(rule.AppliesTo.ID)); cacheErr != nil {
				e.logger.Warn("cache invalidation failed", slog.Any("error", cacheErr))
			}
		}
	case domain.RuleActionIncreaseBudget, domain.RuleActionDecreaseBudget:
		if perf.DailyBudget <= 0 {
			return domain.NewBusinessError(domain.CodeInvalidBudget, "target budget unknown, cannot adjust")
		}
		proposed := perf.DailyBudget * 12 / 10
		if rule.Action.Type == domain.RuleActionDecreaseBudget {
			proposed = perf.DailyBudget * 8 / 10
		}
		_, err = vendor.UpdateBudget(ctx, rule.AppliesTo.ID, clampBudgetChange(perf.DailyBudget, proposed))
	}
	return err
}

func resultLabel(result string) string {
	if result == "ok" {
		return "success"
	}
	return "failure"
}

func decodeObject(in map[string]any, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
