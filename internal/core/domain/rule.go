package domain

import (
	"fmt"
	"time"
)

// DefaultCheckInterval is applied when create_rule omits check_interval.
const DefaultCheckInterval = 21600 * time.Second // 6 hours

// Rule is a stored condition→action automation. Rules reference campaigns
// or adsets by id only; they do not own them.
type Rule struct {
	ID            string
	Name          string
	Condition     Condition
	Action        RuleAction
	AppliesTo     RuleTarget
	CheckInterval time.Duration
	Enabled       bool
	CreatedAt     time.Time
}

// Condition compares a performance metric against a threshold over a time
// range (e.g. roas < 2.0 over last_7d).
type Condition struct {
	Metric    string  `json:"metric"`
	Operator  string  `json:"operator"`
	Value     float64 `json:"value"`
	TimeRange string  `json:"time_range"`
}

// Matches evaluates the condition against an observed metric value. It is a
// pure function so trigger decisions are testable without platform calls.
func (c Condition) Matches(observed float64) bool {
	switch c.Operator {
	case "gt", ">":
		return observed > c.Value
	case "gte", ">=":
		return observed >= c.Value
	case "lt", "<":
		return observed < c.Value
	case "lte", "<=":
		return observed <= c.Value
	case "eq", "==":
		return observed == c.Value
	default:
		return false
	}
}

// Validate rejects conditions the evaluator cannot execute.
func (c Condition) Validate() error {
	switch c.Operator {
	case "gt", ">", "gte", ">=", "lt", "<", "lte", "<=", "eq", "==":
	default:
		return NewBusinessError(CodeInvalidRuleCondition, fmt.Sprintf("unknown operator %q", c.Operator))
	}
	if c.Metric == "" {
		return NewBusinessError(CodeInvalidRuleCondition, "condition metric is required")
	}
	return nil
}

// RuleAction names the platform action executed when the condition matches.
type RuleAction struct {
	Type string `json:"type"`
}

// Rule action types.
const (
	RuleActionPauseAdset     = "pause_adset"
	RuleActionPauseCampaign  = "pause_campaign"
	RuleActionDecreaseBudget = "decrease_budget"
	RuleActionIncreaseBudget = "increase_budget"
	RuleActionNotify         = "notify"
)

// RuleTarget is a weak reference to the campaign or adset a rule applies to.
type RuleTarget struct {
	Type     string `json:"type"` // "campaign" or "adset"
	ID       string `json:"id"`
	Platform string `json:"platform"`
}

// RuleExecution is one immutable entry in the rule execution log. The
// (RuleID, WindowStart) pair is unique: re-evaluating the same window never
// re-triggers an already-executed action.
type RuleExecution struct {
	ID          string
	RuleID      string
	TargetID    string
	Action      string
	WindowStart time.Time
	ExecutedAt  time.Time
	Result      string
}

// EvaluationWindow returns the idempotency window containing now for this
// rule's check interval.
func (r Rule) EvaluationWindow(now time.Time) time.Time {
	return now.UTC().Truncate(r.CheckInterval)
}

// RuleTrigger is the notification payload returned for every rule that
// fired during a check_rules pass.
type RuleTrigger struct {
	RuleID   string  `json:"rule_id"`
	RuleName string  `json:"rule_name"`
	TargetID string  `json:"target_id"`
	Action   string  `json:"action"`
	Observed float64 `json:"observed_value"`
	Result   string  `json:"result"`
}
