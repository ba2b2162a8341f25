package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adpilot/internal/core/domain"
)

// EngineStore implements port.EngineStore using pgxpool for PostgreSQL. It
// holds the engine's operational state only: rules, the execution log, A/B
// tests and campaign snapshots.
type EngineStore struct {
	pool *pgxpool.Pool
}

// NewEngineStore returns a new store instance.
func NewEngineStore(pool *pgxpool.Pool) *EngineStore {
	return &EngineStore{pool: pool}
}

// CreateRule stores a rule. Condition, action and target are kept as JSONB
// so the evaluator's schema can grow without migrations.
func (s *EngineStore) CreateRule(ctx context.Context, rule *domain.Rule) error {
	condition, err := json.Marshal(rule.Condition)
	if err != nil {
		return err
	}
	action, err := json.Marshal(rule.Action)
	if err != nil {
		return err
	}
	target, err := json.Marshal(rule.AppliesTo)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
        INSERT INTO rules (id, name, condition, action, applies_to, check_interval_seconds, enabled, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rule.ID, rule.Name, condition, action, target,
		int64(rule.CheckInterval.Seconds()), rule.Enabled, rule.CreatedAt)
	return err
}

// ListEnabledRules returns every enabled rule in creation order.
func (s *EngineStore) ListEnabledRules(ctx context.Context) ([]domain.Rule, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id, name, condition, action, applies_to, check_interval_seconds, enabled, created_at
        FROM rules WHERE enabled ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Rule, error) {
		var (
			r                         domain.Rule
			condition, action, target []byte
			intervalSeconds           int64
		)
		if err := row.Scan(&r.ID, &r.Name, &condition, &action, &target, &intervalSeconds, &r.Enabled, &r.CreatedAt); err != nil {
			return r, err
		}
		if err := json.Unmarshal(condition, &r.Condition); err != nil {
			return r, err
		}
		if err := json.Unmarshal(action, &r.Action); err != nil {
			return r, err
		}
		if err := json.Unmarshal(target, &r.AppliesTo); err != nil {
			return r, err
		}
		r.CheckInterval = time.Duration(intervalSeconds) * time.Second
		return r, nil
	})
}

// SetRuleEnabled flips a rule on or off.
func (s *EngineStore) SetRuleEnabled(ctx context.Context, ruleID string, enabled bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE rules SET enabled = $2 WHERE id = $1`, ruleID, enabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewBusinessError(domain.CodeRuleNotFound, "rule not found")
	}
	return nil
}

// ClaimRuleExecution appends an execution-log entry unless the
// (rule_id, window_start) pair already exists. The unique constraint makes
// re-evaluation of a window a no-op.
func (s *EngineStore) ClaimRuleExecution(ctx context.Context, exec domain.RuleExecution) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
        INSERT INTO rule_executions (id, rule_id, target_id, action, window_start, executed_at, result)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (rule_id, window_start) DO NOTHING`,
		exec.ID, exec.RuleID, exec.TargetID, exec.Action, exec.WindowStart, exec.ExecutedAt, exec.Result)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetRuleExecutionResult records the action outcome on a claimed entry.
func (s *EngineStore) SetRuleExecutionResult(ctx context.Context, execID, result string) error {
	_, err := s.pool.Exec(ctx, `UPDATE rule_executions SET result = $2 WHERE id = $1`, execID, result)
	return err
}

// ListRuleExecutions returns log entries for a rule since the given time.
func (s *EngineStore) ListRuleExecutions(ctx context.Context, ruleID string, since time.Time) ([]domain.RuleExecution, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id, rule_id, target_id, action, window_start, executed_at, result
        FROM rule_executions WHERE rule_id = $1 AND executed_at >= $2
        ORDER BY executed_at`, ruleID, since)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.RuleExecution, error) {
		var e domain.RuleExecution
		err := row.Scan(&e.ID, &e.RuleID, &e.TargetID, &e.Action, &e.WindowStart, &e.ExecutedAt, &e.Result)
		return e, err
	})
}

// CreateABTest stores a running test.
func (s *EngineStore) CreateABTest(ctx context.Context, test *domain.ABTest) error {
	creatives, err := json.Marshal(test.CreativeIDs)
	if err != nil {
		return err
	}
	adsets, err := json.Marshal(test.AdsetIDs)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
        INSERT INTO ab_tests (id, campaign_id, creative_ids, adset_ids, daily_budget, duration_days, status, winner, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		test.ID, test.CampaignID, creatives, adsets,
		test.DailyBudget, test.DurationDays, string(test.Status), test.Winner, test.CreatedAt)
	return err
}

// GetABTest loads a test by id.
func (s *EngineStore) GetABTest(ctx context.Context, testID string) (*domain.ABTest, error) {
	var (
		t                 domain.ABTest
		creatives, adsets []byte
		status            string
	)
	err := s.pool.QueryRow(ctx, `
        SELECT id, campaign_id, creative_ids, adset_ids, daily_budget, duration_days, status, winner, created_at
        FROM ab_tests WHERE id = $1`, testID).
		Scan(&t.ID, &t.CampaignID, &creatives, &adsets, &t.DailyBudget, &t.DurationDays, &status, &t.Winner, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewBusinessError(domain.CodeTestNotFound, "ab test not found")
	}
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(creatives, &t.CreativeIDs); err != nil {
		return nil, err
	}
	if err = json.Unmarshal(adsets, &t.AdsetIDs); err != nil {
		return nil, err
	}
	t.Status = domain.ABTestStatus(status)
	return &t, nil
}

// CompleteABTest marks a test completed with its winner.
func (s *EngineStore) CompleteABTest(ctx context.Context, testID, winner string) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE ab_tests SET status = $2, winner = $3 WHERE id = $1`,
		testID, string(domain.ABTestCompleted), winner)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewBusinessError(domain.CodeTestNotFound, "ab test not found")
	}
	return nil
}

// SaveCampaignSnapshot upserts the structure produced by create_campaign.
func (s *EngineStore) SaveCampaignSnapshot(ctx context.Context, structure domain.CampaignStructure) error {
	payload, err := json.Marshal(structure)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
        INSERT INTO campaign_snapshots (campaign_id, platform, status, structure, updated_at)
        VALUES ($1, $2, $3, $4, now())
        ON CONFLICT (campaign_id) DO UPDATE
        SET platform = EXCLUDED.platform, status = EXCLUDED.status,
            structure = EXCLUDED.structure, updated_at = now()`,
		structure.Campaign.ID, structure.Campaign.Platform, string(structure.Campaign.Status), payload)
	return err
}

// GetCampaignSnapshot loads the stored structure for a campaign.
func (s *EngineStore) GetCampaignSnapshot(ctx context.Context, campaignID string) (*domain.CampaignStructure, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT structure FROM campaign_snapshots WHERE campaign_id = $1`, campaignID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewBusinessError(domain.CodeCampaignNotFound, "campaign not found")
	}
	if err != nil {
		return nil, err
	}
	var structure domain.CampaignStructure
	if err = json.Unmarshal(payload, &structure); err != nil {
		return nil, err
	}
	return &structure, nil
}

// UpdateCampaignStatus records a status transition on the snapshot.
func (s *EngineStore) UpdateCampaignStatus(ctx context.Context, campaignID string, status domain.CampaignStatus) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE campaign_snapshots
        SET status = $2,
            structure = jsonb_set(structure, '{campaign,Status}', to_jsonb($2::text)),
            updated_at = now()
        WHERE campaign_id = $1`, campaignID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewBusinessError(domain.CodeCampaignNotFound, "campaign not found")
	}
	return nil
}
