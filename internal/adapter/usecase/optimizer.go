package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

// Adjustment is one budget decision issued by the optimizer. Adsets with
// no triggered rule are omitted entirely, not reported as no-ops.
type Adjustment struct {
	AdsetID   string `json:"adset_id"`
	Action    string `json:"action"` // increase_budget, decrease_budget, pause
	OldBudget int64  `json:"old_budget"`
	NewBudget int64  `json:"new_budget"`
	Reason    string `json:"reason"`
}

// OptimizeResult is the success payload of optimize_budget.
type OptimizeResult struct {
	CampaignID    string       `json:"campaign_id"`
	TargetMetric  string       `json:"target_metric"`
	Optimizations []Adjustment `json:"optimizations"`
}

type optimizeTargets struct {
	ROAS float64
	CPA  float64 // cents
}

func (e *Engine) handleOptimizeBudget(ctx context.Context, p params, cc domain.CallContext) (any, error) {
	campaignID, err := p.str("campaign_id")
	if err != nil {
		return nil, err
	}
	metric, err := p.str("target_metric")
	if err != nil {
		return nil, err
	}
	return e.OptimizeBudget(ctx, campaignID, metric, cc)
}

// OptimizeBudget reads per-adset performance and applies the numeric
// rules: scale up clear winners, scale down expensive adsets, pause dead
// ones. Each decision is clamped so no single change moves a budget by
// more than half its prior value.
func (e *Engine) OptimizeBudget(ctx context.Context, campaignID, targetMetric string, cc domain.CallContext) (*OptimizeResult, error) {
	snapshot, err := e.store.GetCampaignSnapshot(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	vendor, err := e.platforms.Get(snapshot.Campaign.Platform)
	if err != nil {
		return nil, err
	}

	report, err := e.sync.GetReports(ctx, port.ReportsQuery{CampaignID: campaignID, TimeRange: "last_7d"})
	if err != nil {
		return nil, err
	}

	targets := optimizeTargets{ROAS: e.cfg.TargetROAS, CPA: e.cfg.TargetCPA}
	applied := make([]Adjustment, 0, len(report.Adsets))
	for _, perf := range report.Adsets {
		adj := decideAdjustment(perf, targets)
		if adj == nil {
			continue
		}

		if adj.Action == "pause" {
			_, err = vendor.PauseAdset(ctx, adj.AdsetID)
		} else {
			_, err = vendor.UpdateBudget(ctx, adj.AdsetID, adj.NewBudget)
		}
		if err != nil {
			return nil, domain.AsEngineError(err).WithDetails(map[string]any{
				"campaign_id":           campaignID,
				"applied_optimizations": applied,
			})
		}
		applied = append(applied, *adj)
	}

	if len(applied) > 0 {
		budgets := make(map[string]int64, len(applied))
		for _, adj := range applied {
			budgets[adj.AdsetID] = adj.NewBudget
		}
		if err := e.sync.UpdateCampaign(ctx, cc, campaignID, map[string]any{"adset_budgets": budgets}); err != nil {
			e.logger.Warn("syncing optimized budgets failed",
				slog.String("campaign_id", campaignID),
				slog.Any("error", err))
		}
		if err := e.cache.Invalidate(ctx, statusCacheKey(campaignID)); err != nil {
			e.logger.Warn("cache invalidation failed", slog.Any("error", err))
		}
	}

	return &OptimizeResult{CampaignID: campaignID, TargetMetric: targetMetric, Optimizations: applied}, nil
}

// decideAdjustment applies the optimization rules to one adset. It is a
// pure function: the zero-conversion pause wins over everything else, then
// the ROAS and CPA thresholds are checked in turn. Nil means leave the
// adset alone.
func decideAdjustment(p domain.AdsetPerformance, t optimizeTargets) *Adjustment {
	if p.Conversions == 0 && p.DaysRunning >= 3 {
		return &Adjustment{
			AdsetID:   p.AdsetID,
			Action:    "pause",
			OldBudget: p.DailyBudget,
			NewBudget: 0,
			Reason:    fmt.Sprintf("no conversions after %d days", p.DaysRunning),
		}
	}
	if t.ROAS > 0 && p.ROAS > t.ROAS*1.5 {
		newBudget := clampBudgetChange(p.DailyBudget, p.DailyBudget*12/10)
		return &Adjustment{
			AdsetID:   p.AdsetID,
			Action:    "increase_budget",
			OldBudget: p.DailyBudget,
			NewBudget: newBudget,
			Reason:    fmt.Sprintf("ROAS %.2f is %.1fx the %.2f target", p.ROAS, p.ROAS/t.ROAS, t.ROAS),
		}
	}
	if t.CPA > 0 && p.CPA > t.CPA*1.5 {
		newBudget := clampBudgetChange(p.DailyBudget, p.DailyBudget*8/10)
		return &Adjustment{
			AdsetID:   p.AdsetID,
			Action:    "decrease_budget",
			OldBudget: p.DailyBudget,
			NewBudget: newBudget,
			Reason:    fmt.Sprintf("CPA $%.2f is %.1fx the $%.2f target", p.CPA/100, p.CPA/t.CPA, t.CPA/100),
		}
	}
	return nil
}

// clampBudgetChange caps a proposed budget so the delta never exceeds 50%
// of the prior value.
func clampBudgetChange(old, proposed int64) int64 {
	limit := old / 2
	switch {
	case proposed > old+limit:
		return old + limit
	case proposed < old-limit:
		return old - limit
	default:
		return proposed
	}
}
