package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

func TestDecideAdjustment(t *testing.T) {
	targets := optimizeTargets{ROAS: 3.0, CPA: 1000}

	tests := []struct {
		name       string
		perf       domain.AdsetPerformance
		wantAction string
		wantBudget int64
	}{
		{
			name: "high roas scales up 20 percent",
			perf: domain.AdsetPerformance{
				AdsetID: "as-1", DailyBudget: 1000, ROAS: 5.0, CPA: 500,
				Conversions: 40, DaysRunning: 7,
			},
			wantAction: "increase_budget",
			wantBudget: 1200,
		},
		{
			name: "roas at threshold is left alone",
			perf: domain.AdsetPerformance{
				AdsetID: "as-2", DailyBudget: 1000, ROAS: 4.5, CPA: 500,
				Conversions: 40, DaysRunning: 7,
			},
		},
		{
			name: "expensive cpa scales down 20 percent",
			perf: domain.AdsetPerformance{
				AdsetID: "as-3", DailyBudget: 1000, ROAS: 2.0, CPA: 2000,
				Conversions: 5, DaysRunning: 7,
			},
			wantAction: "decrease_budget",
			wantBudget: 800,
		},
		{
			name: "dead adset is paused even with strong roas",
			perf: domain.AdsetPerformance{
				AdsetID: "as-4", DailyBudget: 1000, ROAS: 9.0, CPA: 0,
				Conversions: 0, DaysRunning: 3,
			},
			wantAction: "pause",
			wantBudget: 0,
		},
		{
			name: "zero conversions but still warming up",
			perf: domain.AdsetPerformance{
				AdsetID: "as-5", DailyBudget: 1000, Conversions: 0, DaysRunning: 2,
			},
		},
		{
			name: "healthy adset untouched",
			perf: domain.AdsetPerformance{
				AdsetID: "as-6", DailyBudget: 1000, ROAS: 3.2, CPA: 900,
				Conversions: 12, DaysRunning: 7,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj := decideAdjustment(tt.perf, targets)
			if tt.wantAction == "" {
				assert.Nil(t, adj)
				return
			}
			require.NotNil(t, adj)
			assert.Equal(t, tt.wantAction, adj.Action)
			assert.Equal(t, tt.wantBudget, adj.NewBudget)
			assert.Equal(t, tt.perf.DailyBudget, adj.OldBudget)
			assert.NotEmpty(t, adj.Reason)
		})
	}
}

func TestClampBudgetChange(t *testing.T) {
	assert.Equal(t, int64(1500), clampBudgetChange(1000, 2000), "raise capped at +50%")
	assert.Equal(t, int64(500), clampBudgetChange(1000, 100), "cut capped at -50%")
	assert.Equal(t, int64(1200), clampBudgetChange(1000, 1200), "in-range changes pass through")
	assert.Equal(t, int64(1000), clampBudgetChange(1000, 1000))
}

func TestOptimizeBudgetAppliesDecisions(t *testing.T) {
	e, d := newTestEngine(t)
	ctx := context.Background()

	d.store.On("GetCampaignSnapshot", mock.Anything, "c-1").Return(&domain.CampaignStructure{
		Campaign: domain.Campaign{ID: "c-1", Platform: "meta", Status: domain.CampaignActive},
	}, nil)
	d.sync.On("GetReports", mock.Anything, mock.MatchedBy(func(q port.ReportsQuery) bool {
		return q.CampaignID == "c-1" && q.TimeRange == "last_7d"
	})).Return(&domain.Report{
		CampaignID: "c-1",
		Adsets: []domain.AdsetPerformance{
			{AdsetID: "as-up", DailyBudget: 1000, ROAS: 5.0, Conversions: 40, DaysRunning: 7},
			{AdsetID: "as-dead", DailyBudget: 800, Conversions: 0, DaysRunning: 5},
			{AdsetID: "as-ok", DailyBudget: 500, ROAS: 3.0, CPA: 900, Conversions: 10, DaysRunning: 7},
		},
	}, nil)
	d.vendor.On("UpdateBudget", mock.Anything, "as-up", int64(1200)).
		Return(&port.BudgetResult{Status: "ok", NewBudget: 1200}, nil)
	d.vendor.On("PauseAdset", mock.Anything, "as-dead").
		Return(&port.StatusResult{Status: "ok", NewStatus: "paused"}, nil)
	d.sync.On("UpdateCampaign", mock.Anything, mock.Anything, "c-1", mock.MatchedBy(func(fields map[string]any) bool {
		budgets, ok := fields["adset_budgets"].(map[string]int64)
		return ok && budgets["as-up"] == 1200 && budgets["as-dead"] == 0
	})).Return(nil)

	res, err := e.OptimizeBudget(ctx, "c-1", "roas", testCallContext())
	require.NoError(t, err)

	require.Len(t, res.Optimizations, 2, "the healthy adset must not appear")
	assert.Equal(t, "increase_budget", res.Optimizations[0].Action)
	assert.Equal(t, "pause", res.Optimizations[1].Action)
	d.vendor.AssertExpectations(t)
	d.sync.AssertExpectations(t)
}

func TestOptimizeBudgetPlatformFailureReportsApplied(t *testing.T) {
	e, d := newTestEngine(t)

	d.store.On("GetCampaignSnapshot", mock.Anything, "c-1").Return(&domain.CampaignStructure{
		Campaign: domain.Campaign{ID: "c-1", Platform: "meta"},
	}, nil)
	d.sync.On("GetReports", mock.Anything, mock.Anything).Return(&domain.Report{
		CampaignID: "c-1",
		Adsets: []domain.AdsetPerformance{
			{AdsetID: "as-1", DailyBudget: 1000, ROAS: 5.0, Conversions: 40, DaysRunning: 7},
			{AdsetID: "as-2", DailyBudget: 1000, ROAS: 5.0, Conversions: 40, DaysRunning: 7},
		},
	}, nil)
	d.vendor.On("UpdateBudget", mock.Anything, "as-1", int64(1200)).
		Return(&port.BudgetResult{Status: "ok", NewBudget: 1200}, nil)
	d.vendor.On("UpdateBudget", mock.Anything, "as-2", int64(1200)).
		Return(nil, domain.NewPlatformError(domain.CodeTokenExpired, "token expired"))

	_, err := e.OptimizeBudget(context.Background(), "c-1", "roas", testCallContext())
	require.Error(t, err)

	engErr := domain.AsEngineError(err)
	assert.Equal(t, domain.CodeTokenExpired, engErr.Code)
	applied, ok := engErr.Details["applied_optimizations"].([]Adjustment)
	require.True(t, ok)
	require.Len(t, applied, 1)
	assert.Equal(t, "as-1", applied[0].AdsetID)
}
