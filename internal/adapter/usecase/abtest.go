package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
	"adpilot/internal/stats"
)

// broadSegment is the targeting used for A/B variants: the test compares
// creatives, not audiences.
var broadSegment = domain.AgeSegment{Min: 18, Max: 65}

// CreateABTestInput carries the validated create_ab_test parameters.
type CreateABTestInput struct {
	CreativeIDs  []string
	DailyBudget  int64
	DurationDays int
	Platform     string
}

// CreateABTestResult is the success payload of create_ab_test.
type CreateABTestResult struct {
	TestID     string         `json:"test_id"`
	CampaignID string         `json:"campaign_id"`
	Adsets     []domain.Adset `json:"adsets"`
}

// ABTestAnalysis is the success payload of analyze_ab_test. Results are
// ranked by ROAS descending, independent of the statistical winner.
type ABTestAnalysis struct {
	TestID          string                 `json:"test_id"`
	Results         []domain.VariantResult `json:"results"`
	Winner          string                 `json:"winner,omitempty"`
	Confidence      int                    `json:"confidence,omitempty"`
	ChiSquare       float64                `json:"chi_square,omitempty"`
	PValue          float64                `json:"p_value,omitempty"`
	Message         string                 `json:"message,omitempty"`
	Recommendations []string               `json:"recommendations"`
}

func (e *Engine) handleCreateABTest(ctx context.Context, p params, cc domain.CallContext) (any, error) {
	creatives, err := p.strSlice("creative_ids")
	if err != nil {
		return nil, err
	}
	budget, err := p.cents("daily_budget")
	if err != nil {
		return nil, err
	}
	duration, err := p.intVal("test_duration_days", 7)
	if err != nil {
		return nil, err
	}
	return e.CreateABTest(ctx, CreateABTestInput{
		CreativeIDs:  creatives,
		DailyBudget:  budget,
		DurationDays: duration,
		Platform:     p.optStr("platform", e.cfg.DefaultPlatform),
	}, cc)
}

func (e *Engine) handleAnalyzeABTest(ctx context.Context, p params, _ domain.CallContext) (any, error) {
	testID, err := p.str("test_id")
	if err != nil {
		return nil, err
	}
	return e.AnalyzeABTest(ctx, testID)
}

// CreateABTest builds one adset per creative variant under a dedicated
// campaign, each funded with an equal share of the daily budget. The
// shares always sum to the requested budget.
func (e *Engine) CreateABTest(ctx context.Context, in CreateABTestInput, cc domain.CallContext) (*CreateABTestResult, error) {
	if len(in.CreativeIDs) < 2 {
		return nil, domain.NewValidationError("an A/B test needs at least two creative_ids")
	}
	if in.DailyBudget <= 0 {
		return nil, domain.NewBusinessError(domain.CodeInvalidBudget, "daily_budget must be positive")
	}
	if in.DurationDays <= 0 {
		return nil, domain.NewValidationError("test_duration_days must be positive")
	}
	vendor, err := e.platforms.Get(in.Platform)
	if err != nil {
		return nil, err
	}

	testID := uuid.NewString()
	name := fmt.Sprintf("ab test %s", testID[:8])
	created, err := vendor.CreateCampaign(ctx, port.CampaignParams{
		Name:        name,
		Objective:   "conversions",
		DailyBudget: in.DailyBudget,
	})
	if err != nil {
		return nil, err
	}

	shares := domain.SplitBudget(in.DailyBudget, len(in.CreativeIDs))
	adsets := make([]domain.Adset, 0, len(in.CreativeIDs))
	var ads []domain.Ad
	for i, creativeID := range in.CreativeIDs {
		adsetRes, err := vendor.CreateAdset(ctx, port.AdsetParams{
			CampaignID:  created.ID,
			Name:        fmt.Sprintf("%s variant %s", name, creativeID),
			DailyBudget: shares[i],
			Targeting:   domain.Targeting{AgeMin: broadSegment.Min, AgeMax: broadSegment.Max},
			Placement:   "automatic",
		})
		if err != nil {
			return nil, domain.AsEngineError(err).WithDetails(map[string]any{
				"campaign_id":       created.ID,
				"created_adset_ids": adsetIDs(adsets),
			})
		}
		adset := domain.Adset{
			ID:          adsetRes.ID,
			CampaignID:  created.ID,
			Name:        fmt.Sprintf("%s variant %s", name, creativeID),
			DailyBudget: shares[i],
			Targeting:   domain.Targeting{AgeMin: broadSegment.Min, AgeMax: broadSegment.Max},
			BidStrategy: "lowest_cost",
			Placement:   "automatic",
			Status:      "active",
		}
		adsets = append(adsets, adset)

		copyText := e.adCopy(ctx, "conversions", creativeID, broadSegment)
		adRes, err := vendor.CreateAd(ctx, port.AdParams{
			AdsetID:    adsetRes.ID,
			Name:       fmt.Sprintf("%s ad %s", name, creativeID),
			CreativeID: creativeID,
			Copy:       copyText,
		})
		if err != nil {
			return nil, domain.AsEngineError(err).WithDetails(map[string]any{
				"campaign_id":       created.ID,
				"created_adset_ids": adsetIDs(adsets),
			})
		}
		ads = append(ads, domain.Ad{ID: adRes.ID, AdsetID: adsetRes.ID, CreativeID: creativeID, Copy: copyText, Status: "active"})
	}

	test := &domain.ABTest{
		ID:           testID,
		CampaignID:   created.ID,
		CreativeIDs:  in.CreativeIDs,
		AdsetIDs:     adsetIDs(adsets),
		DailyBudget:  in.DailyBudget,
		DurationDays: in.DurationDays,
		Status:       domain.ABTestRunning,
		CreatedAt:    time.Now().UTC(),
	}
	if err := e.store.CreateABTest(ctx, test); err != nil {
		return nil, domain.AsEngineError(err).WithDetails(map[string]any{"campaign_id": created.ID})
	}

	structure := domain.CampaignStructure{
		Campaign: domain.Campaign{
			ID:          created.ID,
			Name:        created.Name,
			Objective:   "conversions",
			DailyBudget: in.DailyBudget,
			Status:      domain.CampaignActive,
			Platform:    in.Platform,
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		},
		Adsets: adsets,
		Ads:    ads,
	}
	if err := e.store.SaveCampaignSnapshot(ctx, structure); err != nil {
		e.logger.Warn("saving ab test snapshot failed", slog.Any("error", err))
	}
	if err := e.sync.CreateCampaign(ctx, cc, structure); err != nil {
		return nil, domain.AsEngineError(err).WithDetails(map[string]any{
			"test_id":     testID,
			"campaign_id": created.ID,
		})
	}

	return &CreateABTestResult{TestID: testID, CampaignID: created.ID, Adsets: adsets}, nil
}

// AnalyzeABTest fetches per-variant performance and, once every variant
// has enough conversions, runs a chi-square test of independence at
// α = 0.05. A winner is declared only on significance; until then the
// caller is told to keep the test running.
func (e *Engine) AnalyzeABTest(ctx context.Context, testID string) (*ABTestAnalysis, error) {
	test, err := e.store.GetABTest(ctx, testID)
	if err != nil {
		return nil, err
	}

	report, err := e.sync.GetReports(ctx, port.ReportsQuery{
		CampaignID: test.CampaignID,
		AdsetIDs:   test.AdsetIDs,
		TimeRange:  fmt.Sprintf("last_%dd", test.DurationDays),
	})
	if err != nil {
		return nil, err
	}

	byAdset := make(map[string]domain.AdsetPerformance, len(report.Adsets))
	for _, perf := range report.Adsets {
		byAdset[perf.AdsetID] = perf
	}

	results := make([]domain.VariantResult, 0, len(test.CreativeIDs))
	for i, creativeID := range test.CreativeIDs {
		var adsetID string
		if i < len(test.AdsetIDs) {
			adsetID = test.AdsetIDs[i]
		}
		perf := byAdset[adsetID]
		r := domain.VariantResult{
			CreativeID:  creativeID,
			AdsetID:     adsetID,
			Impressions: perf.Impressions,
			Conversions: perf.Conversions,
			Spend:       perf.Spend,
			Revenue:     perf.Revenue,
		}
		if perf.Impressions > 0 {
			r.ConversionRate = float64(perf.Conversions) / float64(perf.Impressions)
		}
		if perf.Spend > 0 {
			r.ROAS = float64(perf.Revenue) / float64(perf.Spend)
		}
		results = append(results, r)
	}

	// The sample-size gate runs before any statistics.
	for _, r := range results {
		if r.Conversions < domain.MinConversionsPerVariant {
			rankByROAS(results)
			return &ABTestAnalysis{
				TestID:  testID,
				Results: results,
				Message: "insufficient data, continue testing",
				Recommendations: []string{
					"continue the test until every variant reaches 100 conversions",
					"increase the test budget to gather samples faster",
				},
			}, nil
		}
	}

	conversions := make([]int64, len(results))
	impressions := make([]int64, len(results))
	for i, r := range results {
		conversions[i] = r.Conversions
		impressions[i] = r.Impressions
	}
	chi2, pValue, err := stats.ChiSquareIndependence(conversions, impressions)
	if err != nil {
		return nil, domain.NewBusinessError(domain.CodeInvalidParams, "variant data does not form a valid contingency table").WithCause(err)
	}

	analysis := &ABTestAnalysis{TestID: testID, Results: results, ChiSquare: chi2, PValue: pValue}

	if pValue < 0.05 {
		winner := results[0]
		for _, r := range results[1:] {
			if r.ConversionRate > winner.ConversionRate {
				winner = r
			}
		}
		analysis.Winner = winner.CreativeID
		analysis.Confidence = roundConfidence(pValue)

		rankByROAS(analysis.Results)
		loser := analysis.Results[len(analysis.Results)-1]
		analysis.Recommendations = []string{
			fmt.Sprintf("pause variant %s, the lowest-ROAS creative", loser.CreativeID),
			fmt.Sprintf("increase the budget of winner %s by 50%%", winner.CreativeID),
		}

		if err := e.store.CompleteABTest(ctx, testID, winner.CreativeID); err != nil {
			e.logger.Warn("marking ab test completed failed",
				slog.String("test_id", testID),
				slog.Any("error", err))
		}
		return analysis, nil
	}

	rankByROAS(analysis.Results)
	analysis.Recommendations = []string{
		"no significant difference yet, continue the test",
		"increase sample size before deciding on a winner",
	}
	return analysis, nil
}

func rankByROAS(results []domain.VariantResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ROAS > results[j].ROAS
	})
}

func roundConfidence(p float64) int {
	return int(math.Round(100 * (1 - p)))
}
