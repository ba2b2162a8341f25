package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"adpilot/internal/adapter/copywriter"
	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
)

// CreateCampaignInput carries the validated create_campaign parameters.
type CreateCampaignInput struct {
	Objective       string
	DailyBudget     int64
	TargetCountries []string
	CreativeIDs     []string
	Platform        string
}

// CreateCampaignResult is the success payload of create_campaign.
type CreateCampaignResult struct {
	CampaignID string         `json:"campaign_id"`
	Adsets     []domain.Adset `json:"adsets"`
	Ads        []domain.Ad    `json:"ads"`
}

func (e *Engine) handleCreateCampaign(ctx context.Context, p params, cc domain.CallContext) (any, error) {
	objective, err := p.str("objective")
	if err != nil {
		return nil, err
	}
	budget, err := p.cents("daily_budget")
	if err != nil {
		return nil, err
	}
	creatives, err := p.strSlice("creative_ids")
	if err != nil {
		return nil, err
	}
	platformName, err := p.str("platform")
	if err != nil {
		return nil, err
	}
	return e.CreateCampaign(ctx, CreateCampaignInput{
		Objective:       objective,
		DailyBudget:     budget,
		TargetCountries: p.optStrSlice("target_countries"),
		CreativeIDs:     creatives,
		Platform:        platformName,
	}, cc)
}

// CreateCampaign builds the campaign/adset/ad tree on the requested
// platform. The daily budget is split evenly across the fixed age
// segments, one adset per segment; every (adset, creative) pair gets one
// ad. Adsets fan out concurrently but steps within one adset stay
// ordered. On failure the ids created so far are reported in the error
// details; there is no automatic rollback.
func (e *Engine) CreateCampaign(ctx context.Context, in CreateCampaignInput, cc domain.CallContext) (*CreateCampaignResult, error) {
	if in.DailyBudget <= 0 {
		return nil, domain.NewBusinessError(domain.CodeInvalidBudget, "daily_budget must be positive")
	}
	if len(in.CreativeIDs) == 0 {
		return nil, domain.NewBusinessError(domain.CodeCreativeNotFound, "at least one creative_id is required")
	}
	vendor, err := e.platforms.Get(in.Platform)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s campaign %s", in.Objective, time.Now().Format("2006-01-02"))
	created, err := vendor.CreateCampaign(ctx, port.CampaignParams{
		Name:        name,
		Objective:   in.Objective,
		DailyBudget: in.DailyBudget,
	})
	if err != nil {
		return nil, err
	}

	segments := domain.AgeSegments
	shares := domain.SplitBudget(in.DailyBudget, len(segments))

	// Indexed per segment so goroutines never share slots.
	adsets := make([]domain.Adset, len(segments))
	ads := make([][]domain.Ad, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	for i, seg := range segments {
		g.Go(func() error {
			adsetRes, err := vendor.CreateAdset(gctx, port.AdsetParams{
				CampaignID:  created.ID,
				Name:        fmt.Sprintf("%s ages %d-%d", name, seg.Min, seg.Max),
				DailyBudget: shares[i],
				Targeting: domain.Targeting{
					AgeMin:    seg.Min,
					AgeMax:    seg.Max,
					Countries: in.TargetCountries,
				},
				Placement: "automatic",
			})
			if err != nil {
				return err
			}
			adsets[i] = domain.Adset{
				ID:          adsetRes.ID,
				CampaignID:  created.ID,
				Name:        fmt.Sprintf("%s ages %d-%d", name, seg.Min, seg.Max),
				DailyBudget: shares[i],
				Targeting:   domain.Targeting{AgeMin: seg.Min, AgeMax: seg.Max, Countries: in.TargetCountries},
				BidStrategy: "lowest_cost",
				Placement:   "automatic",
				Status:      "active",
			}

			for _, creativeID := range in.CreativeIDs {
				copyText := e.adCopy(gctx, in.Objective, creativeID, seg)
				adRes, err := vendor.CreateAd(gctx, port.AdParams{
					AdsetID:    adsetRes.ID,
					Name:       fmt.Sprintf("%s creative %s", name, creativeID),
					CreativeID: creativeID,
					Copy:       copyText,
				})
				if err != nil {
					return err
				}
				ads[i] = append(ads[i], domain.Ad{
					ID:         adRes.ID,
					AdsetID:    adsetRes.ID,
					CreativeID: creativeID,
					Copy:       copyText,
					Status:     "active",
				})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		createdAdsets, createdAds := collectCreated(adsets, ads)
		return nil, domain.AsEngineError(err).WithDetails(map[string]any{
			"campaign_id":       created.ID,
			"created_adset_ids": adsetIDs(createdAdsets),
			"created_ad_ids":    adIDs(createdAds),
		})
	}

	allAdsets, allAds := collectCreated(adsets, ads)
	structure := domain.CampaignStructure{
		Campaign: domain.Campaign{
			ID:          created.ID,
			Name:        created.Name,
			Objective:   in.Objective,
			DailyBudget: in.DailyBudget,
			Status:      domain.CampaignDraft,
			Platform:    in.Platform,
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		},
		Adsets: allAdsets,
		Ads:    allAds,
	}

	if err := e.store.SaveCampaignSnapshot(ctx, structure); err != nil {
		e.logger.Warn("saving campaign snapshot failed", slog.Any("error", err))
	}
	if err := e.sync.CreateCampaign(ctx, cc, structure); err != nil {
		return nil, domain.AsEngineError(err).WithDetails(map[string]any{
			"campaign_id":       created.ID,
			"created_adset_ids": adsetIDs(allAdsets),
			"created_ad_ids":    adIDs(allAds),
		})
	}

	return &CreateCampaignResult{CampaignID: created.ID, Adsets: allAdsets, Ads: allAds}, nil
}

// adCopy generates copy for one creative, substituting the deterministic
// template whenever generation fails so ads never ship without copy.
func (e *Engine) adCopy(ctx context.Context, objective, creativeID string, seg domain.AgeSegment) string {
	text, err := e.writer.AdCopy(ctx, objective, creativeID, seg)
	if err != nil || text == "" {
		if err != nil {
			e.logger.Warn("copy generation failed, falling back to template",
				slog.String("creative_id", creativeID),
				slog.Any("error", err))
		}
		return copywriter.TemplateCopy(objective, seg)
	}
	return text
}

func collectCreated(adsets []domain.Adset, ads [][]domain.Ad) ([]domain.Adset, []domain.Ad) {
	outAdsets := make([]domain.Adset, 0, len(adsets))
	var outAds []domain.Ad
	for i, a := range adsets {
		if a.ID != "" {
			outAdsets = append(outAdsets, a)
		}
		outAds = append(outAds, ads[i]...)
	}
	return outAdsets, outAds
}

func adsetIDs(adsets []domain.Adset) []string {
	out := make([]string, len(adsets))
	for i, a := range adsets {
		out[i] = a.ID
	}
	return out
}

func adIDs(ads []domain.Ad) []string {
	out := make([]string, len(ads))
	for i, a := range ads {
		out[i] = a.ID
	}
	return out
}
