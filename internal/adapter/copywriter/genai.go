// Package copywriter generates ad copy. The Gemini-backed writer is
// best-effort: the campaign manager substitutes deterministic template copy
// whenever generation fails, so a copy failure never fails a campaign.
package copywriter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"adpilot/internal/config/configs"
	"adpilot/internal/core/domain"
)

// Gemini writes ad copy with the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGemini builds the Gemini copywriter.
func NewGemini(ctx context.Context, cfg configs.GenAI, logger *slog.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model, logger: logger}, nil
}

// AdCopy asks the model for one line of copy for the creative and segment.
func (g *Gemini) AdCopy(ctx context.Context, objective, creativeID string, segment domain.AgeSegment) (string, error) {
	prompt := fmt.Sprintf(
		"Write one short advertising sentence for a %s campaign aimed at people aged %d to %d. "+
			"Reply with the sentence only, no quotes.", objective, segment.Min, segment.Max)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		if ctx.Err() != nil {
			return "", domain.NewGenerationError(domain.CodeGenerationTimeout, "copy generation timed out").WithCause(err)
		}
		return "", domain.NewGenerationError(domain.CodeGenerationFailed, "copy generation failed").WithCause(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", domain.NewGenerationError(domain.CodeGenerationFailed, "model returned empty copy")
	}
	g.logger.Debug("generated ad copy",
		slog.String("creative_id", creativeID),
		slog.Int("age_min", segment.Min),
		slog.Int("age_max", segment.Max))
	return text, nil
}
