package copywriter

import (
	"context"
	"fmt"

	"adpilot/internal/core/domain"
)

// TemplateCopy returns the deterministic fallback copy for a creative. It
// is used whenever AI generation is disabled or fails, and guarantees
// every ad ships with non-empty copy.
func TemplateCopy(objective string, segment domain.AgeSegment) string {
	if objective == "" {
		objective = "growth"
	}
	return fmt.Sprintf("Reach your %s goals, made for ages %d-%d. Tap to learn more.",
		objective, segment.Min, segment.Max)
}

// Template is a CopyWriter that always answers with template copy. It is
// the writer of record when GenAI is disabled.
type Template struct{}

// AdCopy implements port.CopyWriter.
func (Template) AdCopy(_ context.Context, objective, _ string, segment domain.AgeSegment) (string, error) {
	return TemplateCopy(objective, segment), nil
}
