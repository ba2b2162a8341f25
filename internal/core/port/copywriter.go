package port

import (
	"context"

	"adpilot/internal/core/domain"
)

// CopyWriter produces ad copy for a creative within a targeting segment.
// Implementations may call an external model; callers must treat any error
// as recoverable and substitute domain template copy, never fail the
// surrounding operation.
type CopyWriter interface {
	AdCopy(ctx context.Context, objective, creativeID string, segment domain.AgeSegment) (string, error)
}
