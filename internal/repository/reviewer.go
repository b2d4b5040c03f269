package repository

import (
	"context"

	"github.com/eslsoft/hanguru/internal/entity"
)

// ReviewerDirectory supplies available reviewer identities per type. It is
// an external collaborator; the pipeline never manages reviewer accounts.
type ReviewerDirectory interface {
	// Pick returns the next reviewer of the given type, or
	// entity.ErrNoReviewersAvailable when the pool is empty.
	Pick(ctx context.Context, t entity.ReviewerType) (string, error)
	// Available reports whether any reviewer of the given type exists.
	Available(ctx context.Context, t entity.ReviewerType) bool
}
