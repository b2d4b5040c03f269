// Package repository defines the storage contracts the review workflow
// depends on. The pipeline is storage-agnostic: engines receive explicit
// store objects with a defined lifecycle, never ambient globals.
package repository

import (
	"context"

	"github.com/eslsoft/hanguru/internal/entity"
)

// ListSubmissionQuery filters submission listings.
type ListSubmissionQuery struct {
	Status      entity.SubmissionStatus
	SubmitterID string
	Limit       int
	Offset      int
}

// SubmissionStore holds active (non-terminal) submissions.
//
// Update applies fn atomically under the submission's lock so concurrent
// reviewer feedback is per-slot, never last-writer-wins.
type SubmissionStore interface {
	Create(ctx context.Context, sub *entity.Submission) error
	Get(ctx context.Context, id string) (*entity.Submission, error)
	Update(ctx context.Context, id string, fn func(*entity.Submission) error) (*entity.Submission, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, query ListSubmissionQuery) ([]*entity.Submission, error)
}

// ArchiveStore holds terminal submissions for audit and reporting.
type ArchiveStore interface {
	Save(ctx context.Context, sub *entity.Submission) error
	Get(ctx context.Context, id string) (*entity.Submission, error)
	List(ctx context.Context, query ListSubmissionQuery) ([]*entity.Submission, error)
	Count(ctx context.Context, query ListSubmissionQuery) (int64, error)
}
