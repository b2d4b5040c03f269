// Package review drives the submission lifecycle: automated validation
// gate, reviewer assignment, per-slot feedback, quality scoring and the
// approval decision, with bounded revision cycles.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/hanguru/internal/entity"
	"github.com/eslsoft/hanguru/internal/repository"
	"github.com/eslsoft/hanguru/internal/usecase/integrity"
	"github.com/eslsoft/hanguru/internal/usecase/validation"
)

// Config bounds the workflow decisions.
type Config struct {
	MaxReviewCycles      int
	MinQualityScore      int
	AutoApproveThreshold int
}

// DefaultConfig matches the product defaults.
func DefaultConfig() Config {
	return Config{
		MaxReviewCycles:      3,
		MinQualityScore:      60,
		AutoApproveThreshold: 85,
	}
}

// AssetChecker is the integrity service surface the engine needs.
type AssetChecker interface {
	Check(ctx context.Context, req integrity.CheckRequest) (*entity.IntegrityReport, error)
}

// Engine orchestrates the review workflow over explicit stores.
type Engine struct {
	store     repository.SubmissionStore
	archive   repository.ArchiveStore
	directory repository.ReviewerDirectory
	validator *validation.Validator
	assets    AssetChecker
	cfg       Config
	logger    *logrus.Logger

	now   func() time.Time
	newID func() string
}

// EngineOption tweaks engine construction.
type EngineOption func(*Engine)

// WithAssetChecker attaches the optional asset integrity stage.
func WithAssetChecker(checker AssetChecker) EngineOption {
	return func(e *Engine) { e.assets = checker }
}

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides submission id generation.
func WithIDGenerator(gen func() string) EngineOption {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// NewEngine wires the workflow. Stores are created by the caller per
// process (or per test), never shared ambient state.
func NewEngine(
	store repository.SubmissionStore,
	archive repository.ArchiveStore,
	directory repository.ReviewerDirectory,
	validator *validation.Validator,
	cfg Config,
	logger *logrus.Logger,
	opts ...EngineOption,
) *Engine {
	if cfg.MaxReviewCycles <= 0 {
		cfg.MaxReviewCycles = DefaultConfig().MaxReviewCycles
	}
	e := &Engine{
		store:     store,
		archive:   archive,
		directory: directory,
		validator: validator,
		cfg:       cfg,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SubmitRequest describes a new review submission. The dataset provides the
// graph context for the submitted lesson.
type SubmitRequest struct {
	Dataset     *entity.Dataset
	LessonID    string
	SubmitterID string
	ReviewType  entity.ReviewType
	// AssetRoot enables the asset integrity stage when non-empty and an
	// asset checker is configured.
	AssetRoot string
}

// Submit runs the automated gate and, on success, assigns reviewers and
// moves the submission into review. Hard validation failure produces a
// terminal rejected submission with the error list and no reviewers.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*entity.Submission, error) {
	if _, err := entity.ParseReviewType(string(req.ReviewType)); err != nil {
		return nil, err
	}
	if req.Dataset == nil {
		return nil, fmt.Errorf("%w: dataset is required", entity.ErrLessonNotFound)
	}
	lesson := req.Dataset.LessonByID(req.LessonID)
	if lesson == nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrLessonNotFound, req.LessonID)
	}

	now := e.now()
	sub := &entity.Submission{
		ID:          e.newID(),
		Lesson:      *lesson,
		SubmitterID: req.SubmitterID,
		ReviewType:  req.ReviewType,
		Status:      entity.StatusPending,
		ReviewCycle: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	sub.AppendHistory(now, req.SubmitterID, "submitted", fmt.Sprintf("lesson %s for %s review", req.LessonID, req.ReviewType))

	sub.Validation = e.validator.ValidateDataset(req.Dataset)
	if !sub.Validation.IsValid {
		sub.Status = entity.StatusRejected
		sub.AppendHistory(e.now(), "system", "rejected", fmt.Sprintf("automated gate failed with %d errors", len(sub.Validation.Errors)))
		if err := e.archive.Save(ctx, sub); err != nil {
			return nil, fmt.Errorf("archive rejected submission: %w", err)
		}
		e.logger.WithFields(logrus.Fields{
			"component":  "review",
			"submission": sub.ID,
			"errors":     len(sub.Validation.Errors),
		}).Info("submission rejected by automated gate")
		return sub, nil
	}

	if e.assets != nil && req.AssetRoot != "" {
		report, err := e.assets.Check(ctx, integrity.CheckRequest{
			AssetRoot:  req.AssetRoot,
			Referenced: req.Dataset.ReferencedAssets(),
		})
		if err != nil {
			// Asset availability problems are advisory at submission
			// time; reviewers see them in the report.
			e.logger.WithError(err).Warn("asset check failed during submission")
			sub.AppendHistory(e.now(), "system", "asset_check_failed", err.Error())
		} else {
			sub.AssetReport = report
			sub.AppendHistory(e.now(), "system", "asset_check_complete",
				fmt.Sprintf("%d issues, %d advisories", len(report.Issues), len(report.Warnings)))
		}
	}

	if err := e.store.Create(ctx, sub); err != nil {
		return nil, err
	}
	return e.assignReviewers(ctx, sub.ID, req.ReviewType)
}

// assignReviewers fills the reviewer slots per review type and moves the
// submission to in_review.
func (e *Engine) assignReviewers(ctx context.Context, id string, reviewType entity.ReviewType) (*entity.Submission, error) {
	roles := []entity.ReviewerType{entity.ReviewerTechnical}
	if reviewType != entity.ReviewQuick {
		roles = append(roles, entity.ReviewerContent, entity.ReviewerCultural)
		if e.directory.Available(ctx, entity.ReviewerNativeSpeaker) {
			roles = append(roles, entity.ReviewerNativeSpeaker)
		}
	}

	assignments := make([]entity.ReviewerAssignment, 0, len(roles))
	for _, role := range roles {
		reviewerID, err := e.directory.Pick(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("assign %s reviewer: %w", role, err)
		}
		assignments = append(assignments, entity.ReviewerAssignment{
			ReviewerID: reviewerID,
			Type:       role,
			Status:     entity.AssignmentAssigned,
		})
	}

	return e.store.Update(ctx, id, func(sub *entity.Submission) error {
		now := e.now()
		sub.Reviewers = assignments
		sub.AppendHistory(now, "system", "reviewers_assigned", fmt.Sprintf("%d reviewers", len(assignments)))
		sub.Status = entity.StatusInReview
		sub.AppendHistory(now, "system", "review_started", "")
		return nil
	})
}

// SubmitFeedback records one reviewer's verdict on their own slot and runs
// the completion check. The whole mutation happens under the submission
// lock, so two reviewers completing near-simultaneously cannot race.
func (e *Engine) SubmitFeedback(ctx context.Context, submissionID, reviewerID string, feedback entity.ReviewFeedback) (*entity.Submission, error) {
	sub, err := e.store.Update(ctx, submissionID, func(sub *entity.Submission) error {
		if sub.Status != entity.StatusInReview {
			return entity.ErrSubmissionNotReviewable
		}
		slot := sub.Assignment(reviewerID)
		if slot == nil {
			return entity.ErrReviewerNotAssigned
		}
		now := e.now()
		slot.Recommendation = feedback.Recommendation
		slot.Comments = append([]entity.ReviewComment(nil), feedback.Comments...)
		if feedback.QualityScore != nil {
			score := clampScore(*feedback.QualityScore)
			slot.QualityScore = &score
		}
		slot.Status = entity.AssignmentCompleted
		slot.CompletedAt = &now
		sub.AppendHistory(now, reviewerID, "feedback_recorded", string(feedback.Recommendation))

		if sub.AllCompleted() {
			e.complete(sub)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if sub.Status.IsTerminal() {
		e.archiveTerminal(ctx, sub)
	}
	return sub, nil
}

// archiveTerminal moves a finished submission to the history store.
func (e *Engine) archiveTerminal(ctx context.Context, sub *entity.Submission) {
	if err := e.archive.Save(ctx, sub); err != nil {
		e.logger.WithError(err).WithField("submission", sub.ID).Error("archive submission failed")
		return
	}
	if err := e.store.Delete(ctx, sub.ID); err != nil {
		e.logger.WithError(err).WithField("submission", sub.ID).Error("remove archived submission failed")
	}
}

// Get returns an active submission, falling back to the archive.
func (e *Engine) Get(ctx context.Context, id string) (*entity.Submission, error) {
	sub, err := e.store.Get(ctx, id)
	if err == nil {
		return sub, nil
	}
	return e.archive.Get(ctx, id)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
