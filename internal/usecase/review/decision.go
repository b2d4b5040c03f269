package review

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/hanguru/internal/entity"
	"github.com/eslsoft/hanguru/internal/repository"
	"github.com/eslsoft/hanguru/internal/usecase/validation"
)

// complete runs once all reviewer slots finished. Caller holds the
// submission lock via the store update.
func (e *Engine) complete(sub *entity.Submission) {
	now := e.now()
	score := e.aggregateScore(sub)
	sub.QualityScore = &score
	sub.AppendHistory(now, "system", "review_completed", fmt.Sprintf("aggregate quality score %d", score))

	switch {
	case hasCriticalComment(sub):
		// Critical findings reject regardless of score or recommendations.
		e.reject(sub, "critical reviewer comment")
	case score < e.cfg.MinQualityScore:
		e.requestRevision(sub, fmt.Sprintf("quality score %d below required %d", score, e.cfg.MinQualityScore))
	case anyRejectRecommendation(sub):
		e.requestRevision(sub, "one or more reviewers recommended rejection")
	default:
		e.approve(sub, score)
	}
}

// aggregateScore averages the reviewer scores, falling back to the
// automated heuristic when no reviewer scored the submission.
func (e *Engine) aggregateScore(sub *entity.Submission) int {
	sum, n := 0, 0
	for _, r := range sub.Reviewers {
		if r.QualityScore != nil {
			sum += *r.QualityScore
			n++
		}
	}
	if n == 0 {
		return validation.ComputeQualityScore(&sub.Lesson, sub.Validation.Errors, sub.AllComments())
	}
	return (sum + n/2) / n
}

func (e *Engine) approve(sub *entity.Submission, score int) {
	now := e.now()
	sub.Status = entity.StatusApproved
	if allApproveRecommendations(sub) && score >= e.cfg.AutoApproveThreshold {
		sub.AppendHistory(now, "system", "approved", fmt.Sprintf("auto-approved, score %d at or above %d", score, e.cfg.AutoApproveThreshold))
		return
	}
	// Reviewers who neither rejected nor left critical findings count as
	// consenting. Worth a log line so silent approvals stay visible.
	sub.AppendHistory(now, "system", "approved", "approved by default, no blocking feedback")
	e.logger.WithFields(logrus.Fields{
		"component":  "review",
		"submission": sub.ID,
		"score":      score,
	}).Warn("submission approved without explicit approve recommendations")
}

func (e *Engine) reject(sub *entity.Submission, reason string) {
	sub.Status = entity.StatusRejected
	sub.AppendHistory(e.now(), "system", "rejected", reason)
}

// requestRevision marks the submission for rework and recycles it through
// another review round, rejecting outright once the cycle cap is reached.
func (e *Engine) requestRevision(sub *entity.Submission, reason string) {
	now := e.now()
	sub.Status = entity.StatusRevisionRequired
	sub.AppendHistory(now, "system", "revision_required", reason)

	if sub.ReviewCycle >= e.cfg.MaxReviewCycles {
		e.reject(sub, fmt.Sprintf("review cycle limit of %d reached", e.cfg.MaxReviewCycles))
		return
	}

	sub.ReviewCycle++
	for i := range sub.Reviewers {
		sub.Reviewers[i].Status = entity.AssignmentAssigned
		sub.Reviewers[i].Recommendation = ""
		sub.Reviewers[i].Comments = nil
		sub.Reviewers[i].QualityScore = nil
		sub.Reviewers[i].CompletedAt = nil
	}
	sub.Status = entity.StatusInReview
	sub.AppendHistory(now, "system", "review_restarted", fmt.Sprintf("cycle %d of %d", sub.ReviewCycle, e.cfg.MaxReviewCycles))
}

func hasCriticalComment(sub *entity.Submission) bool {
	for _, c := range sub.AllComments() {
		if c.Severity == entity.CommentCritical {
			return true
		}
	}
	return false
}

func anyRejectRecommendation(sub *entity.Submission) bool {
	for _, r := range sub.Reviewers {
		if r.Recommendation == entity.RecommendReject {
			return true
		}
	}
	return false
}

func allApproveRecommendations(sub *entity.Submission) bool {
	for _, r := range sub.Reviewers {
		if r.Recommendation != entity.RecommendApprove {
			return false
		}
	}
	return len(sub.Reviewers) > 0
}

// List pages through active submissions.
func (e *Engine) List(ctx context.Context, query repository.ListSubmissionQuery) ([]*entity.Submission, error) {
	return e.store.List(ctx, query)
}
