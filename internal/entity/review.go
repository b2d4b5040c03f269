package entity

import (
	"strings"
	"time"
)

// ReviewType selects how many reviewer roles a submission goes through.
type ReviewType string

const (
	ReviewQuick    ReviewType = "quick"
	ReviewStandard ReviewType = "standard"
	ReviewFull     ReviewType = "full"
)

// ParseReviewType converts an arbitrary string into a supported ReviewType.
func ParseReviewType(raw string) (ReviewType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "quick":
		return ReviewQuick, nil
	case "standard":
		return ReviewStandard, nil
	case "full":
		return ReviewFull, nil
	default:
		return "", ErrInvalidReviewType
	}
}

// SubmissionStatus is the review workflow state of a submission.
type SubmissionStatus string

const (
	StatusPending          SubmissionStatus = "pending"
	StatusInReview         SubmissionStatus = "in_review"
	StatusApproved         SubmissionStatus = "approved"
	StatusRejected         SubmissionStatus = "rejected"
	StatusRevisionRequired SubmissionStatus = "revision_required"
)

// IsTerminal reports whether the status ends the workflow.
func (s SubmissionStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ReviewerType is the role a reviewer covers.
type ReviewerType string

const (
	ReviewerTechnical     ReviewerType = "technical"
	ReviewerContent       ReviewerType = "content"
	ReviewerCultural      ReviewerType = "cultural"
	ReviewerNativeSpeaker ReviewerType = "native_speaker"
)

// AssignmentStatus tracks a single reviewer slot.
type AssignmentStatus string

const (
	AssignmentAssigned  AssignmentStatus = "assigned"
	AssignmentCompleted AssignmentStatus = "completed"
)

// Recommendation is a reviewer's verdict.
type Recommendation string

const (
	RecommendApprove Recommendation = "approve"
	RecommendReject  Recommendation = "reject"
)

// ReviewComment is one remark a reviewer left on a submission.
type ReviewComment struct {
	Severity       CommentSeverity `json:"severity"`
	Text           string          `json:"text"`
	ActionRequired bool            `json:"actionRequired,omitempty"`
}

// ReviewFeedback is what a reviewer hands back for their slot.
type ReviewFeedback struct {
	Recommendation Recommendation  `json:"recommendation"`
	Comments       []ReviewComment `json:"comments"`
	QualityScore   *int            `json:"qualityScore,omitempty"`
}

// ReviewerAssignment is a per-reviewer slot on a submission. Feedback is
// recorded per slot, never last-writer-wins across reviewers.
type ReviewerAssignment struct {
	ReviewerID     string           `json:"reviewerId"`
	Type           ReviewerType     `json:"type"`
	Status         AssignmentStatus `json:"status"`
	Recommendation Recommendation   `json:"recommendation,omitempty"`
	Comments       []ReviewComment  `json:"comments,omitempty"`
	QualityScore   *int             `json:"qualityScore,omitempty"`
	CompletedAt    *time.Time       `json:"completedAt,omitempty"`
}

// HistoryEntry is one record of the append-only audit trail.
type HistoryEntry struct {
	At     time.Time `json:"at"`
	Actor  string    `json:"actor"`
	Event  string    `json:"event"`
	Detail string    `json:"detail,omitempty"`
}

// Submission is one pass of a lesson through the review workflow.
type Submission struct {
	ID           string               `json:"id"`
	Lesson       Lesson               `json:"lesson"`
	SubmitterID  string               `json:"submitterId"`
	ReviewType   ReviewType           `json:"reviewType"`
	Status       SubmissionStatus     `json:"status"`
	ReviewCycle  int                  `json:"reviewCycle"`
	Reviewers    []ReviewerAssignment `json:"reviewers"`
	QualityScore *int                 `json:"qualityScore,omitempty"`
	Validation   ValidationResult     `json:"validation"`
	AssetReport  *IntegrityReport     `json:"assetReport,omitempty"`
	History      []HistoryEntry       `json:"history"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// AppendHistory records an audit event on the submission.
func (s *Submission) AppendHistory(at time.Time, actor, event, detail string) {
	s.History = append(s.History, HistoryEntry{At: at, Actor: actor, Event: event, Detail: detail})
	s.UpdatedAt = at
}

// Assignment returns the reviewer slot for the given reviewer id, or nil.
func (s *Submission) Assignment(reviewerID string) *ReviewerAssignment {
	for i := range s.Reviewers {
		if s.Reviewers[i].ReviewerID == reviewerID {
			return &s.Reviewers[i]
		}
	}
	return nil
}

// AllCompleted reports whether every assigned reviewer has finished.
func (s *Submission) AllCompleted() bool {
	if len(s.Reviewers) == 0 {
		return false
	}
	for _, r := range s.Reviewers {
		if r.Status != AssignmentCompleted {
			return false
		}
	}
	return true
}

// AllComments flattens reviewer comments in assignment order.
func (s *Submission) AllComments() []ReviewComment {
	var out []ReviewComment
	for _, r := range s.Reviewers {
		out = append(out, r.Comments...)
	}
	return out
}

// Clone returns a deep copy so store readers never share mutable state with
// the engine.
func (s *Submission) Clone() *Submission {
	if s == nil {
		return nil
	}
	out := *s
	out.Reviewers = make([]ReviewerAssignment, len(s.Reviewers))
	for i, r := range s.Reviewers {
		cp := r
		cp.Comments = append([]ReviewComment(nil), r.Comments...)
		if r.QualityScore != nil {
			score := *r.QualityScore
			cp.QualityScore = &score
		}
		if r.CompletedAt != nil {
			at := *r.CompletedAt
			cp.CompletedAt = &at
		}
		out.Reviewers[i] = cp
	}
	if s.QualityScore != nil {
		score := *s.QualityScore
		out.QualityScore = &score
	}
	out.History = append([]HistoryEntry(nil), s.History...)
	out.Validation.Errors = append([]ValidationError(nil), s.Validation.Errors...)
	out.Validation.Warnings = append([]ValidationWarning(nil), s.Validation.Warnings...)
	if s.AssetReport != nil {
		report := *s.AssetReport
		report.Issues = append([]IntegrityIssue(nil), s.AssetReport.Issues...)
		report.Warnings = append([]IntegrityIssue(nil), s.AssetReport.Warnings...)
		out.AssetReport = &report
	}
	return &out
}
