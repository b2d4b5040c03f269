package entity

import "errors"

// Domain errors for submissions and related aggregates.
var (
	ErrSubmissionNotFound      = errors.New("submission not found")
	ErrSubmissionExists        = errors.New("submission already exists")
	ErrSubmissionNotReviewable = errors.New("submission is not in review")
	ErrReviewerNotAssigned     = errors.New("reviewer is not assigned to this submission")
	ErrNoReviewersAvailable    = errors.New("no reviewers available for required type")
	ErrInvalidReviewType       = errors.New("invalid review type")
	ErrLessonNotFound          = errors.New("lesson not found in dataset")
)
