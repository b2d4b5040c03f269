package validation

import (
	"strings"
	"testing"

	"github.com/eslsoft/hanguru/internal/entity"
)

func warningTypes(warnings []entity.ValidationWarning) []string {
	types := make([]string, len(warnings))
	for i, w := range warnings {
		types[i] = w.Type
	}
	return types
}

func TestQualityWarningsForSparseLesson(t *testing.T) {
	lesson := validLesson("lesson-002")
	lesson.Prerequisites = nil
	lesson.NextLessons = nil
	lesson.EstimatedTime = 90
	lesson.Content.Examples = lesson.Content.Examples[:1]
	lesson.Exercises[0].Quiz.Questions = lesson.Exercises[0].Quiz.Questions[:2]
	ds := &entity.Dataset{Lessons: []entity.Lesson{lesson}}

	warnings := NewQualityAnalyzer().Warnings(ds)
	got := strings.Join(warningTypes(warnings), ",")
	want := "prerequisites,nextLessons,estimatedTime,examples,exercises"
	if got != want {
		t.Fatalf("warning types:\nwant %s\ngot  %s", want, got)
	}
	for _, w := range warnings {
		if w.Severity == "" {
			t.Fatalf("warning %q missing severity", w.Type)
		}
	}
}

func TestQualityEntryLessonNeedsNoPrerequisites(t *testing.T) {
	lesson := validLesson("lesson-001")
	lesson.Prerequisites = nil
	lesson.NextLessons = []string{"lesson-002"}
	ds := &entity.Dataset{Lessons: []entity.Lesson{lesson}}

	for _, w := range NewQualityAnalyzer().Warnings(ds) {
		if w.Type == "prerequisites" {
			t.Fatalf("entry lesson should not warn about prerequisites: %v", w)
		}
	}
}

func TestQualityScorePenalties(t *testing.T) {
	lesson := validLesson("lesson-001")
	errs := []entity.ValidationError{
		{Type: entity.ErrorTypeSchema},   // -20
		{Type: entity.ErrorTypeAsset},    // -15
		{Type: "something_else"},         // -5
	}
	comments := []entity.ReviewComment{
		{Severity: entity.CommentCritical}, // -15
		{Severity: entity.CommentMinor},    // -5
	}

	got := ComputeQualityScore(&lesson, errs, comments)
	if got != 40 {
		t.Fatalf("expected 40, got %d", got)
	}
}

func TestQualityScoreBonusesAndClamp(t *testing.T) {
	lesson := validLesson("lesson-001")
	lesson.Content.Examples = make([]entity.Example, 5)
	lesson.Exercises = make([]entity.Exercise, 3)
	image := "images/cover.png"
	lesson.Content.Media.ImagePath = &image
	lesson.Content.Text = strings.Repeat("한국어 ", 200)

	if got := ComputeQualityScore(&lesson, nil, nil); got != 100 {
		t.Fatalf("expected clamp to 100, got %d", got)
	}

	manyErrors := make([]entity.ValidationError, 10)
	for i := range manyErrors {
		manyErrors[i] = entity.ValidationError{Type: entity.ErrorTypeSchema}
	}
	if got := ComputeQualityScore(&lesson, manyErrors, nil); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
}

func TestQualityScoreDeterministic(t *testing.T) {
	lesson := validLesson("lesson-001")
	errs := []entity.ValidationError{{Type: entity.ErrorTypeContent}}
	comments := []entity.ReviewComment{{Severity: entity.CommentMajor}}

	first := ComputeQualityScore(&lesson, errs, comments)
	for i := 0; i < 10; i++ {
		if got := ComputeQualityScore(&lesson, errs, comments); got != first {
			t.Fatalf("score not deterministic: %d != %d", got, first)
		}
	}
}
