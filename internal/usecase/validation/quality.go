package validation

import (
	"fmt"
	"strings"

	"github.com/eslsoft/hanguru/internal/entity"
)

// Quality heuristic thresholds.
const (
	minComfortableTime = 5
	maxComfortableTime = 60
	minExamples        = 2
	minQuizQuestions   = 3
	minFlashcardCards  = 3

	richExamples  = 5
	richExercises = 3
	richTextLen   = 500
)

// Quality score penalties and bonuses.
var errorPenalties = map[string]int{
	entity.ErrorTypeSchema:        20,
	entity.ErrorTypeContent:       10,
	entity.ErrorTypeAsset:         15,
	entity.ErrorTypeAccessibility: 10,
	entity.ErrorTypeCultural:      5,
	entity.ErrorTypeLanguage:      15,
}

const unclassifiedPenalty = 5

var commentPenalties = map[entity.CommentSeverity]int{
	entity.CommentCritical: 15,
	entity.CommentMajor:    10,
	entity.CommentMinor:    5,
}

// QualityAnalyzer scores content richness. Its warnings never block a
// submission on their own.
type QualityAnalyzer struct{}

// NewQualityAnalyzer returns a stateless analyzer.
func NewQualityAnalyzer() *QualityAnalyzer { return &QualityAnalyzer{} }

// Warnings applies each heuristic rule independently and additively.
func (q *QualityAnalyzer) Warnings(ds *entity.Dataset) []entity.ValidationWarning {
	if ds == nil {
		return nil
	}
	var warnings []entity.ValidationWarning
	for i := range ds.Lessons {
		warnings = append(warnings, q.lessonWarnings(&ds.Lessons[i])...)
	}
	return warnings
}

func (q *QualityAnalyzer) lessonWarnings(lesson *entity.Lesson) []entity.ValidationWarning {
	var warnings []entity.ValidationWarning
	prefix := fmt.Sprintf("lessons[%s]", lesson.ID)

	if len(lesson.Prerequisites) == 0 && !strings.HasSuffix(lesson.ID, "001") {
		warnings = append(warnings, entity.ValidationWarning{
			Type:     "prerequisites",
			Path:     prefix + ".prerequisites",
			Message:  "lesson has no prerequisites and is not an entry lesson",
			Severity: entity.SeverityLow,
		})
	}
	if len(lesson.NextLessons) == 0 {
		warnings = append(warnings, entity.ValidationWarning{
			Type:     "nextLessons",
			Path:     prefix + ".nextLessons",
			Message:  "lesson has no next lessons; learners hit a dead end",
			Severity: entity.SeverityLow,
		})
	}
	if lesson.EstimatedTime < minComfortableTime || lesson.EstimatedTime > maxComfortableTime {
		warnings = append(warnings, entity.ValidationWarning{
			Type:     "estimatedTime",
			Path:     prefix + ".estimatedTime",
			Message:  fmt.Sprintf("estimated time %d min is outside the comfortable %d-%d range", lesson.EstimatedTime, minComfortableTime, maxComfortableTime),
			Severity: entity.SeverityMedium,
		})
	}
	if len(lesson.Content.Examples) < minExamples {
		warnings = append(warnings, entity.ValidationWarning{
			Type:     "examples",
			Path:     prefix + ".content.examples",
			Message:  fmt.Sprintf("lesson has %d examples; at least %d recommended", len(lesson.Content.Examples), minExamples),
			Severity: entity.SeverityMedium,
		})
	}
	for i := range lesson.Exercises {
		exercise := &lesson.Exercises[i]
		switch {
		case exercise.Quiz != nil && len(exercise.Quiz.Questions) < minQuizQuestions:
			warnings = append(warnings, entity.ValidationWarning{
				Type:     "exercises",
				Path:     fmt.Sprintf("%s.exercises[%d].quiz.questions", prefix, i),
				Message:  fmt.Sprintf("quiz has %d questions; at least %d recommended", len(exercise.Quiz.Questions), minQuizQuestions),
				Severity: entity.SeverityLow,
			})
		case exercise.Flashcard != nil && len(exercise.Flashcard.Cards) < minFlashcardCards:
			warnings = append(warnings, entity.ValidationWarning{
				Type:     "exercises",
				Path:     fmt.Sprintf("%s.exercises[%d].flashcard.cards", prefix, i),
				Message:  fmt.Sprintf("flashcard set has %d cards; at least %d recommended", len(exercise.Flashcard.Cards), minFlashcardCards),
				Severity: entity.SeverityLow,
			})
		}
	}
	return warnings
}

// ComputeQualityScore derives the 0-100 composite: start at 100, subtract a
// fixed penalty per validation-error type and per reviewer comment severity,
// add content-richness bonuses, clamp to [0,100]. Deterministic given its
// inputs.
func ComputeQualityScore(lesson *entity.Lesson, errs []entity.ValidationError, comments []entity.ReviewComment) int {
	score := 100
	for _, e := range errs {
		if penalty, ok := errorPenalties[e.Type]; ok {
			score -= penalty
		} else {
			score -= unclassifiedPenalty
		}
	}
	for _, c := range comments {
		if penalty, ok := commentPenalties[c.Severity]; ok {
			score -= penalty
		}
	}
	if lesson != nil {
		if len(lesson.Content.Examples) >= richExamples {
			score += 5
		}
		if len(lesson.Exercises) >= richExercises {
			score += 5
		}
		if lesson.Content.Media.ImagePath != nil {
			score += 3
		}
		if len(lesson.Content.Text) >= richTextLen {
			score += 3
		}
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
