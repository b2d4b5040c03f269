package validation

import (
	"testing"

	"github.com/eslsoft/hanguru/internal/entity"
)

func TestGraphDanglingPrerequisite(t *testing.T) {
	lesson := validLesson("lesson-001")
	lesson.Prerequisites = []string{"lesson-099"}
	ds := &entity.Dataset{Lessons: []entity.Lesson{lesson}}

	errs := NewGraphValidator().Validate(ds)
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %v", errs)
	}
	e := errs[0]
	if e.Type != entity.ErrorTypePrerequisite {
		t.Fatalf("unexpected type %q", e.Type)
	}
	if e.Path != "lessons[lesson-001].prerequisites" {
		t.Fatalf("unexpected path %q", e.Path)
	}
	if e.Message != "Prerequisite lesson 'lesson-099' does not exist" {
		t.Fatalf("unexpected message %q", e.Message)
	}
}

func TestGraphDanglingNextLessonAndModuleRef(t *testing.T) {
	lesson := validLesson("lesson-001")
	lesson.NextLessons = []string{"lesson-050"}
	ds := &entity.Dataset{
		Lessons: []entity.Lesson{lesson},
		Modules: []entity.Module{{
			ID: "module-1", Title: "Basics", Description: "d",
			Lessons: []string{"lesson-001", "lesson-777"},
			Level:   entity.LevelBeginner, EstimatedTime: 30,
		}},
	}

	errs := NewGraphValidator().Validate(ds)
	if len(errs) != 2 {
		t.Fatalf("expected two errors, got %v", errs)
	}
	if errs[0].Message != "Next lesson 'lesson-050' does not exist" {
		t.Fatalf("unexpected message %q", errs[0].Message)
	}
	if errs[1].Type != entity.ErrorTypeModuleLesson || errs[1].Message != "Lesson 'lesson-777' does not exist" {
		t.Fatalf("unexpected module error %+v", errs[1])
	}
}

func TestGraphQuizAnswerMembership(t *testing.T) {
	lesson := validLesson("lesson-001")
	lesson.Exercises[0].Quiz.Questions[0] = entity.QuizQuestion{
		Question:      "Pick one",
		Options:       []string{"A", "B"},
		CorrectAnswer: "C",
	}
	ds := &entity.Dataset{Lessons: []entity.Lesson{lesson}}

	errs := NewGraphValidator().Validate(ds)
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
	e := errs[0]
	if e.Type != entity.ErrorTypeQuizAnswer {
		t.Fatalf("unexpected type %q", e.Type)
	}
	if e.Path != "lessons[lesson-001].exercises[0].quiz.questions[0]" {
		t.Fatalf("unexpected path %q", e.Path)
	}
	if e.Message != "Correct answer 'C' is not one of the options" {
		t.Fatalf("unexpected message %q", e.Message)
	}
}

func TestGraphSelfAndBackReferencesAllowed(t *testing.T) {
	a := validLesson("lesson-001")
	b := validLesson("lesson-002")
	a.NextLessons = []string{"lesson-002"}
	b.Prerequisites = []string{"lesson-001"}
	b.NextLessons = []string{"lesson-001"}
	ds := &entity.Dataset{Lessons: []entity.Lesson{a, b}}

	if errs := NewGraphValidator().Validate(ds); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidatorSkipsGraphOnSchemaFailure(t *testing.T) {
	lesson := validLesson("lesson-001")
	lesson.Title = ""
	lesson.Prerequisites = []string{"lesson-099"}
	ds := &entity.Dataset{Lessons: []entity.Lesson{lesson}}

	result := NewValidator().ValidateDataset(ds)
	if result.IsValid {
		t.Fatal("expected invalid result")
	}
	for _, e := range result.Errors {
		if e.Type == entity.ErrorTypePrerequisite {
			t.Fatalf("graph stage must not run on schema failure: %v", result.Errors)
		}
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("quality stage must not run on schema failure: %v", result.Warnings)
	}
}
