package validation

import (
	"strings"
	"testing"

	"github.com/eslsoft/hanguru/internal/entity"
)

func validLesson(id string) entity.Lesson {
	return entity.Lesson{
		ID:            id,
		Title:         "Greetings",
		Level:         entity.LevelBeginner,
		Category:      entity.CategoryVocabulary,
		Description:   "Basic greetings and introductions",
		EstimatedTime: 30,
		Content: entity.LessonContent{
			Text: "Learn how to greet people in Korean.",
			Examples: []entity.Example{
				{Korean: "안녕하세요", Romanization: "annyeonghaseyo", Translation: "Hello"},
				{Korean: "감사합니다", Romanization: "gamsahamnida", Translation: "Thank you"},
			},
		},
		Exercises: []entity.Exercise{
			{
				Type: entity.ExerciseQuiz,
				Quiz: &entity.Quiz{
					Title: "Greeting quiz",
					Questions: []entity.QuizQuestion{
						{Question: "How do you say hello?", Options: []string{"안녕하세요", "감사합니다"}, CorrectAnswer: "안녕하세요"},
						{Question: "How do you say thank you?", Options: []string{"안녕하세요", "감사합니다"}, CorrectAnswer: "감사합니다"},
						{Question: "Pick the greeting", Options: []string{"안녕하세요", "잘가요"}, CorrectAnswer: "안녕하세요"},
					},
				},
			},
		},
	}
}

func validDataset() *entity.Dataset {
	return &entity.Dataset{Lessons: []entity.Lesson{validLesson("lesson-001")}}
}

func findError(errs []entity.ValidationError, path string) *entity.ValidationError {
	for i := range errs {
		if errs[i].Path == path {
			return &errs[i]
		}
	}
	return nil
}

func TestSchemaValidDataset(t *testing.T) {
	errs := NewSchemaValidator().Validate(validDataset())
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestSchemaNilDataset(t *testing.T) {
	errs := NewSchemaValidator().Validate(nil)
	if len(errs) != 1 || errs[0].Message != "dataset is required" {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestSchemaMissingRequiredFields(t *testing.T) {
	lesson := validLesson("lesson-001")
	lesson.Title = ""
	lesson.Content.Text = ""
	ds := &entity.Dataset{Lessons: []entity.Lesson{lesson}}

	errs := NewSchemaValidator().Validate(ds)
	if e := findError(errs, "lessons[lesson-001].title"); e == nil {
		t.Fatalf("expected title error, got %v", errs)
	} else if e.Message != "field 'title' is required" {
		t.Fatalf("unexpected message: %q", e.Message)
	}
	if findError(errs, "lessons[lesson-001].content.text") == nil {
		t.Fatalf("expected content.text error, got %v", errs)
	}
}

func TestSchemaInvalidLessonID(t *testing.T) {
	lesson := validLesson("lesson-1")
	ds := &entity.Dataset{Lessons: []entity.Lesson{lesson}}

	errs := NewSchemaValidator().Validate(ds)
	e := findError(errs, "lessons[lesson-1].id")
	if e == nil {
		t.Fatalf("expected id error, got %v", errs)
	}
	if e.Message != "invalid lesson id 'lesson-1'" {
		t.Fatalf("unexpected message: %q", e.Message)
	}
}

func TestSchemaInvalidEnumAndRange(t *testing.T) {
	lesson := validLesson("lesson-001")
	lesson.Level = "expert"
	lesson.EstimatedTime = 360
	ds := &entity.Dataset{Lessons: []entity.Lesson{lesson}}

	errs := NewSchemaValidator().Validate(ds)
	if e := findError(errs, "lessons[lesson-001].level"); e == nil {
		t.Fatalf("expected level error, got %v", errs)
	} else if !strings.Contains(e.Message, "must be one of") {
		t.Fatalf("unexpected level message: %q", e.Message)
	}
	if findError(errs, "lessons[lesson-001].estimatedTime") == nil {
		t.Fatalf("expected estimatedTime error, got %v", errs)
	}
}

func TestSchemaDuplicateLessonIDs(t *testing.T) {
	ds := &entity.Dataset{Lessons: []entity.Lesson{validLesson("lesson-001"), validLesson("lesson-001")}}

	errs := NewSchemaValidator().Validate(ds)
	if e := findError(errs, "lessons[lesson-001].id"); e == nil {
		t.Fatalf("expected duplicate id error, got %v", errs)
	} else if e.Message != "duplicate lesson id 'lesson-001'" {
		t.Fatalf("unexpected message: %q", e.Message)
	}
}

func TestSchemaEmptyIDFallsBackToIndex(t *testing.T) {
	lesson := validLesson("")
	ds := &entity.Dataset{Lessons: []entity.Lesson{lesson}}

	errs := NewSchemaValidator().Validate(ds)
	if findError(errs, "lessons[#0].id") == nil {
		t.Fatalf("expected positional id path, got %v", errs)
	}
}

func TestSchemaInvalidAssetPaths(t *testing.T) {
	lesson := validLesson("lesson-001")
	lesson.Content.Examples[0].AudioPath = "audio/hello.txt"
	bad := "images/cover.bmp"
	lesson.Content.Media.ImagePath = &bad
	ds := &entity.Dataset{Lessons: []entity.Lesson{lesson}}

	errs := NewSchemaValidator().Validate(ds)
	if e := findError(errs, "lessons[lesson-001].content.examples[0].audioPath"); e == nil {
		t.Fatalf("expected audio path error, got %v", errs)
	} else if !strings.Contains(e.Message, ".mp3, .ogg, .wav") {
		t.Fatalf("unexpected message: %q", e.Message)
	}
	if findError(errs, "lessons[lesson-001].content.media.imagePath") == nil {
		t.Fatalf("expected image path error, got %v", errs)
	}
}

func TestSchemaExerciseVariant(t *testing.T) {
	lesson := validLesson("lesson-001")
	lesson.Exercises = append(lesson.Exercises,
		entity.Exercise{Type: "puzzle"},
		entity.Exercise{Type: entity.ExerciseFlashcard},
		entity.Exercise{
			Type: entity.ExerciseQuiz,
			Quiz: &entity.Quiz{Title: "q", Questions: []entity.QuizQuestion{
				{Question: "?", Options: []string{"a", "b"}, CorrectAnswer: "a"},
			}},
			Flashcard: &entity.Flashcard{Title: "extra", Cards: []entity.Card{{Front: "f", Back: "b"}}},
		},
	)
	ds := &entity.Dataset{Lessons: []entity.Lesson{lesson}}

	errs := NewSchemaValidator().Validate(ds)
	if e := findError(errs, "lessons[lesson-001].exercises[1].type"); e == nil {
		t.Fatalf("expected unknown type error, got %v", errs)
	} else if e.Message != "unknown exercise type 'puzzle'" {
		t.Fatalf("unexpected message: %q", e.Message)
	}
	if findError(errs, "lessons[lesson-001].exercises[2].flashcard") == nil {
		t.Fatalf("expected missing payload error, got %v", errs)
	}
	if findError(errs, "lessons[lesson-001].exercises[3].flashcard") == nil {
		t.Fatalf("expected extra payload error, got %v", errs)
	}
}

func TestSchemaQuizOptionCardinality(t *testing.T) {
	lesson := validLesson("lesson-001")
	lesson.Exercises[0].Quiz.Questions[0].Options = []string{"only"}
	ds := &entity.Dataset{Lessons: []entity.Lesson{lesson}}

	errs := NewSchemaValidator().Validate(ds)
	e := findError(errs, "lessons[lesson-001].exercises[0].quiz.questions[0].options")
	if e == nil {
		t.Fatalf("expected options cardinality error, got %v", errs)
	}
	if !strings.Contains(e.Message, "at least 2") {
		t.Fatalf("unexpected message: %q", e.Message)
	}
}

func TestSchemaModuleValidation(t *testing.T) {
	ds := validDataset()
	ds.Modules = []entity.Module{
		{
			ID:            "module-1",
			Title:         "Basics",
			Description:   "Starter module",
			Lessons:       []string{"lesson-001", "bogus"},
			Level:         entity.LevelBeginner,
			EstimatedTime: 60,
		},
		{ID: "badmodule", Title: "x", Description: "y", Level: entity.LevelBeginner, EstimatedTime: 10},
	}

	errs := NewSchemaValidator().Validate(ds)
	if findError(errs, "modules[module-1].lessons[1]") == nil {
		t.Fatalf("expected module lesson shape error, got %v", errs)
	}
	if findError(errs, "modules[badmodule].id") == nil {
		t.Fatalf("expected module id error, got %v", errs)
	}
}
