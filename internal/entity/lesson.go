package entity

import (
	"sort"
	"strings"
)

// Lesson is a single unit of Korean course content. Lessons are produced by
// the external editor and consumed read-only by the pipeline.
type Lesson struct {
	ID            string        `json:"id" validate:"required,lessonid"`
	Title         string        `json:"title" validate:"required"`
	Level         Level         `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	Category      Category      `json:"category" validate:"required,oneof=vocabulary grammar pronunciation culture"`
	Description   string        `json:"description" validate:"required"`
	Prerequisites []string      `json:"prerequisites"`
	NextLessons   []string      `json:"nextLessons"`
	EstimatedTime int           `json:"estimatedTime" validate:"min=1,max=120"`
	Content       LessonContent `json:"content"`
	Exercises     []Exercise    `json:"exercises"`
}

// LessonContent carries the teaching body of a lesson.
type LessonContent struct {
	Text     string    `json:"text" validate:"required"`
	Examples []Example `json:"examples" validate:"dive"`
	Media    Media     `json:"media"`
}

// Example is a single Korean sentence with romanization and translation.
type Example struct {
	Korean       string `json:"korean" validate:"required"`
	Romanization string `json:"romanization" validate:"required"`
	Translation  string `json:"translation" validate:"required"`
	AudioPath    string `json:"audioPath" validate:"omitempty,audiopath"`
}

// Media references optional illustration assets for a lesson.
type Media struct {
	ImagePath *string `json:"imagePath" validate:"omitempty,imagepath"`
	VideoPath *string `json:"videoPath" validate:"omitempty,videopath"`
}

// ExerciseType is the discriminant of the exercise tagged variant.
type ExerciseType string

const (
	ExerciseQuiz          ExerciseType = "quiz"
	ExerciseFlashcard     ExerciseType = "flashcard"
	ExercisePronunciation ExerciseType = "pronunciation"
)

// Exercise is a tagged variant: exactly the payload matching Type must be
// set, all other payloads must be nil. The schema validator enforces this.
type Exercise struct {
	Type          ExerciseType   `json:"type"`
	Quiz          *Quiz          `json:"quiz,omitempty"`
	Flashcard     *Flashcard     `json:"flashcard,omitempty"`
	Pronunciation *Pronunciation `json:"pronunciation,omitempty"`
}

// Quiz asks multiple-choice questions.
type Quiz struct {
	Title     string         `json:"title" validate:"required"`
	Questions []QuizQuestion `json:"questions" validate:"dive"`
}

// QuizQuestion invariant: CorrectAnswer must be one of Options. Membership is
// checked by the graph validator alongside the other reference checks.
type QuizQuestion struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"min=2,max=6,dive,required"`
	CorrectAnswer string   `json:"correctAnswer" validate:"required"`
}

// Flashcard drills front/back card pairs.
type Flashcard struct {
	Title string `json:"title" validate:"required"`
	Cards []Card `json:"cards" validate:"dive"`
}

// Card is one flashcard face pair.
type Card struct {
	Front string `json:"front" validate:"required"`
	Back  string `json:"back" validate:"required"`
}

// Pronunciation plays a reference recording for the learner to imitate.
type Pronunciation struct {
	Title        string `json:"title" validate:"required"`
	AudioPath    string `json:"audioPath" validate:"required,audiopath"`
	Text         string `json:"text" validate:"required"`
	Instructions string `json:"instructions" validate:"required"`
}

// Module groups lessons into an ordered curriculum section. Every referenced
// lesson id must exist in the dataset's lesson set.
type Module struct {
	ID            string   `json:"id" validate:"required,moduleid"`
	Title         string   `json:"title" validate:"required"`
	Description   string   `json:"description" validate:"required"`
	Lessons       []string `json:"lessons"`
	Level         Level    `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	EstimatedTime int      `json:"estimatedTime" validate:"min=1"`
}

// Dataset is the full lesson/module document the pipeline validates.
type Dataset struct {
	Lessons []Lesson `json:"lessons"`
	Modules []Module `json:"modules"`
}

// LessonByID returns the lesson with the given id, or nil.
func (d *Dataset) LessonByID(id string) *Lesson {
	for i := range d.Lessons {
		if d.Lessons[i].ID == id {
			return &d.Lessons[i]
		}
	}
	return nil
}

// ReferencedAssets walks every lesson and collects all asset paths referenced
// by content examples, media and pronunciation exercises. The result is
// deduplicated and sorted for deterministic reconciliation.
func (d *Dataset) ReferencedAssets() []string {
	seen := make(map[string]struct{})
	add := func(path string) {
		path = strings.TrimSpace(path)
		if path == "" {
			return
		}
		seen[path] = struct{}{}
	}
	for i := range d.Lessons {
		lesson := &d.Lessons[i]
		for _, ex := range lesson.Content.Examples {
			add(ex.AudioPath)
		}
		if lesson.Content.Media.ImagePath != nil {
			add(*lesson.Content.Media.ImagePath)
		}
		if lesson.Content.Media.VideoPath != nil {
			add(*lesson.Content.Media.VideoPath)
		}
		for _, exercise := range lesson.Exercises {
			if exercise.Pronunciation != nil {
				add(exercise.Pronunciation.AudioPath)
			}
		}
	}
	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
