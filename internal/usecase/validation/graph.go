package validation

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/eslsoft/hanguru/internal/entity"
)

// GraphValidator checks cross-reference integrity over the lesson/module
// graph. It must only run on a schema-valid dataset: a structurally invalid
// document cannot be trusted for graph walks.
//
// Prerequisite chains are not checked for cycles; that matches the editor's
// current behavior, which allows back-references between lessons.
type GraphValidator struct{}

// NewGraphValidator returns a stateless graph validator.
func NewGraphValidator() *GraphValidator { return &GraphValidator{} }

// Validate returns one error per dangling reference and per quiz answer not
// contained in its own options, with stable id-keyed paths.
func (g *GraphValidator) Validate(ds *entity.Dataset) []entity.ValidationError {
	if ds == nil {
		return nil
	}
	known := lo.SliceToMap(ds.Lessons, func(l entity.Lesson) (string, struct{}) {
		return l.ID, struct{}{}
	})

	var errs []entity.ValidationError
	for i := range ds.Lessons {
		lesson := &ds.Lessons[i]
		for _, ref := range lesson.Prerequisites {
			if _, ok := known[ref]; !ok {
				errs = append(errs, entity.ValidationError{
					Type:    entity.ErrorTypePrerequisite,
					Path:    fmt.Sprintf("lessons[%s].prerequisites", lesson.ID),
					Message: fmt.Sprintf("Prerequisite lesson '%s' does not exist", ref),
					Value:   ref,
				})
			}
		}
		for _, ref := range lesson.NextLessons {
			if _, ok := known[ref]; !ok {
				errs = append(errs, entity.ValidationError{
					Type:    entity.ErrorTypeNextLesson,
					Path:    fmt.Sprintf("lessons[%s].nextLessons", lesson.ID),
					Message: fmt.Sprintf("Next lesson '%s' does not exist", ref),
					Value:   ref,
				})
			}
		}
		errs = append(errs, g.validateQuizAnswers(lesson)...)
	}

	for i := range ds.Modules {
		module := &ds.Modules[i]
		for _, ref := range module.Lessons {
			if _, ok := known[ref]; !ok {
				errs = append(errs, entity.ValidationError{
					Type:    entity.ErrorTypeModuleLesson,
					Path:    fmt.Sprintf("modules[%s].lessons", module.ID),
					Message: fmt.Sprintf("Lesson '%s' does not exist", ref),
					Value:   ref,
				})
			}
		}
	}
	return errs
}

func (g *GraphValidator) validateQuizAnswers(lesson *entity.Lesson) []entity.ValidationError {
	var errs []entity.ValidationError
	for i := range lesson.Exercises {
		quiz := lesson.Exercises[i].Quiz
		if quiz == nil {
			continue
		}
		for j := range quiz.Questions {
			question := &quiz.Questions[j]
			if !lo.Contains(question.Options, question.CorrectAnswer) {
				errs = append(errs, entity.ValidationError{
					Type:    entity.ErrorTypeQuizAnswer,
					Path:    fmt.Sprintf("lessons[%s].exercises[%d].quiz.questions[%d]", lesson.ID, i, j),
					Message: fmt.Sprintf("Correct answer '%s' is not one of the options", question.CorrectAnswer),
					Value:   question.CorrectAnswer,
				})
			}
		}
	}
	return errs
}
