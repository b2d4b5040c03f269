package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eslsoft/hanguru/internal/entity"
)

var (
	lessonIDPattern = regexp.MustCompile(`^lesson-\d{3}$`)
	moduleIDPattern = regexp.MustCompile(`^module-\d+$`)
)

// SchemaValidator checks structural conformance of a dataset: required
// fields, enum membership, id and asset-path patterns, numeric ranges,
// array cardinalities and exhaustiveness of the exercise tagged variant.
// It is a pure function of its input and never panics on malformed data.
type SchemaValidator struct {
	validate *validator.Validate
}

// NewSchemaValidator builds the validator with the custom field rules
// registered. Field names in error paths come from json tags.
func NewSchemaValidator() *SchemaValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	mustRegister(v, "lessonid", func(fl validator.FieldLevel) bool {
		return lessonIDPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "moduleid", func(fl validator.FieldLevel) bool {
		return moduleIDPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "audiopath", func(fl validator.FieldLevel) bool {
		return entity.ValidAudioPath(fl.Field().String())
	})
	mustRegister(v, "imagepath", func(fl validator.FieldLevel) bool {
		return entity.ValidImagePath(fl.Field().String())
	})
	mustRegister(v, "videopath", func(fl validator.FieldLevel) bool {
		return entity.ValidVideoPath(fl.Field().String())
	})
	return &SchemaValidator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Validate returns one error per schema violation. Paths are keyed by the
// offending entity's id so error sets are deterministic and diffable.
func (s *SchemaValidator) Validate(ds *entity.Dataset) []entity.ValidationError {
	if ds == nil {
		return []entity.ValidationError{{
			Type:    entity.ErrorTypeSchema,
			Path:    "",
			Message: "dataset is required",
		}}
	}

	var errs []entity.ValidationError
	seenLessons := make(map[string]struct{}, len(ds.Lessons))
	for i := range ds.Lessons {
		lesson := &ds.Lessons[i]
		prefix := fmt.Sprintf("lessons[%s]", lessonKey(lesson.ID, i))
		if _, dup := seenLessons[lesson.ID]; dup && lesson.ID != "" {
			errs = append(errs, entity.ValidationError{
				Type:    entity.ErrorTypeSchema,
				Path:    prefix + ".id",
				Message: fmt.Sprintf("duplicate lesson id '%s'", lesson.ID),
				Value:   lesson.ID,
			})
		}
		seenLessons[lesson.ID] = struct{}{}

		errs = append(errs, s.translate(s.validate.Struct(lesson), prefix)...)
		errs = append(errs, s.validateReferences(lesson, prefix)...)
		errs = append(errs, s.validateExercises(lesson, prefix)...)
	}

	seenModules := make(map[string]struct{}, len(ds.Modules))
	for i := range ds.Modules {
		module := &ds.Modules[i]
		prefix := fmt.Sprintf("modules[%s]", lessonKey(module.ID, i))
		if _, dup := seenModules[module.ID]; dup && module.ID != "" {
			errs = append(errs, entity.ValidationError{
				Type:    entity.ErrorTypeSchema,
				Path:    prefix + ".id",
				Message: fmt.Sprintf("duplicate module id '%s'", module.ID),
				Value:   module.ID,
			})
		}
		seenModules[module.ID] = struct{}{}

		errs = append(errs, s.translate(s.validate.Struct(module), prefix)...)
		for j, ref := range module.Lessons {
			if !lessonIDPattern.MatchString(ref) {
				errs = append(errs, entity.ValidationError{
					Type:    entity.ErrorTypeSchema,
					Path:    fmt.Sprintf("%s.lessons[%d]", prefix, j),
					Message: fmt.Sprintf("invalid lesson id '%s'", ref),
					Value:   ref,
				})
			}
		}
	}
	return errs
}

// validateReferences checks the id shape of prerequisite/nextLesson entries.
// Existence is the graph validator's concern.
func (s *SchemaValidator) validateReferences(lesson *entity.Lesson, prefix string) []entity.ValidationError {
	var errs []entity.ValidationError
	for i, ref := range lesson.Prerequisites {
		if !lessonIDPattern.MatchString(ref) {
			errs = append(errs, entity.ValidationError{
				Type:    entity.ErrorTypeSchema,
				Path:    fmt.Sprintf("%s.prerequisites[%d]", prefix, i),
				Message: fmt.Sprintf("invalid lesson id '%s'", ref),
				Value:   ref,
			})
		}
	}
	for i, ref := range lesson.NextLessons {
		if !lessonIDPattern.MatchString(ref) {
			errs = append(errs, entity.ValidationError{
				Type:    entity.ErrorTypeSchema,
				Path:    fmt.Sprintf("%s.nextLessons[%d]", prefix, i),
				Message: fmt.Sprintf("invalid lesson id '%s'", ref),
				Value:   ref,
			})
		}
	}
	return errs
}

// validateExercises enforces the tagged variant: a known discriminant, the
// matching payload present, and no extra variant payloads (the
// additionalProperties:false equivalent for the in-memory form).
func (s *SchemaValidator) validateExercises(lesson *entity.Lesson, prefix string) []entity.ValidationError {
	var errs []entity.ValidationError
	for i := range lesson.Exercises {
		exercise := &lesson.Exercises[i]
		exPrefix := fmt.Sprintf("%s.exercises[%d]", prefix, i)

		var payload any
		switch exercise.Type {
		case entity.ExerciseQuiz:
			if exercise.Quiz != nil {
				payload = exercise.Quiz
			}
		case entity.ExerciseFlashcard:
			if exercise.Flashcard != nil {
				payload = exercise.Flashcard
			}
		case entity.ExercisePronunciation:
			if exercise.Pronunciation != nil {
				payload = exercise.Pronunciation
			}
		default:
			errs = append(errs, entity.ValidationError{
				Type:    entity.ErrorTypeSchema,
				Path:    exPrefix + ".type",
				Message: fmt.Sprintf("unknown exercise type '%s'", exercise.Type),
				Value:   string(exercise.Type),
			})
			continue
		}
		if payload == nil {
			errs = append(errs, entity.ValidationError{
				Type:    entity.ErrorTypeSchema,
				Path:    fmt.Sprintf("%s.%s", exPrefix, exercise.Type),
				Message: fmt.Sprintf("missing %s payload for exercise type '%s'", exercise.Type, exercise.Type),
			})
			continue
		}
		for _, extra := range extraPayloads(exercise) {
			errs = append(errs, entity.ValidationError{
				Type:    entity.ErrorTypeSchema,
				Path:    fmt.Sprintf("%s.%s", exPrefix, extra),
				Message: fmt.Sprintf("unexpected %s payload on exercise of type '%s'", extra, exercise.Type),
			})
		}
		errs = append(errs, s.translate(s.validate.Struct(payload), exPrefix+"."+string(exercise.Type))...)
	}
	return errs
}

func extraPayloads(ex *entity.Exercise) []string {
	var extras []string
	if ex.Quiz != nil && ex.Type != entity.ExerciseQuiz {
		extras = append(extras, string(entity.ExerciseQuiz))
	}
	if ex.Flashcard != nil && ex.Type != entity.ExerciseFlashcard {
		extras = append(extras, string(entity.ExerciseFlashcard))
	}
	if ex.Pronunciation != nil && ex.Type != entity.ExercisePronunciation {
		extras = append(extras, string(entity.ExercisePronunciation))
	}
	return extras
}

// translate converts validator field errors into ValidationError entries.
// The leading struct-type segment of the namespace is replaced with the
// id-keyed prefix.
func (s *SchemaValidator) translate(err error, prefix string) []entity.ValidationError {
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		// validator.InvalidValidationError: the input itself is unusable.
		return []entity.ValidationError{{
			Type:    entity.ErrorTypeSchema,
			Path:    prefix,
			Message: fmt.Sprintf("malformed document: %v", err),
		}}
	}
	out := make([]entity.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := prefix
		if rest := trimNamespaceRoot(fe.Namespace()); rest != "" {
			path = prefix + "." + rest
		}
		out = append(out, entity.ValidationError{
			Type:    entity.ErrorTypeSchema,
			Path:    path,
			Message: messageForTag(fe),
			Value:   fe.Value(),
		})
	}
	return out
}

func trimNamespaceRoot(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return ""
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("field '%s' must have at least %s entries", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("field '%s' must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("field '%s' must have at most %s entries", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("field '%s' must be at most %s", fe.Field(), fe.Param())
	case "lessonid":
		return fmt.Sprintf("invalid lesson id '%v'", fe.Value())
	case "moduleid":
		return fmt.Sprintf("invalid module id '%v'", fe.Value())
	case "audiopath":
		return fmt.Sprintf("invalid audio path '%v': allowed extensions are .mp3, .ogg, .wav", fe.Value())
	case "imagepath":
		return fmt.Sprintf("invalid image path '%v': allowed extensions are .jpg, .jpeg, .png, .webp, .gif", fe.Value())
	case "videopath":
		return fmt.Sprintf("invalid video path '%v': allowed extensions are .mp4, .webm, .ogg", fe.Value())
	default:
		return fmt.Sprintf("field '%s' failed constraint '%s'", fe.Field(), fe.Tag())
	}
}

// lessonKey falls back to the positional index when the id is empty so the
// path still locates the offending entry.
func lessonKey(id string, idx int) string {
	if strings.TrimSpace(id) == "" {
		return fmt.Sprintf("#%d", idx)
	}
	return id
}
