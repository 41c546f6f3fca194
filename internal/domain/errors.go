package domain

import (
	"errors"
	"strings"
)

var (
	// ErrIneligibleEnrollment is returned when a student's specialty or study year does not match the course.
	ErrIneligibleEnrollment = errors.New("student is not eligible for this course")
	// ErrNotEnrolled is returned when a student acts on content of a course they are not enrolled in.
	ErrNotEnrolled = errors.New("student is not enrolled in this course")
	// ErrNotCourseOwner is returned when a teacher edits a course they do not own.
	ErrNotCourseOwner = errors.New("course belongs to another teacher")
	// ErrNotTeacher is returned when an account without the teacher role tries to author content.
	ErrNotTeacher = errors.New("only teachers can manage courses")
	// ErrLessonResourcesIncomplete blocks quiz attempts until every resource of the lesson is completed.
	ErrLessonResourcesIncomplete = errors.New("lesson resources must be completed first")
	// ErrInvalidTimeIncrement rejects non-positive time increments.
	ErrInvalidTimeIncrement = errors.New("time increment must be positive")

	ErrUserNotFound       = errors.New("user not found")
	ErrCourseNotFound     = errors.New("course not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrDefinitionNotFound = errors.New("quiz definition not found")
)

// FieldError is used to indicate an error with a specific field of a submitted document.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError is returned when user input is rejected before anything is persisted.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "validation failed"
	}
	if len(e.Fields) == 0 {
		return e.Err.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return e.Err.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	for _, target := range []error{ErrUserNotFound, ErrCourseNotFound, ErrLessonNotFound, ErrResourceNotFound, ErrQuizNotFound, ErrDefinitionNotFound} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
