package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"mini-lms/internal/domain"
)

// ErrInvalidDefinition is wrapped by every ValidationError produced for quiz uploads.
var ErrInvalidDefinition = errors.New("invalid quiz definition: requires passing_score (number) and questions (question, choices[>=2], answer)")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// numeric_json accepts a JSON number or a string holding one.
	_ = v.RegisterValidation("numeric_json", func(fl validator.FieldLevel) bool {
		raw, ok := fl.Field().Interface().(json.RawMessage)
		if !ok {
			return false
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return false
		}
		_, err := n.Float64()
		return err == nil
	})
	return v
}

// EmptyDefinition is what a missing or unreadable definition degrades to.
// It has no questions and cannot be passed.
func EmptyDefinition() domain.QuizDefinition {
	return domain.QuizDefinition{PassingScore: domain.MaxScore, Questions: []domain.Question{}}
}

type storedDefinition struct {
	PassingScore json.RawMessage `json:"passing_score"`
	Questions    json.RawMessage `json:"questions"`
}

type storedQuestion struct {
	Question json.RawMessage `json:"question"`
	Choices  json.RawMessage `json:"choices"`
	Answer   json.RawMessage `json:"answer"`
}

// ParseDefinition decodes a stored definition leniently. Numbers may be JSON numbers or
// numeric strings; missing numbers read as zero. Each question is decoded on its own: an
// item that is not an object, or whose choices are not a list, still counts as a question
// with no choices and answer 0. ok is false when data is not a JSON object or questions is
// not a list, in which case the empty definition is returned.
func ParseDefinition(data []byte) (def domain.QuizDefinition, ok bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return EmptyDefinition(), false
	}
	var stored storedDefinition
	if err := json.Unmarshal(trimmed, &stored); err != nil {
		return EmptyDefinition(), false
	}
	var items []json.RawMessage
	if !isNull(stored.Questions) {
		if err := json.Unmarshal(stored.Questions, &items); err != nil {
			return EmptyDefinition(), false
		}
	}

	def.PassingScore = rawInt(stored.PassingScore)
	def.Questions = make([]domain.Question, 0, len(items))
	for _, item := range items {
		def.Questions = append(def.Questions, parseQuestion(item))
	}
	return def, true
}

func parseQuestion(raw json.RawMessage) domain.Question {
	q := domain.Question{Choices: []string{}}
	var stored storedQuestion
	if err := json.Unmarshal(raw, &stored); err != nil {
		return q
	}
	q.Text = rawText(stored.Question)
	q.CorrectIndex = rawInt(stored.Answer)
	var choices []json.RawMessage
	if err := json.Unmarshal(stored.Choices, &choices); err == nil {
		for _, c := range choices {
			q.Choices = append(q.Choices, rawText(c))
		}
	}
	return q
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func rawInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	if i, err := strconv.Atoi(n.String()); err == nil {
		return i
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}

func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

type candidateDefinition struct {
	PassingScore json.RawMessage     `json:"passing_score" validate:"required,numeric_json"`
	Questions    []candidateQuestion `json:"questions" validate:"required,min=1,dive"`
}

type candidateQuestion struct {
	Question *string         `json:"question" validate:"required"`
	Choices  []string        `json:"choices" validate:"required,min=2"`
	Answer   json.RawMessage `json:"answer" validate:"required,numeric_json"`
}

// ValidateDefinition checks a candidate upload and returns its parsed form. It touches no
// storage. The returned error is always a *domain.ValidationError.
func ValidateDefinition(data []byte) (domain.QuizDefinition, error) {
	var candidate candidateDefinition
	if err := json.Unmarshal(data, &candidate); err != nil {
		return domain.QuizDefinition{}, decodeError(err)
	}
	if err := validate.Struct(candidate); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.QuizDefinition{}, domain.NewValidationError(ErrInvalidDefinition)
		}
		fields := make([]domain.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, domain.FieldError{Field: fieldPath(fe), Error: fieldMessage(fe)})
		}
		return domain.QuizDefinition{}, domain.NewValidationError(ErrInvalidDefinition, fields...)
	}

	def, _ := ParseDefinition(data)
	return def, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "$"
		}
		return domain.NewValidationError(ErrInvalidDefinition, domain.FieldError{
			Field: field,
			Error: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		})
	}
	return domain.NewValidationError(ErrInvalidDefinition, domain.FieldError{Field: "$", Error: err.Error()})
}

// fieldPath drops the root struct name: "candidateDefinition.questions[0].choices" -> "questions[0].choices".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "must contain at least " + fe.Param() + " items"
	case "numeric_json":
		return "must be a number"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
