package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"mini-lms/internal/domain"
)

// QuizService loads quiz definitions and grades submissions.
type QuizService struct {
	catalog     CatalogRepository
	definitions DefinitionStore
	attempts    AttemptRepository
	log         logrus.FieldLogger
	now         func() time.Time
}

func NewQuizService(catalog CatalogRepository, definitions DefinitionStore, attempts AttemptRepository, log logrus.FieldLogger) *QuizService {
	return &QuizService{
		catalog:     catalog,
		definitions: definitions,
		attempts:    attempts,
		log:         log,
		now:         time.Now,
	}
}

// LoadDefinition never fails: a missing, unreadable or malformed document yields the empty definition.
func (s *QuizService) LoadDefinition(ctx context.Context, quiz domain.Quiz) domain.QuizDefinition {
	entry := s.log.WithFields(logrus.Fields{"quiz_id": quiz.ID, "ref": quiz.DefinitionRef})
	if quiz.DefinitionRef == "" {
		entry.Warn("quiz has no definition reference")
		return EmptyDefinition()
	}
	raw, err := s.definitions.Load(ctx, quiz.DefinitionRef)
	if err != nil {
		entry.WithError(err).Warn("quiz definition unavailable, using empty definition")
		return EmptyDefinition()
	}
	def, ok := ParseDefinition(raw)
	if !ok {
		entry.Warn("quiz definition is not a valid document, using empty definition")
	}
	return def
}

// Definition resolves a quiz and its definition.
func (s *QuizService) Definition(ctx context.Context, quizID int64) (domain.Quiz, domain.QuizDefinition, error) {
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, domain.QuizDefinition{}, err
	}
	return quiz, s.LoadDefinition(ctx, quiz), nil
}

// GradeQuiz scores a student submission and appends a new Attempt on every call.
func (s *QuizService) GradeQuiz(ctx context.Context, quizID, studentID int64, answers domain.Answers) (domain.Attempt, error) {
	_, def, err := s.Definition(ctx, quizID)
	if err != nil {
		return domain.Attempt{}, err
	}
	result := Grade(def, answers)

	attempt, err := s.attempts.CreateAttempt(ctx, domain.Attempt{
		StudentID:   studentID,
		QuizID:      quizID,
		Score:       result.Score,
		Passed:      result.Passed,
		AttemptedAt: s.now().UTC(),
	})
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("record attempt: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"quiz_id":    quizID,
		"student_id": studentID,
		"score":      attempt.Score,
		"passed":     attempt.Passed,
	}).Info("quiz attempt graded")
	return attempt, nil
}

// EvaluateQuiz grades like GradeQuiz but persists nothing.
func (s *QuizService) EvaluateQuiz(ctx context.Context, quizID int64, answers domain.Answers) (domain.GradeResult, error) {
	_, def, err := s.Definition(ctx, quizID)
	if err != nil {
		return domain.GradeResult{}, err
	}
	return Grade(def, answers), nil
}

// PublishDefinition validates an uploaded definition and stores it. Invalid input is not stored.
func (s *QuizService) PublishDefinition(ctx context.Context, raw []byte) (string, domain.QuizDefinition, error) {
	def, err := ValidateDefinition(raw)
	if err != nil {
		return "", domain.QuizDefinition{}, err
	}
	ref, err := s.definitions.Store(ctx, raw)
	if err != nil {
		return "", domain.QuizDefinition{}, fmt.Errorf("store quiz definition: %w", err)
	}
	return ref, def, nil
}
