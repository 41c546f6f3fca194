package app_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"mini-lms/internal/app"
	"mini-lms/internal/domain"
	"mini-lms/internal/infra/memory"
)

const (
	teacher      int64 = 1
	student      int64 = 2
	outsider     int64 = 3
	otherTeacher int64 = 4
)

const passSeventy = `{"passing_score": 70, "questions": [
	{"question": "q1", "choices": ["a", "b"], "answer": 1},
	{"question": "q2", "choices": ["a", "b"], "answer": 0},
	{"question": "q3", "choices": ["a", "b", "c"], "answer": 2},
	{"question": "q4", "choices": ["a", "b", "c", "d"], "answer": 3}
]}`

type env struct {
	catalog     *memory.Catalog
	users       *memory.UserStore
	progress    *memory.ProgressStore
	attempts    *memory.AttemptStore
	enrollments *memory.EnrollmentStore
	definitions *memory.DefinitionStore

	clock time.Time

	quizzes    *app.QuizService
	tracker    *app.ProgressService
	enrollment *app.EnrollmentService
	learner    *app.LearnerService
	authoring  *app.AuthoringService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	e := &env{
		catalog:     memory.NewCatalog(),
		progress:    memory.NewProgressStore(),
		attempts:    memory.NewAttemptStore(),
		enrollments: memory.NewEnrollmentStore(),
		definitions: memory.NewDefinitionStore(nil),
		users: memory.NewUserStore(
			domain.User{ID: teacher, Role: domain.RoleTeacher},
			domain.User{ID: student, Role: domain.RoleStudent, Specialty: "Medicine", StudyYear: "3"},
			domain.User{ID: outsider, Role: domain.RoleStudent, Specialty: "Medicine", StudyYear: "2"},
			domain.User{ID: otherTeacher, Role: domain.RoleTeacher},
		),
		clock: time.Date(2025, 2, 5, 12, 0, 0, 0, time.UTC),
	}
	e.quizzes = app.NewQuizService(e.catalog, e.definitions, e.attempts, log)
	e.tracker = app.NewProgressServiceWithClock(e.catalog, e.progress, e.attempts, e.enrollments, func() time.Time { return e.clock })
	e.enrollment = app.NewEnrollmentService(e.users, e.catalog, e.enrollments)
	e.learner = app.NewLearnerService(e.enrollment, e.tracker, e.quizzes, e.catalog)
	e.authoring = app.NewAuthoringService(e.users, e.catalog, e.quizzes, e.tracker)
	return e
}

func (e *env) course(t *testing.T) domain.Course {
	t.Helper()
	c, err := e.authoring.CreateCourse(context.Background(), teacher, app.NewCourse{Title: "Cardiology", Specialty: "Medicine", TargetYear: 3})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	return c
}

func (e *env) lesson(t *testing.T, courseID int64, order int) domain.Lesson {
	t.Helper()
	l, err := e.authoring.CreateLesson(context.Background(), teacher, courseID, app.NewLesson{Title: "Lesson", SortOrder: order})
	if err != nil {
		t.Fatalf("create lesson: %v", err)
	}
	return l
}

func (e *env) resource(t *testing.T, lessonID int64) domain.Resource {
	t.Helper()
	r, err := e.authoring.CreateResource(context.Background(), teacher, lessonID, app.NewResource{Title: "Slides", FilePath: "resources/x.pdf"})
	if err != nil {
		t.Fatalf("create resource: %v", err)
	}
	return r
}

func (e *env) quiz(t *testing.T, lessonID int64) domain.Quiz {
	t.Helper()
	q, err := e.authoring.CreateQuiz(context.Background(), teacher, lessonID, app.NewQuiz{Title: "Quiz", Definition: []byte(passSeventy)})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return q
}

func (e *env) enroll(t *testing.T, studentID, courseID int64) {
	t.Helper()
	if err := e.enrollment.Enroll(context.Background(), studentID, courseID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
}

var (
	passingAnswers = domain.Answers{0: "1", 1: "0", 2: "2", 3: "1"}
	failingAnswers = domain.Answers{0: "1", 1: "1", 2: "1", 3: "1"}
)
