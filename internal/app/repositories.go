package app

import (
	"context"
	"time"

	"mini-lms/internal/domain"
)

// CatalogRepository stores courses and their lessons, resources and quizzes.
// Child collections are resolved through foreign keys and returned sorted by sort order.
type CatalogRepository interface {
	CreateCourse(ctx context.Context, course domain.Course) (domain.Course, error)
	CreateLesson(ctx context.Context, lesson domain.Lesson) (domain.Lesson, error)
	CreateResource(ctx context.Context, resource domain.Resource) (domain.Resource, error)
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)

	GetCourse(ctx context.Context, courseID int64) (domain.Course, error)
	// GetCourseOutline returns the course with lessons, resources and quizzes populated.
	GetCourseOutline(ctx context.Context, courseID int64) (domain.Course, error)
	// GetLesson returns the lesson with resources and quizzes populated.
	GetLesson(ctx context.Context, lessonID int64) (domain.Lesson, error)
	GetResource(ctx context.Context, resourceID int64) (domain.Resource, error)
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	CoursesForStudent(ctx context.Context, specialty string, year int) ([]domain.Course, error)
	// CoursesForTeacher returns the teacher's course outlines, newest first.
	CoursesForTeacher(ctx context.Context, teacherID int64) ([]domain.Course, error)

	// UpdateLesson rewrites title, description and sort order; the course never changes.
	UpdateLesson(ctx context.Context, lesson domain.Lesson) (domain.Lesson, error)
	// DeleteLesson removes the lesson with its resources and quizzes.
	DeleteLesson(ctx context.Context, lessonID int64) error
	// UpdateQuiz rewrites title, description and definition reference; the lesson never changes.
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	DeleteQuiz(ctx context.Context, quizID int64) error
}

// UserRepository resolves platform accounts.
type UserRepository interface {
	GetUser(ctx context.Context, userID int64) (domain.User, error)
}

// ProgressRepository persists ResourceProgress rows. Both writes are upserts keyed on
// (student, resource) so concurrent first writes never produce duplicate rows.
type ProgressRepository interface {
	// MarkCompleted sets isCompleted and keeps the first completedAt.
	MarkCompleted(ctx context.Context, studentID, resourceID int64, at time.Time) (domain.ResourceProgress, error)
	// AddTimeSpent atomically increments the accumulated seconds.
	AddTimeSpent(ctx context.Context, studentID, resourceID int64, seconds int) (domain.ResourceProgress, error)
	GetProgress(ctx context.Context, studentID, resourceID int64) (domain.ResourceProgress, bool, error)
	ProgressForResources(ctx context.Context, studentID int64, resourceIDs []int64) (map[int64]domain.ResourceProgress, error)
}

// AttemptRepository stores graded quiz attempts. Attempts are only ever appended.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error)
	// PassedQuizzes reports which of quizIDs have at least one passed attempt by the student.
	PassedQuizzes(ctx context.Context, studentID int64, quizIDs []int64) (map[int64]bool, error)
	ListAttempts(ctx context.Context, studentID, quizID int64) ([]domain.Attempt, error)
}

// EnrollmentRepository stores the unique (student, course) enrollment relation.
type EnrollmentRepository interface {
	// Enroll is idempotent; created is false when the row already existed.
	Enroll(ctx context.Context, studentID, courseID int64, at time.Time) (created bool, err error)
	IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error)
	EnrolledCourseIDs(ctx context.Context, studentID int64) ([]int64, error)
	StudentsForCourse(ctx context.Context, courseID int64) ([]int64, error)
	CountForCourses(ctx context.Context, courseIDs []int64) (map[int64]int, error)
}

// DefinitionStore loads and stores raw quiz definition documents by reference.
type DefinitionStore interface {
	Load(ctx context.Context, ref string) ([]byte, error)
	Store(ctx context.Context, data []byte) (string, error)
}
