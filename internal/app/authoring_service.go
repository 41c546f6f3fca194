package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"mini-lms/internal/domain"
)

var errMissingField = errors.New("missing or invalid field")

// AuthoringService lets teachers build courses. Callers must hold the teacher role and
// every change is limited to the teacher's own courses.
type AuthoringService struct {
	users    UserRepository
	catalog  CatalogRepository
	quizzes  *QuizService
	progress *ProgressService
	now      func() time.Time
}

func NewAuthoringService(users UserRepository, catalog CatalogRepository, quizzes *QuizService, progress *ProgressService) *AuthoringService {
	return &AuthoringService{users: users, catalog: catalog, quizzes: quizzes, progress: progress, now: time.Now}
}

type NewCourse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Specialty   string `json:"specialty"`
	TargetYear  int    `json:"targetYear"`
}

type NewLesson struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
}

type NewResource struct {
	Title     string `json:"title"`
	FilePath  string `json:"filePath"`
	FileType  string `json:"fileType"`
	SortOrder int    `json:"sortOrder"`
}

// NewQuiz carries a quiz upload. On update an empty Definition keeps the current one.
type NewQuiz struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Definition  []byte `json:"-"`
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(errMissingField, domain.FieldError{Field: field, Error: "this field is required"})
	}
	return nil
}

func (s *AuthoringService) CreateCourse(ctx context.Context, teacherID int64, nc NewCourse) (domain.Course, error) {
	if err := s.requireTeacher(ctx, teacherID); err != nil {
		return domain.Course{}, err
	}
	if err := required("title", nc.Title); err != nil {
		return domain.Course{}, err
	}
	if err := required("specialty", nc.Specialty); err != nil {
		return domain.Course{}, err
	}
	if nc.TargetYear <= 0 {
		return domain.Course{}, domain.NewValidationError(errMissingField, domain.FieldError{Field: "targetYear", Error: "must be a positive year"})
	}
	return s.catalog.CreateCourse(ctx, domain.Course{
		TeacherID:   teacherID,
		Title:       strings.TrimSpace(nc.Title),
		Description: nc.Description,
		Specialty:   strings.TrimSpace(nc.Specialty),
		TargetYear:  nc.TargetYear,
		CreatedAt:   s.now().UTC(),
	})
}

func (s *AuthoringService) CreateLesson(ctx context.Context, teacherID, courseID int64, nl NewLesson) (domain.Lesson, error) {
	if _, err := s.ownedCourse(ctx, teacherID, courseID); err != nil {
		return domain.Lesson{}, err
	}
	if err := required("title", nl.Title); err != nil {
		return domain.Lesson{}, err
	}
	return s.catalog.CreateLesson(ctx, domain.Lesson{
		CourseID:    courseID,
		Title:       strings.TrimSpace(nl.Title),
		Description: nl.Description,
		SortOrder:   nl.SortOrder,
	})
}

func (s *AuthoringService) CreateResource(ctx context.Context, teacherID, lessonID int64, nr NewResource) (domain.Resource, error) {
	if _, err := s.ownedLesson(ctx, teacherID, lessonID); err != nil {
		return domain.Resource{}, err
	}
	if err := required("title", nr.Title); err != nil {
		return domain.Resource{}, err
	}
	if err := required("filePath", nr.FilePath); err != nil {
		return domain.Resource{}, err
	}
	fileType := nr.FileType
	if fileType == "" {
		fileType = "pdf"
	}
	return s.catalog.CreateResource(ctx, domain.Resource{
		LessonID:  lessonID,
		Title:     strings.TrimSpace(nr.Title),
		FilePath:  nr.FilePath,
		FileType:  fileType,
		SortOrder: nr.SortOrder,
	})
}

// CreateQuiz validates and stores the definition, then creates the quiz pointing at it.
func (s *AuthoringService) CreateQuiz(ctx context.Context, teacherID, lessonID int64, nq NewQuiz) (domain.Quiz, error) {
	if _, err := s.ownedLesson(ctx, teacherID, lessonID); err != nil {
		return domain.Quiz{}, err
	}
	if err := required("title", nq.Title); err != nil {
		return domain.Quiz{}, err
	}
	ref, _, err := s.quizzes.PublishDefinition(ctx, nq.Definition)
	if err != nil {
		return domain.Quiz{}, err
	}
	return s.catalog.CreateQuiz(ctx, domain.Quiz{
		LessonID:      lessonID,
		Title:         strings.TrimSpace(nq.Title),
		Description:   nq.Description,
		DefinitionRef: ref,
	})
}

// EvaluateQuiz is the teacher's trial run of a quiz; nothing is recorded.
func (s *AuthoringService) EvaluateQuiz(ctx context.Context, teacherID, quizID int64, answers domain.Answers) (domain.GradeResult, error) {
	if _, err := s.ownedQuiz(ctx, teacherID, quizID); err != nil {
		return domain.GradeResult{}, err
	}
	return s.quizzes.EvaluateQuiz(ctx, quizID, answers)
}

func (s *AuthoringService) CourseSummary(ctx context.Context, teacherID, courseID int64) (domain.CourseSummary, error) {
	if _, err := s.ownedCourse(ctx, teacherID, courseID); err != nil {
		return domain.CourseSummary{}, err
	}
	return s.progress.CourseSummary(ctx, courseID)
}

// Dashboard lists the teacher's courses with enrollment counts and average progress.
func (s *AuthoringService) Dashboard(ctx context.Context, teacherID int64) (domain.TeacherDashboard, error) {
	if err := s.requireTeacher(ctx, teacherID); err != nil {
		return domain.TeacherDashboard{}, err
	}
	courses, err := s.catalog.CoursesForTeacher(ctx, teacherID)
	if err != nil {
		return domain.TeacherDashboard{}, err
	}
	summaries, err := s.progress.CourseSummaries(ctx, courses)
	if err != nil {
		return domain.TeacherDashboard{}, err
	}

	stats := domain.TeacherStats{Courses: len(courses)}
	for _, c := range courses {
		stats.Lessons += len(c.Lessons)
		for _, l := range c.Lessons {
			stats.Resources += len(l.Resources)
			stats.Quizzes += len(l.Quizzes)
		}
	}
	for _, sum := range summaries {
		if sum.EnrolledCount > 0 {
			stats.CoursesWithEnrollments++
		} else {
			stats.CoursesWithoutEnrollments++
		}
	}
	return domain.TeacherDashboard{Courses: summaries, Stats: stats}, nil
}

func (s *AuthoringService) UpdateLesson(ctx context.Context, teacherID, lessonID int64, nl NewLesson) (domain.Lesson, error) {
	lesson, err := s.ownedLesson(ctx, teacherID, lessonID)
	if err != nil {
		return domain.Lesson{}, err
	}
	if err := required("title", nl.Title); err != nil {
		return domain.Lesson{}, err
	}
	lesson.Title = strings.TrimSpace(nl.Title)
	lesson.Description = nl.Description
	lesson.SortOrder = nl.SortOrder
	return s.catalog.UpdateLesson(ctx, lesson)
}

// DeleteLesson removes the lesson with its resources and quizzes, which drops them from
// every student's unit totals.
func (s *AuthoringService) DeleteLesson(ctx context.Context, teacherID, lessonID int64) error {
	if _, err := s.ownedLesson(ctx, teacherID, lessonID); err != nil {
		return err
	}
	return s.catalog.DeleteLesson(ctx, lessonID)
}

// UpdateQuiz renames a quiz and, when a definition is supplied, validates and stores it
// under a new reference. Attempts made against the old definition are kept.
func (s *AuthoringService) UpdateQuiz(ctx context.Context, teacherID, quizID int64, nq NewQuiz) (domain.Quiz, error) {
	quiz, err := s.ownedQuiz(ctx, teacherID, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := required("title", nq.Title); err != nil {
		return domain.Quiz{}, err
	}
	quiz.Title = strings.TrimSpace(nq.Title)
	quiz.Description = nq.Description
	if !isNull(nq.Definition) {
		ref, _, err := s.quizzes.PublishDefinition(ctx, nq.Definition)
		if err != nil {
			return domain.Quiz{}, err
		}
		quiz.DefinitionRef = ref
	}
	return s.catalog.UpdateQuiz(ctx, quiz)
}

func (s *AuthoringService) DeleteQuiz(ctx context.Context, teacherID, quizID int64) error {
	if _, err := s.ownedQuiz(ctx, teacherID, quizID); err != nil {
		return err
	}
	return s.catalog.DeleteQuiz(ctx, quizID)
}

func (s *AuthoringService) requireTeacher(ctx context.Context, userID int64) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != domain.RoleTeacher {
		return domain.ErrNotTeacher
	}
	return nil
}

func (s *AuthoringService) ownedCourse(ctx context.Context, teacherID, courseID int64) (domain.Course, error) {
	if err := s.requireTeacher(ctx, teacherID); err != nil {
		return domain.Course{}, err
	}
	course, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return domain.Course{}, err
	}
	if course.TeacherID != teacherID {
		return domain.Course{}, domain.ErrNotCourseOwner
	}
	return course, nil
}

func (s *AuthoringService) ownedLesson(ctx context.Context, teacherID, lessonID int64) (domain.Lesson, error) {
	lesson, err := s.catalog.GetLesson(ctx, lessonID)
	if err != nil {
		return domain.Lesson{}, err
	}
	if _, err := s.ownedCourse(ctx, teacherID, lesson.CourseID); err != nil {
		return domain.Lesson{}, err
	}
	return lesson, nil
}

func (s *AuthoringService) ownedQuiz(ctx context.Context, teacherID, quizID int64) (domain.Quiz, error) {
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if _, err := s.ownedLesson(ctx, teacherID, quiz.LessonID); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}
