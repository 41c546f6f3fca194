package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mini-lms/internal/domain"
)

// ParseStudyYear reads a year stored as text ("3", " 3 ") as an integer.
func ParseStudyYear(raw string) (int, bool) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return year, true
}

func normalizeSpecialty(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsEligible requires both the specialty and the study year (compared as integers) to match.
func IsEligible(student domain.User, course domain.Course) bool {
	specialty := normalizeSpecialty(student.Specialty)
	if specialty == "" || specialty != normalizeSpecialty(course.Specialty) {
		return false
	}
	year, ok := ParseStudyYear(student.StudyYear)
	return ok && year == course.TargetYear
}

// EnrollmentService gates course access on eligibility and enrollment.
type EnrollmentService struct {
	users       UserRepository
	catalog     CatalogRepository
	enrollments EnrollmentRepository
	now         func() time.Time
}

func NewEnrollmentService(users UserRepository, catalog CatalogRepository, enrollments EnrollmentRepository) *EnrollmentService {
	return &EnrollmentService{users: users, catalog: catalog, enrollments: enrollments, now: time.Now}
}

// Enroll fails with ErrIneligibleEnrollment before writing anything; re-enrolling is a no-op.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, courseID int64) error {
	student, err := s.users.GetUser(ctx, studentID)
	if err != nil {
		return err
	}
	course, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if !IsEligible(student, course) {
		return domain.ErrIneligibleEnrollment
	}
	if _, err := s.enrollments.Enroll(ctx, studentID, courseID, s.now().UTC()); err != nil {
		return fmt.Errorf("enroll student %d in course %d: %w", studentID, courseID, err)
	}
	return nil
}

func (s *EnrollmentService) IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error) {
	return s.enrollments.IsEnrolled(ctx, studentID, courseID)
}

// RequireEnrollment returns ErrNotEnrolled for students outside the course.
func (s *EnrollmentService) RequireEnrollment(ctx context.Context, studentID, courseID int64) error {
	ok, err := s.enrollments.IsEnrolled(ctx, studentID, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotEnrolled
	}
	return nil
}

// AuthorizeResource resolves resource -> lesson -> course and checks enrollment.
func (s *EnrollmentService) AuthorizeResource(ctx context.Context, studentID, resourceID int64) (domain.Resource, domain.Lesson, error) {
	resource, err := s.catalog.GetResource(ctx, resourceID)
	if err != nil {
		return domain.Resource{}, domain.Lesson{}, err
	}
	lesson, err := s.catalog.GetLesson(ctx, resource.LessonID)
	if err != nil {
		return domain.Resource{}, domain.Lesson{}, err
	}
	if err := s.RequireEnrollment(ctx, studentID, lesson.CourseID); err != nil {
		return domain.Resource{}, domain.Lesson{}, err
	}
	return resource, lesson, nil
}

// AuthorizeQuiz resolves quiz -> lesson -> course and checks enrollment.
func (s *EnrollmentService) AuthorizeQuiz(ctx context.Context, studentID, quizID int64) (domain.Quiz, domain.Lesson, error) {
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, domain.Lesson{}, err
	}
	lesson, err := s.catalog.GetLesson(ctx, quiz.LessonID)
	if err != nil {
		return domain.Quiz{}, domain.Lesson{}, err
	}
	if err := s.RequireEnrollment(ctx, studentID, lesson.CourseID); err != nil {
		return domain.Quiz{}, domain.Lesson{}, err
	}
	return quiz, lesson, nil
}

// CoursesForStudent lists courses matching the student's specialty and year.
// Students without both set see nothing.
func (s *EnrollmentService) CoursesForStudent(ctx context.Context, studentID int64) ([]domain.CatalogEntry, error) {
	student, err := s.users.GetUser(ctx, studentID)
	if err != nil {
		return nil, err
	}
	year, ok := ParseStudyYear(student.StudyYear)
	if !ok || strings.TrimSpace(student.Specialty) == "" {
		return []domain.CatalogEntry{}, nil
	}
	courses, err := s.catalog.CoursesForStudent(ctx, student.Specialty, year)
	if err != nil {
		return nil, fmt.Errorf("courses for student: %w", err)
	}
	enrolledIDs, err := s.enrollments.EnrolledCourseIDs(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("enrolled courses: %w", err)
	}
	enrolled := make(map[int64]bool, len(enrolledIDs))
	for _, id := range enrolledIDs {
		enrolled[id] = true
	}

	entries := make([]domain.CatalogEntry, 0, len(courses))
	for _, c := range courses {
		if !IsEligible(student, c) {
			continue
		}
		entries = append(entries, domain.CatalogEntry{Course: c, Enrolled: enrolled[c.ID]})
	}
	return entries, nil
}
