package app

import (
	"context"
	"fmt"
	"time"

	"mini-lms/internal/domain"
)

// ProgressService records resource progress and derives lesson and course completion.
// It performs no access checks; callers authorize first.
type ProgressService struct {
	catalog     CatalogRepository
	progress    ProgressRepository
	attempts    AttemptRepository
	enrollments EnrollmentRepository
	now         func() time.Time
}

func NewProgressService(catalog CatalogRepository, progress ProgressRepository, attempts AttemptRepository, enrollments EnrollmentRepository) *ProgressService {
	return NewProgressServiceWithClock(catalog, progress, attempts, enrollments, time.Now)
}

// NewProgressServiceWithClock allows deterministic completion timestamps in tests.
func NewProgressServiceWithClock(catalog CatalogRepository, progress ProgressRepository, attempts AttemptRepository, enrollments EnrollmentRepository, now func() time.Time) *ProgressService {
	return &ProgressService{
		catalog:     catalog,
		progress:    progress,
		attempts:    attempts,
		enrollments: enrollments,
		now:         now,
	}
}

// MarkResourceCompleted is idempotent; the first completion timestamp wins.
func (s *ProgressService) MarkResourceCompleted(ctx context.Context, studentID, resourceID int64) (domain.ResourceProgress, error) {
	return s.progress.MarkCompleted(ctx, studentID, resourceID, s.now().UTC())
}

// AddTimeSpent adds seconds to the accumulated time of a resource.
func (s *ProgressService) AddTimeSpent(ctx context.Context, studentID, resourceID int64, seconds int) (domain.ResourceProgress, error) {
	if seconds <= 0 {
		return domain.ResourceProgress{}, domain.ErrInvalidTimeIncrement
	}
	return s.progress.AddTimeSpent(ctx, studentID, resourceID, seconds)
}

// ResourceProgress returns the stored row, or an empty one when the student never touched the resource.
func (s *ProgressService) ResourceProgress(ctx context.Context, studentID, resourceID int64) (domain.ResourceProgress, error) {
	p, ok, err := s.progress.GetProgress(ctx, studentID, resourceID)
	if err != nil {
		return domain.ResourceProgress{}, err
	}
	if !ok {
		return domain.ResourceProgress{StudentID: studentID, ResourceID: resourceID}, nil
	}
	return p, nil
}

func (s *ProgressService) IsResourceCompleted(ctx context.Context, studentID, resourceID int64) (bool, error) {
	p, ok, err := s.progress.GetProgress(ctx, studentID, resourceID)
	if err != nil {
		return false, err
	}
	return ok && p.IsCompleted, nil
}

func (s *ProgressService) IsLessonCompleted(ctx context.Context, lessonID, studentID int64) (bool, error) {
	lesson, facts, err := s.lessonFacts(ctx, lessonID, studentID)
	if err != nil {
		return false, err
	}
	return LessonCompleted(lesson, facts), nil
}

// AreLessonResourcesCompleted gates quiz attempts.
func (s *ProgressService) AreLessonResourcesCompleted(ctx context.Context, lessonID, studentID int64) (bool, error) {
	lesson, facts, err := s.lessonFacts(ctx, lessonID, studentID)
	if err != nil {
		return false, err
	}
	return LessonResourcesCompleted(lesson, facts), nil
}

func (s *ProgressService) IsCourseCompleted(ctx context.Context, courseID, studentID int64) (bool, error) {
	course, facts, err := s.courseFacts(ctx, courseID, studentID)
	if err != nil {
		return false, err
	}
	return CourseCompleted(course, facts), nil
}

func (s *ProgressService) GetCourseProgressPercentage(ctx context.Context, courseID, studentID int64) (float64, error) {
	course, facts, err := s.courseFacts(ctx, courseID, studentID)
	if err != nil {
		return 0, err
	}
	return Percentage(CourseTally(course, facts)), nil
}

// GetAverageCourseProgress averages the percentage over currently enrolled students.
func (s *ProgressService) GetAverageCourseProgress(ctx context.Context, courseID int64) (float64, error) {
	course, err := s.catalog.GetCourseOutline(ctx, courseID)
	if err != nil {
		return 0, err
	}
	return s.averageProgress(ctx, course)
}

func (s *ProgressService) averageProgress(ctx context.Context, course domain.Course) (float64, error) {
	students, err := s.enrollments.StudentsForCourse(ctx, course.ID)
	if err != nil {
		return 0, fmt.Errorf("students for course %d: %w", course.ID, err)
	}
	if len(students) == 0 {
		return 0.0, nil
	}

	var sum float64
	for _, studentID := range students {
		facts, err := s.facts(ctx, studentID, course.Lessons)
		if err != nil {
			return 0, err
		}
		sum += Percentage(CourseTally(course, facts))
	}
	return round2(sum / float64(len(students))), nil
}

func (s *ProgressService) GetTotalTimeSpent(ctx context.Context, courseID, studentID int64) (int, error) {
	course, facts, err := s.courseFacts(ctx, courseID, studentID)
	if err != nil {
		return 0, err
	}
	return TotalTimeSpent(course, facts), nil
}

// CourseProgress computes the full progress view from one fetch of the student's facts.
func (s *ProgressService) CourseProgress(ctx context.Context, courseID, studentID int64) (domain.StudentCourseProgress, error) {
	course, facts, err := s.courseFacts(ctx, courseID, studentID)
	if err != nil {
		return domain.StudentCourseProgress{}, err
	}
	view := domain.StudentCourseProgress{
		CourseID:           courseID,
		Percentage:         Percentage(CourseTally(course, facts)),
		Completed:          CourseCompleted(course, facts),
		TotalTimeSpent:     TotalTimeSpent(course, facts),
		CompletedLessons:   make(map[int64]bool, len(course.Lessons)),
		CompletedResources: make(map[int64]bool),
		PassedQuizzes:      make(map[int64]bool),
	}
	for _, l := range course.Lessons {
		view.CompletedLessons[l.ID] = LessonCompleted(l, facts)
		for _, r := range l.Resources {
			view.CompletedResources[r.ID] = facts.ResourceCompleted(r.ID)
		}
		for _, q := range l.Quizzes {
			view.PassedQuizzes[q.ID] = facts.QuizPassed(q.ID)
		}
	}
	return view, nil
}

// CourseSummary is the teacher-facing aggregate of a course.
func (s *ProgressService) CourseSummary(ctx context.Context, courseID int64) (domain.CourseSummary, error) {
	course, err := s.catalog.GetCourseOutline(ctx, courseID)
	if err != nil {
		return domain.CourseSummary{}, err
	}
	summaries, err := s.CourseSummaries(ctx, []domain.Course{course})
	if err != nil {
		return domain.CourseSummary{}, err
	}
	return summaries[0], nil
}

// CourseSummaries aggregates already outlined courses, counting enrollments in one batch.
func (s *ProgressService) CourseSummaries(ctx context.Context, courses []domain.Course) ([]domain.CourseSummary, error) {
	summaries := make([]domain.CourseSummary, 0, len(courses))
	if len(courses) == 0 {
		return summaries, nil
	}
	ids := make([]int64, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	counts, err := s.enrollments.CountForCourses(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}
	for _, c := range courses {
		avg, err := s.averageProgress(ctx, c)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, domain.CourseSummary{
			CourseID:        c.ID,
			Title:           c.Title,
			EnrolledCount:   counts[c.ID],
			AverageProgress: avg,
		})
	}
	return summaries, nil
}

func (s *ProgressService) courseFacts(ctx context.Context, courseID, studentID int64) (domain.Course, ProgressFacts, error) {
	course, err := s.catalog.GetCourseOutline(ctx, courseID)
	if err != nil {
		return domain.Course{}, ProgressFacts{}, err
	}
	facts, err := s.facts(ctx, studentID, course.Lessons)
	return course, facts, err
}

func (s *ProgressService) lessonFacts(ctx context.Context, lessonID, studentID int64) (domain.Lesson, ProgressFacts, error) {
	lesson, err := s.catalog.GetLesson(ctx, lessonID)
	if err != nil {
		return domain.Lesson{}, ProgressFacts{}, err
	}
	facts, err := s.facts(ctx, studentID, []domain.Lesson{lesson})
	return lesson, facts, err
}

func (s *ProgressService) facts(ctx context.Context, studentID int64, lessons []domain.Lesson) (ProgressFacts, error) {
	resourceIDs, quizIDs := courseUnitIDs(lessons)
	facts := ProgressFacts{
		Resources:     map[int64]domain.ResourceProgress{},
		PassedQuizzes: map[int64]bool{},
	}
	if len(resourceIDs) > 0 {
		rows, err := s.progress.ProgressForResources(ctx, studentID, resourceIDs)
		if err != nil {
			return ProgressFacts{}, fmt.Errorf("load resource progress: %w", err)
		}
		facts.Resources = rows
	}
	if len(quizIDs) > 0 {
		passed, err := s.attempts.PassedQuizzes(ctx, studentID, quizIDs)
		if err != nil {
			return ProgressFacts{}, fmt.Errorf("load passed quizzes: %w", err)
		}
		facts.PassedQuizzes = passed
	}
	return facts, nil
}
