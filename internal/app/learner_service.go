package app

import (
	"context"

	"mini-lms/internal/domain"
)

// LearnerService is the student-facing entry point: every action is authorized against the
// owning course's enrollment before progress or grading runs.
type LearnerService struct {
	enrollment *EnrollmentService
	progress   *ProgressService
	quizzes    *QuizService
	catalog    CatalogRepository
}

func NewLearnerService(enrollment *EnrollmentService, progress *ProgressService, quizzes *QuizService, catalog CatalogRepository) *LearnerService {
	return &LearnerService{enrollment: enrollment, progress: progress, quizzes: quizzes, catalog: catalog}
}

// CourseView is a course outline with the caller's progress.
type CourseView struct {
	Course   domain.Course                `json:"course"`
	Progress domain.StudentCourseProgress `json:"progress"`
}

// QuizView exposes a quiz to a student without the correct answers.
type QuizView struct {
	Quiz         domain.Quiz    `json:"quiz"`
	PassingScore int            `json:"passingScore"`
	Questions    []QuestionView `json:"questions"`
}

type QuestionView struct {
	Index   int      `json:"index"`
	Text    string   `json:"question"`
	Choices []string `json:"choices"`
}

func (s *LearnerService) Enroll(ctx context.Context, studentID, courseID int64) error {
	return s.enrollment.Enroll(ctx, studentID, courseID)
}

func (s *LearnerService) Catalog(ctx context.Context, studentID int64) ([]domain.CatalogEntry, error) {
	return s.enrollment.CoursesForStudent(ctx, studentID)
}

func (s *LearnerService) Course(ctx context.Context, studentID, courseID int64) (CourseView, error) {
	if err := s.enrollment.RequireEnrollment(ctx, studentID, courseID); err != nil {
		return CourseView{}, err
	}
	course, err := s.catalog.GetCourseOutline(ctx, courseID)
	if err != nil {
		return CourseView{}, err
	}
	progress, err := s.progress.CourseProgress(ctx, courseID, studentID)
	if err != nil {
		return CourseView{}, err
	}
	return CourseView{Course: course, Progress: progress}, nil
}

// ResourceCourse returns the course owning a resource the student may act on.
func (s *LearnerService) ResourceCourse(ctx context.Context, studentID, resourceID int64) (int64, error) {
	_, lesson, err := s.enrollment.AuthorizeResource(ctx, studentID, resourceID)
	if err != nil {
		return 0, err
	}
	return lesson.CourseID, nil
}

// RecordTime adds time to a resource. Non-positive increments are ignored and return the current row.
func (s *LearnerService) RecordTime(ctx context.Context, studentID, resourceID int64, seconds int) (domain.ResourceProgress, int64, error) {
	_, lesson, err := s.enrollment.AuthorizeResource(ctx, studentID, resourceID)
	if err != nil {
		return domain.ResourceProgress{}, 0, err
	}
	if seconds <= 0 {
		p, err := s.progress.ResourceProgress(ctx, studentID, resourceID)
		return p, lesson.CourseID, err
	}
	p, err := s.progress.AddTimeSpent(ctx, studentID, resourceID, seconds)
	return p, lesson.CourseID, err
}

func (s *LearnerService) CompleteResource(ctx context.Context, studentID, resourceID int64) (domain.ResourceProgress, int64, error) {
	_, lesson, err := s.enrollment.AuthorizeResource(ctx, studentID, resourceID)
	if err != nil {
		return domain.ResourceProgress{}, 0, err
	}
	p, err := s.progress.MarkResourceCompleted(ctx, studentID, resourceID)
	return p, lesson.CourseID, err
}

// Quiz returns the questions of a quiz the student may take. Like SubmitQuiz it requires
// every resource of the lesson to be completed.
func (s *LearnerService) Quiz(ctx context.Context, studentID, quizID int64) (QuizView, error) {
	quiz, err := s.quizGate(ctx, studentID, quizID)
	if err != nil {
		return QuizView{}, err
	}
	def := s.quizzes.LoadDefinition(ctx, quiz)
	view := QuizView{Quiz: quiz, PassingScore: def.PassingScore, Questions: make([]QuestionView, 0, len(def.Questions))}
	for i, q := range def.Questions {
		view.Questions = append(view.Questions, QuestionView{Index: i, Text: q.Text, Choices: q.Choices})
	}
	return view, nil
}

// SubmitQuiz grades an attempt once every resource of the quiz's lesson is completed.
func (s *LearnerService) SubmitQuiz(ctx context.Context, studentID, quizID int64, answers domain.Answers) (domain.Attempt, error) {
	if _, err := s.quizGate(ctx, studentID, quizID); err != nil {
		return domain.Attempt{}, err
	}
	return s.quizzes.GradeQuiz(ctx, quizID, studentID, answers)
}

func (s *LearnerService) quizGate(ctx context.Context, studentID, quizID int64) (domain.Quiz, error) {
	quiz, lesson, err := s.enrollment.AuthorizeQuiz(ctx, studentID, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	ready, err := s.progress.AreLessonResourcesCompleted(ctx, lesson.ID, studentID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !ready {
		return domain.Quiz{}, domain.ErrLessonResourcesIncomplete
	}
	return quiz, nil
}

// Dashboard splits the courses open to the student into enrolled ones, with progress,
// and ones still available for enrollment.
func (s *LearnerService) Dashboard(ctx context.Context, studentID int64) (domain.StudentDashboard, error) {
	entries, err := s.enrollment.CoursesForStudent(ctx, studentID)
	if err != nil {
		return domain.StudentDashboard{}, err
	}
	dash := domain.StudentDashboard{Enrolled: []domain.EnrolledCourse{}, Available: []domain.Course{}}
	for _, e := range entries {
		if !e.Enrolled {
			dash.Available = append(dash.Available, e.Course)
			continue
		}
		progress, err := s.progress.CourseProgress(ctx, e.Course.ID, studentID)
		if err != nil {
			return domain.StudentDashboard{}, err
		}
		dash.Enrolled = append(dash.Enrolled, domain.EnrolledCourse{
			Course:     e.Course,
			Percentage: progress.Percentage,
			Completed:  progress.Completed,
		})
	}
	return dash, nil
}

// Progress is the course-level progress of an enrolled student.
func (s *LearnerService) Progress(ctx context.Context, studentID, courseID int64) (domain.StudentCourseProgress, error) {
	if err := s.enrollment.RequireEnrollment(ctx, studentID, courseID); err != nil {
		return domain.StudentCourseProgress{}, err
	}
	return s.progress.CourseProgress(ctx, courseID, studentID)
}
