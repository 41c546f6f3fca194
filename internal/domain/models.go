package domain

import "time"

// Roles carried by users.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// MaxScore is the upper bound of an attempt score.
const MaxScore = 100

// User is a platform account. StudyYear is free-form text as entered at registration.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Specialty string `json:"specialty,omitempty"`
	StudyYear string `json:"studyYear,omitempty"`
}

// Course groups lessons for one specialty and study year.
type Course struct {
	ID          int64     `json:"id"`
	TeacherID   int64     `json:"teacherId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Specialty   string    `json:"specialty"`
	TargetYear  int       `json:"targetYear"`
	Lessons     []Lesson  `json:"lessons,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Lesson belongs to a course; completion is defined by its own resources and quizzes.
type Lesson struct {
	ID          int64      `json:"id"`
	CourseID    int64      `json:"courseId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	SortOrder   int        `json:"sortOrder"`
	Resources   []Resource `json:"resources,omitempty"`
	Quizzes     []Quiz     `json:"quizzes,omitempty"`
}

// Resource is the atomic completable unit of a lesson.
type Resource struct {
	ID        int64  `json:"id"`
	LessonID  int64  `json:"lessonId"`
	Title     string `json:"title"`
	FilePath  string `json:"filePath"`
	FileType  string `json:"fileType"`
	SortOrder int    `json:"sortOrder"`
}

// Quiz points at an externally stored JSON definition.
type Quiz struct {
	ID            int64  `json:"id"`
	LessonID      int64  `json:"lessonId"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	DefinitionRef string `json:"-"`
}

// ResourceProgress is the per-student state of one resource.
type ResourceProgress struct {
	StudentID   int64      `json:"studentId"`
	ResourceID  int64      `json:"resourceId"`
	IsCompleted bool       `json:"isCompleted"`
	TimeSpent   int        `json:"timeSpent"` // seconds
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Attempt is one graded quiz submission. History is additive.
type Attempt struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"studentId"`
	QuizID      int64     `json:"quizId"`
	Score       int       `json:"score"`
	Passed      bool      `json:"passed"`
	AttemptedAt time.Time `json:"attemptedAt"`
}

// Enrollment links a student to a course.
type Enrollment struct {
	StudentID  int64     `json:"studentId"`
	CourseID   int64     `json:"courseId"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

// Question is one multiple-choice item of a quiz definition.
type Question struct {
	Text         string   `json:"question"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"answer"`
}

// QuizDefinition is the parsed form of a stored quiz JSON document.
type QuizDefinition struct {
	PassingScore int        `json:"passing_score"`
	Questions    []Question `json:"questions"`
}

// GradeResult is the outcome of scoring a set of answers.
type GradeResult struct {
	Score  int  `json:"score"`
	Passed bool `json:"passed"`
}

// Answers maps a question index to the submitted choice, as received from the client.
type Answers map[int]string

// UnitTally counts completable units (resources and quizzes).
type UnitTally struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Add accumulates another tally.
func (t UnitTally) Add(o UnitTally) UnitTally {
	return UnitTally{Completed: t.Completed + o.Completed, Total: t.Total + o.Total}
}

// CatalogEntry is a course visible to a student together with its enrollment flag.
type CatalogEntry struct {
	Course   Course `json:"course"`
	Enrolled bool   `json:"enrolled"`
}

// CourseSummary aggregates enrollment and progress for a course's teacher.
type CourseSummary struct {
	CourseID        int64   `json:"courseId"`
	Title           string  `json:"title"`
	EnrolledCount   int     `json:"enrolledCount"`
	AverageProgress float64 `json:"averageProgress"`
}

// TeacherStats counts what a teacher has authored.
type TeacherStats struct {
	Courses                   int `json:"courses"`
	Lessons                   int `json:"lessons"`
	Resources                 int `json:"resources"`
	Quizzes                   int `json:"quizzes"`
	CoursesWithEnrollments    int `json:"coursesWithEnrollments"`
	CoursesWithoutEnrollments int `json:"coursesWithoutEnrollments"`
}

// TeacherDashboard lists a teacher's courses, newest first, with their summaries.
type TeacherDashboard struct {
	Courses []CourseSummary `json:"courses"`
	Stats   TeacherStats    `json:"stats"`
}

// EnrolledCourse is a course on a student's dashboard with the student's progress.
type EnrolledCourse struct {
	Course     Course  `json:"course"`
	Percentage float64 `json:"percentage"`
	Completed  bool    `json:"completed"`
}

// StudentDashboard splits the courses open to a student into enrolled and available.
type StudentDashboard struct {
	Enrolled  []EnrolledCourse `json:"enrolled"`
	Available []Course         `json:"available"`
}

// StudentCourseProgress is the progress view a student sees on a course page.
type StudentCourseProgress struct {
	CourseID           int64          `json:"courseId"`
	Percentage         float64        `json:"percentage"`
	Completed          bool           `json:"completed"`
	TotalTimeSpent     int            `json:"totalTimeSpent"`
	CompletedLessons   map[int64]bool `json:"completedLessons"`
	CompletedResources map[int64]bool `json:"completedResources"`
	PassedQuizzes      map[int64]bool `json:"passedQuizzes"`
}
