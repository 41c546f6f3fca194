package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"mini-lms/internal/domain"
)

// Catalog is an in-memory course catalog. Children are linked by id, as in the relational schema.
type Catalog struct {
	mu        sync.RWMutex
	nextID    int64
	courses   map[int64]domain.Course
	lessons   map[int64]domain.Lesson
	resources map[int64]domain.Resource
	quizzes   map[int64]domain.Quiz
}

func NewCatalog() *Catalog {
	return &Catalog{
		courses:   make(map[int64]domain.Course),
		lessons:   make(map[int64]domain.Lesson),
		resources: make(map[int64]domain.Resource),
		quizzes:   make(map[int64]domain.Quiz),
	}
}

func (c *Catalog) id() int64 {
	c.nextID++
	return c.nextID
}

func (c *Catalog) CreateCourse(_ context.Context, course domain.Course) (domain.Course, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	course.ID = c.id()
	course.Lessons = nil
	c.courses[course.ID] = course
	return course, nil
}

func (c *Catalog) CreateLesson(_ context.Context, lesson domain.Lesson) (domain.Lesson, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.courses[lesson.CourseID]; !ok {
		return domain.Lesson{}, domain.ErrCourseNotFound
	}
	lesson.ID = c.id()
	lesson.Resources, lesson.Quizzes = nil, nil
	c.lessons[lesson.ID] = lesson
	return lesson, nil
}

func (c *Catalog) CreateResource(_ context.Context, resource domain.Resource) (domain.Resource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lessons[resource.LessonID]; !ok {
		return domain.Resource{}, domain.ErrLessonNotFound
	}
	resource.ID = c.id()
	c.resources[resource.ID] = resource
	return resource, nil
}

func (c *Catalog) CreateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lessons[quiz.LessonID]; !ok {
		return domain.Quiz{}, domain.ErrLessonNotFound
	}
	quiz.ID = c.id()
	c.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (c *Catalog) GetCourse(_ context.Context, courseID int64) (domain.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	course, ok := c.courses[courseID]
	if !ok {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	return course, nil
}

func (c *Catalog) GetCourseOutline(_ context.Context, courseID int64) (domain.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	course, ok := c.courses[courseID]
	if !ok {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	return c.outline(course), nil
}

func (c *Catalog) GetLesson(_ context.Context, lessonID int64) (domain.Lesson, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	lesson, ok := c.lessons[lessonID]
	if !ok {
		return domain.Lesson{}, domain.ErrLessonNotFound
	}
	return c.populate(lesson), nil
}

func (c *Catalog) GetResource(_ context.Context, resourceID int64) (domain.Resource, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.resources[resourceID]
	if !ok {
		return domain.Resource{}, domain.ErrResourceNotFound
	}
	return r, nil
}

func (c *Catalog) GetQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return q, nil
}

func (c *Catalog) CoursesForStudent(_ context.Context, specialty string, year int) ([]domain.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	want := strings.ToLower(strings.TrimSpace(specialty))
	out := []domain.Course{}
	for _, course := range c.courses {
		if strings.ToLower(strings.TrimSpace(course.Specialty)) == want && course.TargetYear == year {
			out = append(out, course)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *Catalog) CoursesForTeacher(_ context.Context, teacherID int64) ([]domain.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []domain.Course{}
	for _, course := range c.courses {
		if course.TeacherID == teacherID {
			out = append(out, c.outline(course))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (c *Catalog) UpdateLesson(_ context.Context, lesson domain.Lesson) (domain.Lesson, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored, ok := c.lessons[lesson.ID]
	if !ok {
		return domain.Lesson{}, domain.ErrLessonNotFound
	}
	stored.Title = lesson.Title
	stored.Description = lesson.Description
	stored.SortOrder = lesson.SortOrder
	c.lessons[stored.ID] = stored
	return stored, nil
}

func (c *Catalog) DeleteLesson(_ context.Context, lessonID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lessons[lessonID]; !ok {
		return domain.ErrLessonNotFound
	}
	delete(c.lessons, lessonID)
	for id, r := range c.resources {
		if r.LessonID == lessonID {
			delete(c.resources, id)
		}
	}
	for id, q := range c.quizzes {
		if q.LessonID == lessonID {
			delete(c.quizzes, id)
		}
	}
	return nil
}

func (c *Catalog) UpdateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored, ok := c.quizzes[quiz.ID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	stored.Title = quiz.Title
	stored.Description = quiz.Description
	stored.DefinitionRef = quiz.DefinitionRef
	c.quizzes[stored.ID] = stored
	return stored, nil
}

func (c *Catalog) DeleteQuiz(_ context.Context, quizID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(c.quizzes, quizID)
	return nil
}

// outline attaches sorted lessons; caller holds the read lock.
func (c *Catalog) outline(course domain.Course) domain.Course {
	course.Lessons = []domain.Lesson{}
	for _, l := range c.lessons {
		if l.CourseID == course.ID {
			course.Lessons = append(course.Lessons, c.populate(l))
		}
	}
	sort.Slice(course.Lessons, func(i, j int) bool {
		a, b := course.Lessons[i], course.Lessons[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.ID < b.ID
	})
	return course
}

// populate attaches resources and quizzes; caller holds the read lock.
func (c *Catalog) populate(lesson domain.Lesson) domain.Lesson {
	lesson.Resources = []domain.Resource{}
	lesson.Quizzes = []domain.Quiz{}
	for _, r := range c.resources {
		if r.LessonID == lesson.ID {
			lesson.Resources = append(lesson.Resources, r)
		}
	}
	for _, q := range c.quizzes {
		if q.LessonID == lesson.ID {
			lesson.Quizzes = append(lesson.Quizzes, q)
		}
	}
	sort.Slice(lesson.Resources, func(i, j int) bool {
		a, b := lesson.Resources[i], lesson.Resources[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.ID < b.ID
	})
	sort.Slice(lesson.Quizzes, func(i, j int) bool { return lesson.Quizzes[i].ID < lesson.Quizzes[j].ID })
	return lesson
}
