package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"mini-lms/internal/domain"
)

func TestCatalogOutlineOrdering(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog()
	course, _ := c.CreateCourse(ctx, domain.Course{Title: "Anatomy", Specialty: "Medicine", TargetYear: 2})
	second, _ := c.CreateLesson(ctx, domain.Lesson{CourseID: course.ID, Title: "second", SortOrder: 2})
	first, _ := c.CreateLesson(ctx, domain.Lesson{CourseID: course.ID, Title: "first", SortOrder: 1})
	tie, _ := c.CreateLesson(ctx, domain.Lesson{CourseID: course.ID, Title: "tie", SortOrder: 1})
	r2, _ := c.CreateResource(ctx, domain.Resource{LessonID: first.ID, Title: "b", SortOrder: 5})
	r1, _ := c.CreateResource(ctx, domain.Resource{LessonID: first.ID, Title: "a", SortOrder: 0})

	outline, err := c.GetCourseOutline(ctx, course.ID)
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	if len(outline.Lessons) != 3 {
		t.Fatalf("expected 3 lessons, got %d", len(outline.Lessons))
	}
	got := []int64{outline.Lessons[0].ID, outline.Lessons[1].ID, outline.Lessons[2].ID}
	want := []int64{first.ID, tie.ID, second.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("lesson order %v, want %v", got, want)
		}
	}
	res := outline.Lessons[0].Resources
	if len(res) != 2 || res[0].ID != r1.ID || res[1].ID != r2.ID {
		t.Fatalf("unexpected resource order %+v", res)
	}
}

func TestCatalogMissingParent(t *testing.T) {
	c := NewCatalog()
	if _, err := c.CreateLesson(context.Background(), domain.Lesson{CourseID: 42}); err != domain.ErrCourseNotFound {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
	if _, err := c.GetQuiz(context.Background(), 7); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestCatalogCoursesForStudent(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog()
	match, _ := c.CreateCourse(ctx, domain.Course{Title: "a", Specialty: "Medicine", TargetYear: 3})
	_, _ = c.CreateCourse(ctx, domain.Course{Title: "b", Specialty: "Medicine", TargetYear: 2})
	_, _ = c.CreateCourse(ctx, domain.Course{Title: "c", Specialty: "Law", TargetYear: 3})

	courses, err := c.CoursesForStudent(ctx, " medicine ", 3)
	if err != nil {
		t.Fatalf("courses: %v", err)
	}
	if len(courses) != 1 || courses[0].ID != match.ID {
		t.Fatalf("unexpected courses %+v", courses)
	}
}

func TestCatalogCoursesForTeacher(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog()
	day := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	older, _ := c.CreateCourse(ctx, domain.Course{TeacherID: 1, Title: "old", CreatedAt: day})
	newer, _ := c.CreateCourse(ctx, domain.Course{TeacherID: 1, Title: "new", CreatedAt: day.Add(time.Hour)})
	tie, _ := c.CreateCourse(ctx, domain.Course{TeacherID: 1, Title: "tie", CreatedAt: day})
	_, _ = c.CreateCourse(ctx, domain.Course{TeacherID: 2, Title: "other", CreatedAt: day.Add(2 * time.Hour)})
	l, _ := c.CreateLesson(ctx, domain.Lesson{CourseID: older.ID, Title: "l"})

	courses, err := c.CoursesForTeacher(ctx, 1)
	if err != nil {
		t.Fatalf("courses: %v", err)
	}
	want := []int64{newer.ID, tie.ID, older.ID}
	if len(courses) != len(want) {
		t.Fatalf("expected %d courses, got %+v", len(want), courses)
	}
	for i := range want {
		if courses[i].ID != want[i] {
			t.Fatalf("course %d is %d, want %d", i, courses[i].ID, want[i])
		}
	}
	if len(courses[2].Lessons) != 1 || courses[2].Lessons[0].ID != l.ID {
		t.Fatalf("expected outlined lessons, got %+v", courses[2].Lessons)
	}

	none, err := c.CoursesForTeacher(ctx, 9)
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("expected empty list, got %v (%v)", none, err)
	}
}

func TestCatalogUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog()
	course, _ := c.CreateCourse(ctx, domain.Course{Title: "Anatomy"})
	lesson, _ := c.CreateLesson(ctx, domain.Lesson{CourseID: course.ID, Title: "before"})
	res, _ := c.CreateResource(ctx, domain.Resource{LessonID: lesson.ID, Title: "r"})
	quiz, _ := c.CreateQuiz(ctx, domain.Quiz{LessonID: lesson.ID, Title: "q", DefinitionRef: "a"})

	updated, err := c.UpdateLesson(ctx, domain.Lesson{ID: lesson.ID, CourseID: 999, Title: "after", SortOrder: 4})
	if err != nil || updated.Title != "after" || updated.SortOrder != 4 || updated.CourseID != course.ID {
		t.Fatalf("update lesson: %+v (%v)", updated, err)
	}
	q, err := c.UpdateQuiz(ctx, domain.Quiz{ID: quiz.ID, Title: "q2", DefinitionRef: "b"})
	if err != nil || q.Title != "q2" || q.DefinitionRef != "b" || q.LessonID != lesson.ID {
		t.Fatalf("update quiz: %+v (%v)", q, err)
	}

	if err := c.DeleteLesson(ctx, lesson.ID); err != nil {
		t.Fatalf("delete lesson: %v", err)
	}
	if _, err := c.GetResource(ctx, res.ID); err != domain.ErrResourceNotFound {
		t.Fatalf("resource must go with its lesson, got %v", err)
	}
	if _, err := c.GetQuiz(ctx, quiz.ID); err != domain.ErrQuizNotFound {
		t.Fatalf("quiz must go with its lesson, got %v", err)
	}
	if err := c.DeleteLesson(ctx, lesson.ID); err != domain.ErrLessonNotFound {
		t.Fatalf("expected ErrLessonNotFound, got %v", err)
	}
	if err := c.DeleteQuiz(ctx, quiz.ID); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if _, err := c.UpdateLesson(ctx, domain.Lesson{ID: lesson.ID}); err != domain.ErrLessonNotFound {
		t.Fatalf("expected ErrLessonNotFound, got %v", err)
	}

	next, _ := c.CreateLesson(ctx, domain.Lesson{CourseID: course.ID, Title: "next"})
	if next.ID == lesson.ID {
		t.Fatalf("ids must not be reused")
	}
}

func TestProgressStoreKeepsFirstCompletion(t *testing.T) {
	ctx := context.Background()
	s := NewProgressStore()
	first := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	if _, err := s.MarkCompleted(ctx, 1, 10, first); err != nil {
		t.Fatalf("mark: %v", err)
	}
	row, err := s.MarkCompleted(ctx, 1, 10, first.Add(time.Hour))
	if err != nil {
		t.Fatalf("mark again: %v", err)
	}
	if !row.IsCompleted || row.CompletedAt == nil || !row.CompletedAt.Equal(first) {
		t.Fatalf("completion timestamp changed: %+v", row)
	}
}

func TestProgressStoreConcurrentTime(t *testing.T) {
	ctx := context.Background()
	s := NewProgressStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AddTimeSpent(ctx, 1, 10, 3)
		}()
	}
	wg.Wait()

	row, ok, err := s.GetProgress(ctx, 1, 10)
	if err != nil || !ok {
		t.Fatalf("get progress: ok=%v err=%v", ok, err)
	}
	if row.TimeSpent != 150 {
		t.Fatalf("expected 150 seconds, got %d", row.TimeSpent)
	}
	if row.IsCompleted {
		t.Fatalf("time tracking must not complete the resource")
	}
}

func TestAttemptStorePassedQuizzes(t *testing.T) {
	ctx := context.Background()
	s := NewAttemptStore()
	_, _ = s.CreateAttempt(ctx, domain.Attempt{StudentID: 1, QuizID: 5, Score: 20, Passed: false})
	_, _ = s.CreateAttempt(ctx, domain.Attempt{StudentID: 1, QuizID: 5, Score: 80, Passed: true})
	_, _ = s.CreateAttempt(ctx, domain.Attempt{StudentID: 1, QuizID: 6, Score: 10, Passed: false})
	_, _ = s.CreateAttempt(ctx, domain.Attempt{StudentID: 2, QuizID: 6, Score: 90, Passed: true})

	passed, err := s.PassedQuizzes(ctx, 1, []int64{5, 6})
	if err != nil {
		t.Fatalf("passed: %v", err)
	}
	if !passed[5] || passed[6] {
		t.Fatalf("unexpected passed set %v", passed)
	}
	list, _ := s.ListAttempts(ctx, 1, 5)
	if len(list) != 2 {
		t.Fatalf("expected attempt history of 2, got %d", len(list))
	}
}

func TestEnrollmentStoreIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewEnrollmentStore()
	at := time.Now()

	created, err := s.Enroll(ctx, 1, 9, at)
	if err != nil || !created {
		t.Fatalf("first enroll: created=%v err=%v", created, err)
	}
	created, err = s.Enroll(ctx, 1, 9, at)
	if err != nil || created {
		t.Fatalf("second enroll: created=%v err=%v", created, err)
	}
	if s.Count() != 1 {
		t.Fatalf("expected one row, got %d", s.Count())
	}
	counts, _ := s.CountForCourses(ctx, []int64{9, 10})
	if counts[9] != 1 || counts[10] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
