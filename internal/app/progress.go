package app

import (
	"math"

	"mini-lms/internal/domain"
)

// ProgressFacts is the raw completion state of one student, fetched once per computation.
type ProgressFacts struct {
	Resources     map[int64]domain.ResourceProgress
	PassedQuizzes map[int64]bool
}

// ResourceCompleted is false when no progress row exists.
func (f ProgressFacts) ResourceCompleted(resourceID int64) bool {
	p, ok := f.Resources[resourceID]
	return ok && p.IsCompleted
}

// QuizPassed reports whether any passed attempt exists.
func (f ProgressFacts) QuizPassed(quizID int64) bool {
	return f.PassedQuizzes[quizID]
}

// LessonTally counts the lesson's resources and quizzes, and how many are complete.
func LessonTally(lesson domain.Lesson, facts ProgressFacts) domain.UnitTally {
	t := domain.UnitTally{Total: len(lesson.Resources) + len(lesson.Quizzes)}
	for _, r := range lesson.Resources {
		if facts.ResourceCompleted(r.ID) {
			t.Completed++
		}
	}
	for _, q := range lesson.Quizzes {
		if facts.QuizPassed(q.ID) {
			t.Completed++
		}
	}
	return t
}

// LessonResourcesCompleted ignores quizzes.
func LessonResourcesCompleted(lesson domain.Lesson, facts ProgressFacts) bool {
	for _, r := range lesson.Resources {
		if !facts.ResourceCompleted(r.ID) {
			return false
		}
	}
	return true
}

// LessonCompleted holds when every resource is completed and every quiz has a passed attempt.
func LessonCompleted(lesson domain.Lesson, facts ProgressFacts) bool {
	if !LessonResourcesCompleted(lesson, facts) {
		return false
	}
	for _, q := range lesson.Quizzes {
		if !facts.QuizPassed(q.ID) {
			return false
		}
	}
	return true
}

// CourseCompleted is the conjunction over all lessons. A course without lessons is complete.
func CourseCompleted(course domain.Course, facts ProgressFacts) bool {
	for _, l := range course.Lessons {
		if !LessonCompleted(l, facts) {
			return false
		}
	}
	return true
}

// CourseTally sums the per-lesson tallies.
func CourseTally(course domain.Course, facts ProgressFacts) domain.UnitTally {
	var t domain.UnitTally
	for _, l := range course.Lessons {
		t = t.Add(LessonTally(l, facts))
	}
	return t
}

// Percentage returns completed/total*100 rounded to 2 decimals, or 0 when there are no units.
func Percentage(t domain.UnitTally) float64 {
	if t.Total == 0 {
		return 0.0
	}
	return round2(float64(t.Completed) / float64(t.Total) * 100)
}

// TotalTimeSpent sums time over every resource of the course; missing rows count as zero.
func TotalTimeSpent(course domain.Course, facts ProgressFacts) int {
	total := 0
	for _, l := range course.Lessons {
		for _, r := range l.Resources {
			total += facts.Resources[r.ID].TimeSpent
		}
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func courseUnitIDs(lessons []domain.Lesson) (resourceIDs, quizIDs []int64) {
	for _, l := range lessons {
		for _, r := range l.Resources {
			resourceIDs = append(resourceIDs, r.ID)
		}
		for _, q := range l.Quizzes {
			quizIDs = append(quizIDs, q.ID)
		}
	}
	return resourceIDs, quizIDs
}
