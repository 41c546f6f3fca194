package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"mini-lms/internal/domain"
)

type enrollmentKey struct {
	student int64
	course  int64
}

// EnrollmentStore keeps the (student, course) relation unique.
type EnrollmentStore struct {
	mu   sync.RWMutex
	rows map[enrollmentKey]domain.Enrollment
}

func NewEnrollmentStore() *EnrollmentStore {
	return &EnrollmentStore{rows: make(map[enrollmentKey]domain.Enrollment)}
}

func (s *EnrollmentStore) Enroll(_ context.Context, studentID, courseID int64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := enrollmentKey{studentID, courseID}
	if _, ok := s.rows[key]; ok {
		return false, nil
	}
	s.rows[key] = domain.Enrollment{StudentID: studentID, CourseID: courseID, EnrolledAt: at}
	return true, nil
}

func (s *EnrollmentStore) IsEnrolled(_ context.Context, studentID, courseID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rows[enrollmentKey{studentID, courseID}]
	return ok, nil
}

func (s *EnrollmentStore) EnrolledCourseIDs(_ context.Context, studentID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := []int64{}
	for k := range s.rows {
		if k.student == studentID {
			ids = append(ids, k.course)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *EnrollmentStore) StudentsForCourse(_ context.Context, courseID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := []int64{}
	for k := range s.rows {
		if k.course == courseID {
			ids = append(ids, k.student)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *EnrollmentStore) CountForCourses(_ context.Context, courseIDs []int64) (map[int64]int, error) {
	want := make(map[int64]bool, len(courseIDs))
	for _, id := range courseIDs {
		want[id] = true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]int, len(courseIDs))
	for k := range s.rows {
		if want[k.course] {
			out[k.course]++
		}
	}
	return out, nil
}

// Count returns the number of enrollment rows.
func (s *EnrollmentStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
