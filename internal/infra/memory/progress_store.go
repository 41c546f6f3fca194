package memory

import (
	"context"
	"sync"
	"time"

	"mini-lms/internal/domain"
)

type progressKey struct {
	student  int64
	resource int64
}

// ProgressStore holds one row per (student, resource); writes are upserts under a single lock.
type ProgressStore struct {
	mu   sync.RWMutex
	rows map[progressKey]domain.ResourceProgress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{rows: make(map[progressKey]domain.ResourceProgress)}
}

func (s *ProgressStore) MarkCompleted(_ context.Context, studentID, resourceID int64, at time.Time) (domain.ResourceProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := progressKey{studentID, resourceID}
	row := s.row(key)
	if !row.IsCompleted || row.CompletedAt == nil {
		ts := at
		row.IsCompleted = true
		row.CompletedAt = &ts
	}
	s.rows[key] = row
	return copyProgress(row), nil
}

func (s *ProgressStore) AddTimeSpent(_ context.Context, studentID, resourceID int64, seconds int) (domain.ResourceProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := progressKey{studentID, resourceID}
	row := s.row(key)
	row.TimeSpent += seconds
	s.rows[key] = row
	return copyProgress(row), nil
}

func (s *ProgressStore) GetProgress(_ context.Context, studentID, resourceID int64) (domain.ResourceProgress, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[progressKey{studentID, resourceID}]
	return copyProgress(row), ok, nil
}

func (s *ProgressStore) ProgressForResources(_ context.Context, studentID int64, resourceIDs []int64) (map[int64]domain.ResourceProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]domain.ResourceProgress, len(resourceIDs))
	for _, id := range resourceIDs {
		if row, ok := s.rows[progressKey{studentID, id}]; ok {
			out[id] = copyProgress(row)
		}
	}
	return out, nil
}

func (s *ProgressStore) row(key progressKey) domain.ResourceProgress {
	if row, ok := s.rows[key]; ok {
		return row
	}
	return domain.ResourceProgress{StudentID: key.student, ResourceID: key.resource}
}

func copyProgress(p domain.ResourceProgress) domain.ResourceProgress {
	if p.CompletedAt != nil {
		ts := *p.CompletedAt
		p.CompletedAt = &ts
	}
	return p
}

// AttemptStore is an append-only attempt log.
type AttemptStore struct {
	mu       sync.RWMutex
	nextID   int64
	attempts []domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{}
}

func (s *AttemptStore) CreateAttempt(_ context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	attempt.ID = s.nextID
	s.attempts = append(s.attempts, attempt)
	return attempt, nil
}

func (s *AttemptStore) PassedQuizzes(_ context.Context, studentID int64, quizIDs []int64) (map[int64]bool, error) {
	want := make(map[int64]bool, len(quizIDs))
	for _, id := range quizIDs {
		want[id] = true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]bool)
	for _, a := range s.attempts {
		if a.StudentID == studentID && a.Passed && want[a.QuizID] {
			out[a.QuizID] = true
		}
	}
	return out, nil
}

func (s *AttemptStore) ListAttempts(_ context.Context, studentID, quizID int64) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Attempt{}
	for _, a := range s.attempts {
		if a.StudentID == studentID && a.QuizID == quizID {
			out = append(out, a)
		}
	}
	return out, nil
}
