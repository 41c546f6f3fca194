package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"mini-lms/internal/domain"
)

// DefinitionStore keeps raw definition documents in a map (useful for tests/demos).
type DefinitionStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewDefinitionStore(docs map[string][]byte) *DefinitionStore {
	s := &DefinitionStore{docs: make(map[string][]byte, len(docs))}
	for ref, data := range docs {
		s.docs[ref] = data
	}
	return s
}

func (s *DefinitionStore) Load(_ context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[ref]
	if !ok {
		return nil, domain.ErrDefinitionNotFound
	}
	return data, nil
}

func (s *DefinitionStore) Store(_ context.Context, data []byte) (string, error) {
	ref := "quiz_" + uuid.NewString()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.mu.Lock()
	s.docs[ref] = buf
	s.mu.Unlock()
	return ref, nil
}
