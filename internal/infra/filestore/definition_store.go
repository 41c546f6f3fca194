// Package filestore keeps quiz definition documents as JSON files under a root directory.
package filestore

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"mini-lms/internal/domain"
)

// DefinitionStore resolves references of the form "quizzes/quiz_<id>.json" relative to root.
type DefinitionStore struct {
	root string
}

func NewDefinitionStore(root string) *DefinitionStore {
	return &DefinitionStore{root: root}
}

func (s *DefinitionStore) Load(_ context.Context, ref string) ([]byte, error) {
	full, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrDefinitionNotFound
		}
		return nil, errors.Wrapf(err, "read definition %s", ref)
	}
	return data, nil
}

// Store writes data under a fresh name and returns its reference.
func (s *DefinitionStore) Store(_ context.Context, data []byte) (string, error) {
	ref := path.Join("quizzes", "quiz_"+uuid.NewString()+".json")
	full := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", errors.Wrap(err, "create definition directory")
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", errors.Wrap(err, "write definition")
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return "", errors.Wrap(err, "publish definition")
	}
	return ref, nil
}

// resolve rejects references that escape the root directory.
func (s *DefinitionStore) resolve(ref string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(ref, `\`, "/"))
	if clean == "/" || strings.Contains(ref, "..") {
		return "", domain.ErrDefinitionNotFound
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
