package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"mini-lms/internal/domain"
)

// DefinitionStore keeps quiz definition documents as JSONB in quiz_definitions.
type DefinitionStore struct {
	pool *pgxpool.Pool
}

func NewDefinitionStore(pool *pgxpool.Pool) *DefinitionStore {
	return &DefinitionStore{pool: pool}
}

func (s *DefinitionStore) Load(ctx context.Context, ref string) ([]byte, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quiz_definitions WHERE ref = $1`, ref).Scan(&raw)
	if err != nil {
		return nil, notFound(err, domain.ErrDefinitionNotFound, "load quiz definition")
	}
	return raw, nil
}

func (s *DefinitionStore) Store(ctx context.Context, data []byte) (string, error) {
	ref := "quiz_" + uuid.NewString()
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO quiz_definitions (ref, data) VALUES ($1, $2::jsonb)`, ref, string(data)); err != nil {
		return "", errors.Wrap(err, "store quiz definition")
	}
	return ref, nil
}
