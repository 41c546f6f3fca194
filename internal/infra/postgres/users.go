package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"mini-lms/internal/domain"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, role, specialty, study_year FROM users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.Email, &u.Role, &u.Specialty, &u.StudyYear)
	if err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound, "select user")
	}
	return u, nil
}

// CreateUser inserts an account; registration itself lives outside this service.
func (r *UserRepository) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, role, specialty, study_year) VALUES ($1, $2, $3, $4) RETURNING id`,
		u.Email, u.Role, u.Specialty, u.StudyYear,
	).Scan(&u.ID)
	if err != nil {
		return domain.User{}, errors.Wrap(err, "insert user")
	}
	return u, nil
}
