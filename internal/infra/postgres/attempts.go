package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"mini-lms/internal/domain"
)

// AttemptRepository appends graded attempts; rows are never updated.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func (r *AttemptRepository) CreateAttempt(ctx context.Context, a domain.Attempt) (domain.Attempt, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO attempts (student_id, quiz_id, score, passed, attempted_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		a.StudentID, a.QuizID, a.Score, a.Passed, a.AttemptedAt,
	).Scan(&a.ID)
	if err != nil {
		return domain.Attempt{}, errors.Wrap(err, "insert attempt")
	}
	return a, nil
}

func (r *AttemptRepository) PassedQuizzes(ctx context.Context, studentID int64, quizIDs []int64) (map[int64]bool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT quiz_id FROM attempts
		 WHERE student_id = $1 AND passed AND quiz_id = ANY($2)`, studentID, quizIDs)
	if err != nil {
		return nil, errors.Wrap(err, "select passed quizzes")
	}
	defer rows.Close()

	out := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan quiz id")
		}
		out[id] = true
	}
	return out, errors.Wrap(rows.Err(), "iterate passed quizzes")
}

func (r *AttemptRepository) ListAttempts(ctx context.Context, studentID, quizID int64) ([]domain.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, quiz_id, score, passed, attempted_at FROM attempts
		 WHERE student_id = $1 AND quiz_id = $2 ORDER BY attempted_at, id`, studentID, quizID)
	if err != nil {
		return nil, errors.Wrap(err, "select attempts")
	}
	defer rows.Close()

	out := []domain.Attempt{}
	for rows.Next() {
		var a domain.Attempt
		if err := rows.Scan(&a.ID, &a.StudentID, &a.QuizID, &a.Score, &a.Passed, &a.AttemptedAt); err != nil {
			return nil, errors.Wrap(err, "scan attempt")
		}
		out = append(out, a)
	}
	return out, errors.Wrap(rows.Err(), "iterate attempts")
}
