package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"mini-lms/internal/domain"
)

// ProgressRepository upserts resource_progress rows keyed on (student_id, resource_id).
type ProgressRepository struct {
	pool *pgxpool.Pool
}

func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

const progressColumns = `student_id, resource_id, is_completed, time_spent, completed_at`

func scanProgress(row pgx.Row) (domain.ResourceProgress, error) {
	var p domain.ResourceProgress
	err := row.Scan(&p.StudentID, &p.ResourceID, &p.IsCompleted, &p.TimeSpent, &p.CompletedAt)
	return p, err
}

func (r *ProgressRepository) MarkCompleted(ctx context.Context, studentID, resourceID int64, at time.Time) (domain.ResourceProgress, error) {
	p, err := scanProgress(r.pool.QueryRow(ctx,
		`INSERT INTO resource_progress (student_id, resource_id, is_completed, completed_at)
		 VALUES ($1, $2, TRUE, $3)
		 ON CONFLICT (student_id, resource_id) DO UPDATE
		 SET is_completed = TRUE,
		     completed_at = COALESCE(resource_progress.completed_at, EXCLUDED.completed_at)
		 RETURNING `+progressColumns,
		studentID, resourceID, at))
	if err != nil {
		return domain.ResourceProgress{}, errors.Wrap(err, "upsert completion")
	}
	return p, nil
}

func (r *ProgressRepository) AddTimeSpent(ctx context.Context, studentID, resourceID int64, seconds int) (domain.ResourceProgress, error) {
	p, err := scanProgress(r.pool.QueryRow(ctx,
		`INSERT INTO resource_progress (student_id, resource_id, time_spent)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (student_id, resource_id) DO UPDATE
		 SET time_spent = resource_progress.time_spent + EXCLUDED.time_spent
		 RETURNING `+progressColumns,
		studentID, resourceID, seconds))
	if err != nil {
		return domain.ResourceProgress{}, errors.Wrap(err, "upsert time spent")
	}
	return p, nil
}

func (r *ProgressRepository) GetProgress(ctx context.Context, studentID, resourceID int64) (domain.ResourceProgress, bool, error) {
	p, err := scanProgress(r.pool.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM resource_progress WHERE student_id = $1 AND resource_id = $2`,
		studentID, resourceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ResourceProgress{}, false, nil
	}
	if err != nil {
		return domain.ResourceProgress{}, false, errors.Wrap(err, "select progress")
	}
	return p, true, nil
}

func (r *ProgressRepository) ProgressForResources(ctx context.Context, studentID int64, resourceIDs []int64) (map[int64]domain.ResourceProgress, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+progressColumns+` FROM resource_progress WHERE student_id = $1 AND resource_id = ANY($2)`,
		studentID, resourceIDs)
	if err != nil {
		return nil, errors.Wrap(err, "select progress rows")
	}
	defer rows.Close()

	out := make(map[int64]domain.ResourceProgress, len(resourceIDs))
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan progress")
		}
		out[p.ResourceID] = p
	}
	return out, errors.Wrap(rows.Err(), "iterate progress")
}
