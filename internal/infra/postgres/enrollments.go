package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
)

type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// Enroll relies on the (student_id, course_id) primary key; a duplicate is a no-op.
func (r *EnrollmentRepository) Enroll(ctx context.Context, studentID, courseID int64, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO enrollments (student_id, course_id, enrolled_at) VALUES ($1, $2, $3)
		 ON CONFLICT (student_id, course_id) DO NOTHING`, studentID, courseID, at)
	if err != nil {
		return false, errors.Wrap(err, "insert enrollment")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2)`,
		studentID, courseID).Scan(&ok)
	return ok, errors.Wrap(err, "select enrollment")
}

func (r *EnrollmentRepository) EnrolledCourseIDs(ctx context.Context, studentID int64) ([]int64, error) {
	return r.ids(ctx, `SELECT course_id FROM enrollments WHERE student_id = $1 ORDER BY course_id`, studentID)
}

func (r *EnrollmentRepository) StudentsForCourse(ctx context.Context, courseID int64) ([]int64, error) {
	return r.ids(ctx, `SELECT student_id FROM enrollments WHERE course_id = $1 ORDER BY student_id`, courseID)
}

func (r *EnrollmentRepository) CountForCourses(ctx context.Context, courseIDs []int64) (map[int64]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT course_id, count(*) FROM enrollments WHERE course_id = ANY($1) GROUP BY course_id`, courseIDs)
	if err != nil {
		return nil, errors.Wrap(err, "count enrollments")
	}
	defer rows.Close()

	out := make(map[int64]int, len(courseIDs))
	for rows.Next() {
		var (
			id    int64
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, errors.Wrap(err, "scan enrollment count")
		}
		out[id] = count
	}
	return out, errors.Wrap(rows.Err(), "iterate enrollment counts")
}

func (r *EnrollmentRepository) ids(ctx context.Context, query string, arg int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, errors.Wrap(err, "select enrollment ids")
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan id")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "iterate ids")
}
