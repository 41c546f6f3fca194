package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"mini-lms/internal/domain"
)

// CatalogRepository reads and writes courses, lessons, resources and quizzes.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) CreateCourse(ctx context.Context, c domain.Course) (domain.Course, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO courses (teacher_id, title, description, specialty, target_year, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		c.TeacherID, c.Title, c.Description, c.Specialty, c.TargetYear, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return domain.Course{}, errors.Wrap(err, "insert course")
	}
	return c, nil
}

func (r *CatalogRepository) CreateLesson(ctx context.Context, l domain.Lesson) (domain.Lesson, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO lessons (course_id, title, description, sort_order)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		l.CourseID, l.Title, l.Description, l.SortOrder,
	).Scan(&l.ID)
	if err != nil {
		return domain.Lesson{}, errors.Wrap(err, "insert lesson")
	}
	return l, nil
}

func (r *CatalogRepository) CreateResource(ctx context.Context, res domain.Resource) (domain.Resource, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO resources (lesson_id, title, file_path, file_type, sort_order)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		res.LessonID, res.Title, res.FilePath, res.FileType, res.SortOrder,
	).Scan(&res.ID)
	if err != nil {
		return domain.Resource{}, errors.Wrap(err, "insert resource")
	}
	return res, nil
}

func (r *CatalogRepository) CreateQuiz(ctx context.Context, q domain.Quiz) (domain.Quiz, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (lesson_id, title, description, definition_ref)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		q.LessonID, q.Title, q.Description, q.DefinitionRef,
	).Scan(&q.ID)
	if err != nil {
		return domain.Quiz{}, errors.Wrap(err, "insert quiz")
	}
	return q, nil
}

const courseColumns = `id, teacher_id, title, description, specialty, target_year, created_at`

func scanCourse(row pgx.Row) (domain.Course, error) {
	var c domain.Course
	err := row.Scan(&c.ID, &c.TeacherID, &c.Title, &c.Description, &c.Specialty, &c.TargetYear, &c.CreatedAt)
	return c, err
}

func (r *CatalogRepository) GetCourse(ctx context.Context, courseID int64) (domain.Course, error) {
	c, err := scanCourse(r.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, courseID))
	if err != nil {
		return domain.Course{}, notFound(err, domain.ErrCourseNotFound, "select course")
	}
	return c, nil
}

func (r *CatalogRepository) GetCourseOutline(ctx context.Context, courseID int64) (domain.Course, error) {
	course, err := r.GetCourse(ctx, courseID)
	if err != nil {
		return domain.Course{}, err
	}
	courses := []domain.Course{course}
	if err := r.attachLessons(ctx, courses); err != nil {
		return domain.Course{}, err
	}
	return courses[0], nil
}

func (r *CatalogRepository) GetLesson(ctx context.Context, lessonID int64) (domain.Lesson, error) {
	var l domain.Lesson
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, title, description, sort_order FROM lessons WHERE id = $1`, lessonID,
	).Scan(&l.ID, &l.CourseID, &l.Title, &l.Description, &l.SortOrder)
	if err != nil {
		return domain.Lesson{}, notFound(err, domain.ErrLessonNotFound, "select lesson")
	}
	lessons := []domain.Lesson{l}
	if err := r.populate(ctx, lessons); err != nil {
		return domain.Lesson{}, err
	}
	return lessons[0], nil
}

func (r *CatalogRepository) GetResource(ctx context.Context, resourceID int64) (domain.Resource, error) {
	var res domain.Resource
	err := r.pool.QueryRow(ctx,
		`SELECT id, lesson_id, title, file_path, file_type, sort_order FROM resources WHERE id = $1`, resourceID,
	).Scan(&res.ID, &res.LessonID, &res.Title, &res.FilePath, &res.FileType, &res.SortOrder)
	if err != nil {
		return domain.Resource{}, notFound(err, domain.ErrResourceNotFound, "select resource")
	}
	return res, nil
}

func (r *CatalogRepository) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var q domain.Quiz
	err := r.pool.QueryRow(ctx,
		`SELECT id, lesson_id, title, description, definition_ref FROM quizzes WHERE id = $1`, quizID,
	).Scan(&q.ID, &q.LessonID, &q.Title, &q.Description, &q.DefinitionRef)
	if err != nil {
		return domain.Quiz{}, notFound(err, domain.ErrQuizNotFound, "select quiz")
	}
	return q, nil
}

func (r *CatalogRepository) CoursesForStudent(ctx context.Context, specialty string, year int) ([]domain.Course, error) {
	return r.queryCourses(ctx, "select courses for student",
		`SELECT `+courseColumns+` FROM courses
		 WHERE lower(trim(specialty)) = lower(trim($1)) AND target_year = $2
		 ORDER BY id`, specialty, year)
}

func (r *CatalogRepository) CoursesForTeacher(ctx context.Context, teacherID int64) ([]domain.Course, error) {
	courses, err := r.queryCourses(ctx, "select courses for teacher",
		`SELECT `+courseColumns+` FROM courses WHERE teacher_id = $1
		 ORDER BY created_at DESC, id DESC`, teacherID)
	if err != nil {
		return nil, err
	}
	if err := r.attachLessons(ctx, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *CatalogRepository) UpdateLesson(ctx context.Context, l domain.Lesson) (domain.Lesson, error) {
	err := r.pool.QueryRow(ctx,
		`UPDATE lessons SET title = $2, description = $3, sort_order = $4
		 WHERE id = $1 RETURNING course_id`,
		l.ID, l.Title, l.Description, l.SortOrder,
	).Scan(&l.CourseID)
	if err != nil {
		return domain.Lesson{}, notFound(err, domain.ErrLessonNotFound, "update lesson")
	}
	l.Resources, l.Quizzes = nil, nil
	return l, nil
}

// DeleteLesson relies on ON DELETE CASCADE for resources, quizzes, progress rows and attempts.
func (r *CatalogRepository) DeleteLesson(ctx context.Context, lessonID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, lessonID)
	if err != nil {
		return errors.Wrap(err, "delete lesson")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLessonNotFound
	}
	return nil
}

func (r *CatalogRepository) UpdateQuiz(ctx context.Context, q domain.Quiz) (domain.Quiz, error) {
	err := r.pool.QueryRow(ctx,
		`UPDATE quizzes SET title = $2, description = $3, definition_ref = $4
		 WHERE id = $1 RETURNING lesson_id`,
		q.ID, q.Title, q.Description, q.DefinitionRef,
	).Scan(&q.LessonID)
	if err != nil {
		return domain.Quiz{}, notFound(err, domain.ErrQuizNotFound, "update quiz")
	}
	return q, nil
}

func (r *CatalogRepository) DeleteQuiz(ctx context.Context, quizID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, quizID)
	if err != nil {
		return errors.Wrap(err, "delete quiz")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (r *CatalogRepository) queryCourses(ctx context.Context, msg, query string, args ...any) ([]domain.Course, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, msg)
	}
	defer rows.Close()

	courses := []domain.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan course")
		}
		courses = append(courses, c)
	}
	return courses, errors.Wrap(rows.Err(), "iterate courses")
}

// attachLessons loads the lessons of all courses in one query, then their resources and quizzes.
func (r *CatalogRepository) attachLessons(ctx context.Context, courses []domain.Course) error {
	if len(courses) == 0 {
		return nil
	}
	ids := make([]int64, len(courses))
	index := make(map[int64]int, len(courses))
	for i := range courses {
		ids[i] = courses[i].ID
		index[courses[i].ID] = i
		courses[i].Lessons = []domain.Lesson{}
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, title, description, sort_order FROM lessons
		 WHERE course_id = ANY($1) ORDER BY sort_order, id`, ids)
	if err != nil {
		return errors.Wrap(err, "select lessons")
	}
	var lessons []domain.Lesson
	for rows.Next() {
		var l domain.Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Description, &l.SortOrder); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan lesson")
		}
		lessons = append(lessons, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterate lessons")
	}

	if err := r.populate(ctx, lessons); err != nil {
		return err
	}
	for _, l := range lessons {
		i := index[l.CourseID]
		courses[i].Lessons = append(courses[i].Lessons, l)
	}
	return nil
}

// populate loads resources and quizzes for the given lessons in two queries.
func (r *CatalogRepository) populate(ctx context.Context, lessons []domain.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}
	ids := make([]int64, len(lessons))
	index := make(map[int64]int, len(lessons))
	for i := range lessons {
		ids[i] = lessons[i].ID
		index[lessons[i].ID] = i
		lessons[i].Resources = []domain.Resource{}
		lessons[i].Quizzes = []domain.Quiz{}
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, lesson_id, title, file_path, file_type, sort_order FROM resources
		 WHERE lesson_id = ANY($1) ORDER BY sort_order, id`, ids)
	if err != nil {
		return errors.Wrap(err, "select resources")
	}
	for rows.Next() {
		var res domain.Resource
		if err := rows.Scan(&res.ID, &res.LessonID, &res.Title, &res.FilePath, &res.FileType, &res.SortOrder); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan resource")
		}
		i := index[res.LessonID]
		lessons[i].Resources = append(lessons[i].Resources, res)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "iterate resources")
	}

	rows, err = r.pool.Query(ctx,
		`SELECT id, lesson_id, title, description, definition_ref FROM quizzes
		 WHERE lesson_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return errors.Wrap(err, "select quizzes")
	}
	defer rows.Close()
	for rows.Next() {
		var q domain.Quiz
		if err := rows.Scan(&q.ID, &q.LessonID, &q.Title, &q.Description, &q.DefinitionRef); err != nil {
			return errors.Wrap(err, "scan quiz")
		}
		i := index[q.LessonID]
		lessons[i].Quizzes = append(lessons[i].Quizzes, q)
	}
	return errors.Wrap(rows.Err(), "iterate quizzes")
}

// notFound maps pgx.ErrNoRows to the domain sentinel and wraps everything else.
func notFound(err, sentinel error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return errors.Wrap(err, msg)
}
