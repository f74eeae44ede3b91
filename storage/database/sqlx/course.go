package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/course"
)

const (
	courseColumns = `id, title, description, teacher_id, schedule, status, created_at, updated_at`

	// selectCourses aggregates enrollments into a student_ids array per course.
	selectCourses = `
		SELECT c.id, c.title, c.description, c.teacher_id, c.schedule, c.status, c.created_at, c.updated_at,
			COALESCE(array_agg(cs.student_id ORDER BY cs.enrolled_at) FILTER (WHERE cs.student_id IS NOT NULL), '{}') AS student_ids
		FROM course c
		LEFT JOIN course_student cs ON cs.course_id = c.id`

	groupCourses = ` GROUP BY c.id`
)

var courseOrderable = orderableColumns(courseColumns)

type courseRow struct {
	ID          string         `db:"id"`
	Title       null.String    `db:"title"`
	Description null.String    `db:"description"`
	TeacherID   null.String    `db:"teacher_id"`
	Schedule    null.String    `db:"schedule"`
	Status      null.String    `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
	StudentIDs  pq.StringArray `db:"student_ids"`
}

type courseRepository struct {
	exec core.DBExecutor
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) *courseRepository {
	return &courseRepository{exec: exec}
}

func (repo courseRepository) row(crs course.Course) courseRow {
	return courseRow{
		ID:          crs.ID,
		Title:       null.NewString(crs.Title, crs.Title != ""),
		Description: null.NewString(crs.Description, crs.Description != ""),
		TeacherID:   null.NewString(crs.TeacherID, crs.TeacherID != ""),
		Schedule:    null.NewString(crs.Schedule, crs.Schedule != ""),
		Status:      null.NewString(string(crs.Status), crs.Status != ""),
		CreatedAt:   crs.CreatedAt.UTC(),
		UpdatedAt:   crs.UpdatedAt.UTC(),
	}
}

func (repo courseRepository) unrow(r courseRow) course.Course {
	return course.Course{
		ID:          r.ID,
		Title:       r.Title.String,
		Description: r.Description.String,
		TeacherID:   r.TeacherID.String,
		StudentIDs:  r.StudentIDs,
		Schedule:    r.Schedule.String,
		Status:      course.Status(r.Status.String),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (repo courseRepository) unrowSlice(rows []courseRow) []course.Course {
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, repo.unrow(r))
	}
	return courses
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	r := repo.row(crs)
	q := `INSERT INTO course (` + courseColumns + `)
		VALUES (:id, :title, :description, :teacher_id, :schedule, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, r); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var r courseRow
	q := selectCourses + ` WHERE c.id = $1` + groupCourses
	if err := repo.exec.GetContext(ctx, &r, q, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return repo.unrow(r), nil
}

func (repo courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter, orderings ...core.DBOrdering) ([]course.Course, error) {
	var args queryArgs
	var conds []string

	if filter.None {
		conds = append(conds, matchNothing)
	}
	if filter.Search != "" {
		val := args.bind("%" + filter.Search + "%")
		conds = append(conds, "(c.title ILIKE "+val+" OR c.description ILIKE "+val+")")
	}
	if filter.TeacherID != "" {
		conds = append(conds, "c.teacher_id = "+args.bind(filter.TeacherID))
	}
	if filter.StudentID != "" {
		conds = append(conds, "c.id IN (SELECT course_id FROM course_student WHERE student_id = "+args.bind(filter.StudentID)+")")
	}
	if filter.Status != "" {
		conds = append(conds, "c.status = "+args.bind(string(filter.Status)))
	}

	var rows []courseRow
	q := selectCourses + whereClause(conds) + groupCourses + orderByClause(orderings, courseOrderable, "created_at, id")
	if err := repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering courses")
	}
	return repo.unrowSlice(rows), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	r := repo.row(crs)

	var args queryArgs
	var sets []string
	set := func(col string, val interface{}) { sets = append(sets, col+" = "+args.bind(val)) }

	if r.Title.Valid {
		set("title", r.Title)
	}
	if r.Description.Valid {
		set("description", r.Description)
	}
	if r.Schedule.Valid {
		set("schedule", r.Schedule)
	}
	if r.Status.Valid {
		set("status", r.Status)
	}
	set("updated_at", r.UpdatedAt)

	var id string
	q := `UPDATE course SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + args.bind(crs.ID) + ` RETURNING id`
	if err := repo.exec.GetContext(ctx, &id, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	return repo.GetCourseByID(ctx, id)
}

func (repo courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	if _, err := repo.exec.ExecContext(ctx, `DELETE FROM course WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting courses")
	}
	return nil
}

func (repo courseRepository) AddStudent(ctx context.Context, courseID, studentID string) error {
	q := `INSERT INTO course_student (course_id, student_id, enrolled_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`
	res, err := repo.exec.ExecContext(ctx, q, courseID, studentID, time.Now().UTC())
	if err != nil {
		if isFKViolation(err, "course_student_course_id_fkey") {
			return course.ErrNotFound
		}
		return errors.Wrap(err, "enrolling student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrAlreadyEnrolled
	}
	return nil
}

func (repo courseRepository) RemoveStudent(ctx context.Context, courseID, studentID string) error {
	q := `DELETE FROM course_student WHERE course_id = $1 AND student_id = $2`
	res, err := repo.exec.ExecContext(ctx, q, courseID, studentID)
	if err != nil {
		return errors.Wrap(err, "withdrawing student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrNotEnrolled
	}
	return nil
}
