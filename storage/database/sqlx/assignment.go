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
	"github.com/trezcool/shule/core/assignment"
)

const assignmentColumns = `id, title, description, course_id, teacher_id, due_date, max_score, status, created_at, updated_at`

var assignmentOrderable = orderableColumns(assignmentColumns)

type assignmentRow struct {
	ID          string      `db:"id"`
	Title       null.String `db:"title"`
	Description null.String `db:"description"`
	CourseID    null.String `db:"course_id"`
	TeacherID   null.String `db:"teacher_id"`
	DueDate     null.Time   `db:"due_date"`
	MaxScore    null.Int    `db:"max_score"`
	Status      null.String `db:"status"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

type assignmentRepository struct {
	exec core.DBExecutor
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(exec core.DBExecutor) *assignmentRepository {
	return &assignmentRepository{exec: exec}
}

func (repo assignmentRepository) row(asg assignment.Assignment) assignmentRow {
	return assignmentRow{
		ID:          asg.ID,
		Title:       null.NewString(asg.Title, asg.Title != ""),
		Description: null.NewString(asg.Description, asg.Description != ""),
		CourseID:    null.NewString(asg.CourseID, asg.CourseID != ""),
		TeacherID:   null.NewString(asg.TeacherID, asg.TeacherID != ""),
		DueDate:     null.NewTime(asg.DueDate.UTC(), !asg.DueDate.IsZero()),
		MaxScore:    null.NewInt(asg.MaxScore, asg.MaxScore != 0),
		Status:      null.NewString(string(asg.Status), asg.Status != ""),
		CreatedAt:   asg.CreatedAt.UTC(),
		UpdatedAt:   asg.UpdatedAt.UTC(),
	}
}

func (repo assignmentRepository) unrow(r assignmentRow) assignment.Assignment {
	return assignment.Assignment{
		ID:          r.ID,
		Title:       r.Title.String,
		Description: r.Description.String,
		CourseID:    r.CourseID.String,
		TeacherID:   r.TeacherID.String,
		DueDate:     r.DueDate.Time,
		MaxScore:    r.MaxScore.Int,
		Status:      assignment.Status(r.Status.String),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (repo assignmentRepository) unrowSlice(rows []assignmentRow) []assignment.Assignment {
	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		asgs = append(asgs, repo.unrow(r))
	}
	return asgs
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	asg.ID = uuid.New().String()
	r := repo.row(asg)
	q := `INSERT INTO assignment (` + assignmentColumns + `)
		VALUES (:id, :title, :description, :course_id, :teacher_id, :due_date, :max_score, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, r); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return asg, nil
}

func (repo assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error) {
	var r assignmentRow
	q := `SELECT ` + assignmentColumns + ` FROM assignment WHERE id = $1`
	if err := repo.exec.GetContext(ctx, &r, q, id); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return repo.unrow(r), nil
}

func (repo assignmentRepository) FilterAssignments(ctx context.Context, filter assignment.QueryFilter, orderings ...core.DBOrdering) ([]assignment.Assignment, error) {
	var args queryArgs
	var conds []string

	if filter.None {
		conds = append(conds, matchNothing)
	}
	if filter.Search != "" {
		val := args.bind("%" + filter.Search + "%")
		conds = append(conds, "(title ILIKE "+val+" OR description ILIKE "+val+")")
	}
	if filter.CourseID != "" {
		conds = append(conds, "course_id = "+args.bind(filter.CourseID))
	}
	if filter.TeacherID != "" {
		conds = append(conds, "teacher_id = "+args.bind(filter.TeacherID))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+args.bind(string(filter.Status)))
	}
	if len(filter.CourseIDs) > 0 {
		conds = append(conds, "course_id = ANY("+args.bind(pq.Array(filter.CourseIDs))+")")
	}

	var rows []assignmentRow
	q := `SELECT ` + assignmentColumns + ` FROM assignment` + whereClause(conds) + orderByClause(orderings, assignmentOrderable, "created_at, id")
	if err := repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering assignments")
	}
	return repo.unrowSlice(rows), nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	r := repo.row(asg)

	var args queryArgs
	var sets []string
	set := func(col string, val interface{}) { sets = append(sets, col+" = "+args.bind(val)) }

	if r.Title.Valid {
		set("title", r.Title)
	}
	if r.Description.Valid {
		set("description", r.Description)
	}
	if r.DueDate.Valid {
		set("due_date", r.DueDate)
	}
	if r.MaxScore.Valid {
		set("max_score", r.MaxScore)
	}
	if r.Status.Valid {
		set("status", r.Status)
	}
	set("updated_at", r.UpdatedAt)

	var updated assignmentRow
	q := `UPDATE assignment SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + args.bind(asg.ID) + ` RETURNING ` + assignmentColumns
	if err := repo.exec.GetContext(ctx, &updated, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	return repo.unrow(updated), nil
}

func (repo assignmentRepository) DeleteAssignmentsByID(ctx context.Context, ids ...string) error {
	if _, err := repo.exec.ExecContext(ctx, `DELETE FROM assignment WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting assignments")
	}
	return nil
}
