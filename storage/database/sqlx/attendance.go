package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
)

const attendanceColumns = `id, student_id, course_id, date, status, marked_by, created_at, updated_at`

var attendanceOrderable = orderableColumns(attendanceColumns)

type attendanceRow struct {
	ID        string      `db:"id"`
	StudentID null.String `db:"student_id"`
	CourseID  null.String `db:"course_id"`
	Date      time.Time   `db:"date"`
	Status    null.String `db:"status"`
	MarkedBy  null.String `db:"marked_by"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

type attendanceRepository struct {
	exec core.DBExecutor
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec core.DBExecutor) *attendanceRepository {
	return &attendanceRepository{exec: exec}
}

func (repo attendanceRepository) row(att attendance.Attendance) attendanceRow {
	return attendanceRow{
		ID:        att.ID,
		StudentID: null.NewString(att.StudentID, att.StudentID != ""),
		CourseID:  null.NewString(att.CourseID, att.CourseID != ""),
		Date:      att.Date.UTC(),
		Status:    null.NewString(string(att.Status), att.Status != ""),
		MarkedBy:  null.NewString(att.MarkedBy, att.MarkedBy != ""),
		CreatedAt: att.CreatedAt.UTC(),
		UpdatedAt: att.UpdatedAt.UTC(),
	}
}

func (repo attendanceRepository) unrow(r attendanceRow) attendance.Attendance {
	return attendance.Attendance{
		ID:        r.ID,
		StudentID: r.StudentID.String,
		CourseID:  r.CourseID.String,
		Date:      r.Date,
		Status:    attendance.Status(r.Status.String),
		MarkedBy:  r.MarkedBy.String,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (repo attendanceRepository) unrowSlice(rows []attendanceRow) []attendance.Attendance {
	atts := make([]attendance.Attendance, 0, len(rows))
	for _, r := range rows {
		atts = append(atts, repo.unrow(r))
	}
	return atts
}

// UpsertAttendance relies on the (student, course, date) unique constraint;
// re-marking the same day overwrites the previous status and marker.
func (repo attendanceRepository) UpsertAttendance(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	if att.ID == "" {
		att.ID = uuid.New().String()
	}
	r := repo.row(att)
	q := `INSERT INTO attendance (` + attendanceColumns + `)
		VALUES (:id, :student_id, :course_id, :date, :status, :marked_by, :created_at, :updated_at)
		ON CONFLICT (student_id, course_id, date)
		DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, r); err != nil {
		return attendance.Attendance{}, errors.Wrap(err, "upserting attendance")
	}

	// re-read to pick up the surviving row on conflict
	var saved attendanceRow
	sel := `SELECT ` + attendanceColumns + ` FROM attendance WHERE student_id = $1 AND course_id = $2 AND date = $3`
	if err := repo.exec.GetContext(ctx, &saved, sel, r.StudentID, r.CourseID, r.Date); err != nil {
		return attendance.Attendance{}, errors.Wrap(err, "getting attendance")
	}
	return repo.unrow(saved), nil
}

func (repo attendanceRepository) GetAttendanceByID(ctx context.Context, id string) (attendance.Attendance, error) {
	var r attendanceRow
	q := `SELECT ` + attendanceColumns + ` FROM attendance WHERE id = $1`
	if err := repo.exec.GetContext(ctx, &r, q, id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Attendance{}, attendance.ErrNotFound
		}
		return attendance.Attendance{}, errors.Wrap(err, "getting attendance")
	}
	return repo.unrow(r), nil
}

func (repo attendanceRepository) FilterAttendance(ctx context.Context, filter attendance.QueryFilter, orderings ...core.DBOrdering) ([]attendance.Attendance, error) {
	var args queryArgs
	var conds []string

	if filter.None {
		conds = append(conds, matchNothing)
	}
	if filter.CourseID != "" {
		conds = append(conds, "course_id = "+args.bind(filter.CourseID))
	}
	if filter.StudentID != "" {
		conds = append(conds, "student_id = "+args.bind(filter.StudentID))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+args.bind(string(filter.Status)))
	}
	if !filter.DateFrom.IsZero() {
		conds = append(conds, "date >= "+args.bind(filter.DateFrom.UTC()))
	}
	if !filter.DateTo.IsZero() {
		conds = append(conds, "date <= "+args.bind(filter.DateTo.UTC()))
	}
	if len(filter.CourseIDs) > 0 {
		conds = append(conds, "course_id = ANY("+args.bind(pq.Array(filter.CourseIDs))+")")
	}

	var rows []attendanceRow
	q := `SELECT ` + attendanceColumns + ` FROM attendance` + whereClause(conds) + orderByClause(orderings, attendanceOrderable, "date, id")
	if err := repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering attendance")
	}
	return repo.unrowSlice(rows), nil
}

func (repo attendanceRepository) DeleteAttendanceByID(ctx context.Context, ids ...string) error {
	if _, err := repo.exec.ExecContext(ctx, `DELETE FROM attendance WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	return nil
}
