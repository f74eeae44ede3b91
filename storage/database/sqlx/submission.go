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
	"github.com/trezcool/shule/core/submission"
)

const submissionColumns = `id, assignment_id, student_id, content, file_url, status, score, feedback, graded_by, graded_at, submitted_at, updated_at`

var submissionOrderable = orderableColumns(submissionColumns)

type submissionRow struct {
	ID           string      `db:"id"`
	AssignmentID null.String `db:"assignment_id"`
	StudentID    null.String `db:"student_id"`
	Content      null.String `db:"content"`
	FileURL      null.String `db:"file_url"`
	Status       null.String `db:"status"`
	Score        null.Int    `db:"score"`
	Feedback     null.String `db:"feedback"`
	GradedBy     null.String `db:"graded_by"`
	GradedAt     null.Time   `db:"graded_at"`
	SubmittedAt  time.Time   `db:"submitted_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

type submissionRepository struct {
	exec core.DBExecutor
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(exec core.DBExecutor) *submissionRepository {
	return &submissionRepository{exec: exec}
}

func (repo submissionRepository) row(sub submission.Submission) submissionRow {
	return submissionRow{
		ID:           sub.ID,
		AssignmentID: null.NewString(sub.AssignmentID, sub.AssignmentID != ""),
		StudentID:    null.NewString(sub.StudentID, sub.StudentID != ""),
		Content:      null.NewString(sub.Content, sub.Content != ""),
		FileURL:      null.NewString(sub.FileURL, sub.FileURL != ""),
		Status:       null.NewString(string(sub.Status), sub.Status != ""),
		Score:        null.IntFromPtr(sub.Score),
		Feedback:     null.NewString(sub.Feedback, sub.Feedback != ""),
		GradedBy:     null.NewString(sub.GradedBy, sub.GradedBy != ""),
		GradedAt:     null.NewTime(sub.GradedAt.UTC(), !sub.GradedAt.IsZero()),
		SubmittedAt:  sub.SubmittedAt.UTC(),
		UpdatedAt:    sub.UpdatedAt.UTC(),
	}
}

func (repo submissionRepository) unrow(r submissionRow) submission.Submission {
	return submission.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID.String,
		StudentID:    r.StudentID.String,
		Content:      r.Content.String,
		FileURL:      r.FileURL.String,
		Status:       submission.Status(r.Status.String),
		Score:        r.Score.Ptr(),
		Feedback:     r.Feedback.String,
		GradedBy:     r.GradedBy.String,
		GradedAt:     r.GradedAt.Time,
		SubmittedAt:  r.SubmittedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (repo submissionRepository) unrowSlice(rows []submissionRow) []submission.Submission {
	subs := make([]submission.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, repo.unrow(r))
	}
	return subs
}

func (repo submissionRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return submission.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	sub.ID = uuid.New().String()
	r := repo.row(sub)
	q := `INSERT INTO submission (` + submissionColumns + `)
		VALUES (:id, :assignment_id, :student_id, :content, :file_url, :status, :score, :feedback, :graded_by, :graded_at, :submitted_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, r); err != nil {
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo submissionRepository) GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error) {
	var r submissionRow
	q := `SELECT ` + submissionColumns + ` FROM submission WHERE id = $1`
	if err := repo.exec.GetContext(ctx, &r, q, id); err != nil {
		return submission.Submission{}, repo.trapNoRowsErr(err, "getting submission")
	}
	return repo.unrow(r), nil
}

func (repo submissionRepository) GetSubmission(ctx context.Context, assignmentID, studentID string) (submission.Submission, error) {
	var r submissionRow
	q := `SELECT ` + submissionColumns + ` FROM submission WHERE assignment_id = $1 AND student_id = $2`
	if err := repo.exec.GetContext(ctx, &r, q, assignmentID, studentID); err != nil {
		return submission.Submission{}, repo.trapNoRowsErr(err, "getting submission")
	}
	return repo.unrow(r), nil
}

func (repo submissionRepository) FilterSubmissions(ctx context.Context, filter submission.QueryFilter, orderings ...core.DBOrdering) ([]submission.Submission, error) {
	var args queryArgs
	var conds []string

	if filter.None {
		conds = append(conds, matchNothing)
	}
	if filter.AssignmentID != "" {
		conds = append(conds, "assignment_id = "+args.bind(filter.AssignmentID))
	}
	if filter.StudentID != "" {
		conds = append(conds, "student_id = "+args.bind(filter.StudentID))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+args.bind(string(filter.Status)))
	}

	var rows []submissionRow
	q := `SELECT ` + submissionColumns + ` FROM submission` + whereClause(conds) + orderByClause(orderings, submissionOrderable, "submitted_at, id")
	if err := repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering submissions")
	}
	return repo.unrowSlice(rows), nil
}

func (repo submissionRepository) UpdateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	r := repo.row(sub)

	var args queryArgs
	var sets []string
	set := func(col string, val interface{}) { sets = append(sets, col+" = "+args.bind(val)) }

	if r.Content.Valid {
		set("content", r.Content)
	}
	if r.FileURL.Valid {
		set("file_url", r.FileURL)
	}
	if r.Status.Valid {
		set("status", r.Status)
	}
	if r.Score.Valid {
		set("score", r.Score)
	}
	if r.Feedback.Valid {
		set("feedback", r.Feedback)
	}
	if r.GradedBy.Valid {
		set("graded_by", r.GradedBy)
	}
	if r.GradedAt.Valid {
		set("graded_at", r.GradedAt)
	}
	if !sub.SubmittedAt.IsZero() {
		set("submitted_at", r.SubmittedAt)
	}
	set("updated_at", r.UpdatedAt)

	var updated submissionRow
	q := `UPDATE submission SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + args.bind(sub.ID) + ` RETURNING ` + submissionColumns
	if err := repo.exec.GetContext(ctx, &updated, q, args...); err != nil {
		return submission.Submission{}, repo.trapNoRowsErr(err, "updating submission")
	}
	return repo.unrow(updated), nil
}

func (repo submissionRepository) DeleteSubmissionsByID(ctx context.Context, ids ...string) error {
	if _, err := repo.exec.ExecContext(ctx, `DELETE FROM submission WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting submissions")
	}
	return nil
}
