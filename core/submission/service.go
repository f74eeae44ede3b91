package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
)

var (
	// errors
	ErrNotFound      = errors.New("submission not found")
	ErrNotOpen       = errors.New("assignment is not open for submissions")
	ErrAlreadyGraded = errors.New("submission has already been graded")
	ErrNotSubmitted  = errors.New("submission has not been handed in yet")
)

type (
	Repository interface {
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		// GetSubmission returns the single submission for (assignment, student), if any.
		GetSubmission(ctx context.Context, assignmentID, studentID string) (Submission, error)
		// FilterSubmissions applies AND operation on available QueryFilter fields.
		FilterSubmissions(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Submission, error)
		// UpdateSubmission only saves set fields of sub (besides UpdatedAt).
		UpdateSubmission(ctx context.Context, sub Submission) (Submission, error)
		DeleteSubmissionsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo    Repository
		asgRepo assignment.Repository
	}
)

func NewService(repo Repository, asgRepo assignment.Repository) *Service {
	return &Service{repo: repo, asgRepo: asgRepo}
}

// Submit hands in (or drafts) a student's work for an assignment.
// At most one submission exists per (assignment, student): resubmitting
// replaces the previous content (latest wins) until the work is graded.
func (svc *Service) Submit(ctx context.Context, studentID string, ns NewSubmission) (Submission, error) {
	asg, err := svc.asgRepo.GetAssignmentByID(ctx, ns.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if !asg.IsPublished() {
		return Submission{}, core.NewValidationError(ErrNotOpen)
	}

	status := StatusSubmitted
	if ns.Draft {
		status = StatusPending
	}
	now := time.Now().UTC()

	sub, err := svc.repo.GetSubmission(ctx, ns.AssignmentID, studentID)
	if err != nil {
		if err != ErrNotFound {
			return Submission{}, err
		}
		sub = Submission{
			AssignmentID: ns.AssignmentID,
			StudentID:    studentID,
			Content:      ns.Content,
			FileURL:      ns.FileURL,
			Status:       status,
			SubmittedAt:  now,
			UpdatedAt:    now,
		}
		return svc.repo.CreateSubmission(ctx, sub)
	}

	if sub.IsGraded() {
		return Submission{}, core.NewValidationError(ErrAlreadyGraded)
	}
	return svc.repo.UpdateSubmission(ctx, Submission{
		ID:          sub.ID,
		Content:     ns.Content,
		FileURL:     ns.FileURL,
		Status:      status,
		SubmittedAt: now,
		UpdatedAt:   now,
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmissionByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, orderings ...core.DBOrdering) ([]Submission, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	return svc.repo.FilterSubmissions(ctx, *filter, orderings...)
}

// Grade records a grading decision on a handed-in submission and freezes it.
func (svc *Service) Grade(ctx context.Context, graderID, id string, gs GradeSubmission) (Submission, error) {
	if gs.Score == nil {
		err := errors.New("score is required")
		return Submission{}, core.NewValidationError(err, core.FieldError{Field: "score", Error: err.Error()})
	}

	sub, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	switch sub.Status {
	case StatusPending:
		return Submission{}, core.NewValidationError(ErrNotSubmitted)
	case StatusGraded:
		return Submission{}, core.NewValidationError(ErrAlreadyGraded)
	}

	asg, err := svc.asgRepo.GetAssignmentByID(ctx, sub.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if score := *gs.Score; score < 0 || score > asg.MaxScore {
		err := fmt.Errorf("score must be between 0 and %d", asg.MaxScore)
		return Submission{}, core.NewValidationError(err, core.FieldError{Field: "score", Error: err.Error()})
	}

	now := time.Now().UTC()
	return svc.repo.UpdateSubmission(ctx, Submission{
		ID:        sub.ID,
		Status:    StatusGraded,
		Score:     gs.Score,
		Feedback:  gs.Feedback,
		GradedBy:  graderID,
		GradedAt:  now,
		UpdatedAt: now,
	})
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSubmissionsByID(ctx, ids...)
}
