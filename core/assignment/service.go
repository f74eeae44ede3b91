package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/shule/core"
)

var ErrNotFound = errors.New("assignment not found")

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		// FilterAssignments applies AND operation on available QueryFilter fields.
		// An empty QueryFilter.CourseIDs slice is ignored; a nil-safe caller must set None instead.
		FilterAssignments(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Assignment, error)
		// UpdateAssignment only saves set fields of asg (besides UpdatedAt).
		UpdateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		DeleteAssignmentsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, teacherID string, na NewAssignment) (Assignment, error) {
	now := time.Now().UTC()
	asg := Assignment{
		Title:       na.Title,
		Description: na.Description,
		CourseID:    na.CourseID,
		TeacherID:   teacherID,
		DueDate:     na.DueDate.UTC(),
		Status:      na.Status,
		MaxScore:    na.MaxScore,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if asg.Status == "" {
		asg.Status = StatusDraft
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, orderings ...core.DBOrdering) ([]Assignment, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	return svc.repo.FilterAssignments(ctx, *filter, orderings...)
}

func (svc *Service) Update(ctx context.Context, id string, ua UpdateAssignment) (Assignment, error) {
	asg := Assignment{
		ID:          id,
		Title:       ua.Title,
		Description: ua.Description,
		DueDate:     ua.DueDate.UTC(),
		Status:      ua.Status,
		MaxScore:    ua.MaxScore,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateAssignment(ctx, asg)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAssignmentsByID(ctx, ids...)
}
