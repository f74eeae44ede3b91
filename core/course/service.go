package course

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound        = errors.New("course not found")
	ErrAlreadyEnrolled = errors.New("student is already enrolled in this course")
	ErrNotEnrolled     = errors.New("student is not enrolled in this course")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		// FilterCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Course.Title or Course.Description.
		FilterCourses(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Course, error)
		// UpdateCourse only saves set fields of crs (besides UpdatedAt).
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...string) error
		AddStudent(ctx context.Context, courseID, studentID string) error
		RemoveStudent(ctx context.Context, courseID, studentID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Title:       nc.Title,
		Description: nc.Description,
		TeacherID:   nc.TeacherID,
		Schedule:    nc.Schedule,
		Status:      nc.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if crs.Status == "" {
		crs.Status = StatusActive
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, orderings ...core.DBOrdering) ([]Course, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	return svc.repo.FilterCourses(ctx, *filter, orderings...)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs := Course{
		ID:          id,
		Title:       uc.Title,
		Description: uc.Description,
		Schedule:    uc.Schedule,
		Status:      uc.Status,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCoursesByID(ctx, ids...)
}

// Enroll adds a student to the course's student set.
// Enrollment is always an explicit operation; creating a course never enrolls anyone.
func (svc *Service) Enroll(ctx context.Context, courseID, studentID string) error {
	if err := svc.repo.AddStudent(ctx, courseID, studentID); err != nil {
		if err == ErrAlreadyEnrolled {
			return core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Withdraw removes a student from the course's student set.
func (svc *Service) Withdraw(ctx context.Context, courseID, studentID string) error {
	if err := svc.repo.RemoveStudent(ctx, courseID, studentID); err != nil {
		if err == ErrNotEnrolled {
			return core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return err
	}
	return nil
}
