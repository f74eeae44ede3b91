package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/course"
)

var ErrNotFound = errors.New("attendance record not found")

type (
	Repository interface {
		// UpsertAttendance creates the record or, if one already exists for
		// (student, course, date), updates its status and marker.
		UpsertAttendance(ctx context.Context, att Attendance) (Attendance, error)
		GetAttendanceByID(ctx context.Context, id string) (Attendance, error)
		// FilterAttendance applies AND operation on available QueryFilter fields.
		FilterAttendance(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]Attendance, error)
		DeleteAttendanceByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo    Repository
		crsRepo course.Repository
	}
)

func NewService(repo Repository, crsRepo course.Repository) *Service {
	return &Service{repo: repo, crsRepo: crsRepo}
}

// Mark records (or corrects) a student's attendance for a course on a day.
// The student must be enrolled in the course.
func (svc *Service) Mark(ctx context.Context, markedBy string, ma MarkAttendance) (Attendance, error) {
	crs, err := svc.crsRepo.GetCourseByID(ctx, ma.CourseID)
	if err != nil {
		return Attendance{}, err
	}
	if !crs.HasStudent(ma.StudentID) {
		err := course.ErrNotEnrolled
		return Attendance{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
	}

	now := time.Now().UTC()
	return svc.repo.UpsertAttendance(ctx, Attendance{
		StudentID: ma.StudentID,
		CourseID:  ma.CourseID,
		Date:      Day(ma.Date),
		Status:    ma.Status,
		MarkedBy:  markedBy,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Attendance, error) {
	return svc.repo.GetAttendanceByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, orderings ...core.DBOrdering) ([]Attendance, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	return svc.repo.FilterAttendance(ctx, *filter, orderings...)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAttendanceByID(ctx, ids...)
}
