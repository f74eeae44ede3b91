package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) query() []attendance.Attendance {
	atts := make([]attendance.Attendance, 0, len(repo.db.attendance))
	for _, att := range repo.db.attendance {
		atts = append(atts, *att)
	}
	sort.Slice(atts, func(i, j int) bool {
		if atts[i].Date.Equal(atts[j].Date) {
			return atts[i].ID < atts[j].ID
		}
		return atts[i].Date.Before(atts[j].Date)
	})
	return atts
}

func (repo *attendanceRepository) UpsertAttendance(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// one record per (student, course, date); re-marking corrects it
	for _, orig := range repo.db.attendance {
		if orig.StudentID == att.StudentID && orig.CourseID == att.CourseID && orig.Date.Equal(att.Date) {
			orig.Status = att.Status
			orig.MarkedBy = att.MarkedBy
			orig.UpdatedAt = att.UpdatedAt
			return *orig, nil
		}
	}
	att.ID = uuid.New().String()
	repo.db.attendance[att.ID] = &att
	return att, nil
}

func (repo *attendanceRepository) GetAttendanceByID(ctx context.Context, id string) (attendance.Attendance, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if att, ok := repo.db.attendance[id]; ok {
		return *att, nil
	}
	return attendance.Attendance{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) FilterAttendance(ctx context.Context, filter attendance.QueryFilter, orderings ...core.DBOrdering) ([]attendance.Attendance, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	atts := make([]attendance.Attendance, 0)
	if filter.None {
		return atts, nil
	}
	for _, att := range repo.query() {
		if filter.CourseID != "" && att.CourseID != filter.CourseID {
			continue
		}
		if filter.StudentID != "" && att.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && att.Status != filter.Status {
			continue
		}
		if !filter.DateFrom.IsZero() && att.Date.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && att.Date.After(filter.DateTo) {
			continue
		}
		if filter.CourseIDs != nil && !containsID(filter.CourseIDs, att.CourseID) {
			continue
		}
		atts = append(atts, att)
	}
	return atts, nil
}

func (repo *attendanceRepository) DeleteAttendanceByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.attendance, id)
	}
	return nil
}
