package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) query() []assignment.Assignment {
	asgs := make([]assignment.Assignment, 0, len(repo.db.assignments))
	for _, asg := range repo.db.assignments {
		asgs = append(asgs, *asg)
	}
	sort.Slice(asgs, func(i, j int) bool {
		if asgs[i].CreatedAt.Equal(asgs[j].CreatedAt) {
			return asgs[i].ID < asgs[j].ID
		}
		return asgs[i].CreatedAt.Before(asgs[j].CreatedAt)
	})
	return asgs
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	asg.ID = uuid.New().String()
	repo.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if asg, ok := repo.db.assignments[id]; ok {
		return *asg, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) FilterAssignments(ctx context.Context, filter assignment.QueryFilter, orderings ...core.DBOrdering) ([]assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	asgs := make([]assignment.Assignment, 0)
	if filter.None {
		return asgs, nil
	}
	for _, asg := range repo.query() {
		if !searchMatch(filter.Search, asg.Title, asg.Description) {
			continue
		}
		if filter.CourseID != "" && asg.CourseID != filter.CourseID {
			continue
		}
		if filter.TeacherID != "" && asg.TeacherID != filter.TeacherID {
			continue
		}
		if filter.Status != "" && asg.Status != filter.Status {
			continue
		}
		if filter.CourseIDs != nil && !containsID(filter.CourseIDs, asg.CourseID) {
			continue
		}
		asgs = append(asgs, asg)
	}
	return asgs, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	origAsg, ok := repo.db.assignments[asg.ID]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	if asg.Title != "" {
		origAsg.Title = asg.Title
	}
	if asg.Description != "" {
		origAsg.Description = asg.Description
	}
	if !asg.DueDate.IsZero() {
		origAsg.DueDate = asg.DueDate
	}
	if asg.Status != "" {
		origAsg.Status = asg.Status
	}
	if asg.MaxScore > 0 {
		origAsg.MaxScore = asg.MaxScore
	}
	if !asg.UpdatedAt.IsZero() {
		origAsg.UpdatedAt = asg.UpdatedAt
	}
	return *origAsg, nil
}

func (repo *assignmentRepository) DeleteAssignmentsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.assignments, id)
	}
	return nil
}
