package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/mzhou3299/2-web-app-spogs/core"
	"github.com/mzhou3299/2-web-app-spogs/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db.assignment}
}

// owned expects the table lock to be held.
func (repo *assignmentRepository) owned(owner, id string) (*assignment.Assignment, bool) {
	a, ok := repo.db.table[id]
	if !ok || a.OwnerID != owner {
		return nil, false
	}
	return a, true
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = nextID(&repo.db.pkCount)
	a.EstimatedMinutes = copyInt(a.EstimatedMinutes)
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) GetAssignment(_ context.Context, owner, id string) (assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	a, ok := repo.owned(owner, id)
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return clone(a), nil
}

func (repo *assignmentRepository) UpdateAssignment(
	_ context.Context, owner, id string, ua assignment.UpdateAssignment, updatedAt time.Time,
) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a, ok := repo.owned(owner, id)
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	ua.Apply(a, updatedAt)
	return clone(a), nil
}

func (repo *assignmentRepository) ToggleAssignmentCompleted(
	_ context.Context, owner, id string, updatedAt time.Time,
) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a, ok := repo.owned(owner, id)
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	a.Completed = !a.Completed
	a.UpdatedAt = updatedAt
	return clone(a), nil
}

func (repo *assignmentRepository) DeleteAssignment(_ context.Context, owner, id string) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.owned(owner, id); !ok {
		return false, nil
	}
	delete(repo.db.table, id)
	return true, nil
}

func (repo *assignmentRepository) QueryAssignments(
	_ context.Context, owner string, filter assignment.QueryFilter, ordering []core.DBOrdering, limit int,
) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	items := make([]assignment.Assignment, 0)
	for _, a := range repo.db.table {
		if a.OwnerID == owner && filter.Matches(*a) {
			items = append(items, clone(a))
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j], ordering) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// less compares a and b field by field; ids break ties so results are deterministic.
func less(a, b assignment.Assignment, ordering []core.DBOrdering) bool {
	for _, o := range ordering {
		c := compare(a, b, o.Field)
		if c == 0 {
			continue
		}
		if o.Ascending {
			return c < 0
		}
		return c > 0
	}
	return a.ID < b.ID
}

func compare(a, b assignment.Assignment, field string) int {
	cmpTime := func(x, y time.Time) int {
		switch {
		case x.Before(y):
			return -1
		case x.After(y):
			return 1
		}
		return 0
	}
	cmpString := func(x, y string) int {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}

	switch field {
	case "due_date":
		return cmpTime(a.DueDate, b.DueDate)
	case "created_at":
		return cmpTime(a.CreatedAt, b.CreatedAt)
	case "updated_at":
		return cmpTime(a.UpdatedAt, b.UpdatedAt)
	case "title":
		return cmpString(a.Title, b.Title)
	case "course":
		return cmpString(a.Course, b.Course)
	case "priority":
		return a.Priority - b.Priority
	}
	return 0
}

func clone(a *assignment.Assignment) assignment.Assignment {
	c := *a
	c.EstimatedMinutes = copyInt(a.EstimatedMinutes)
	return c
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
