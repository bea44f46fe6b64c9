package assignment

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/mzhou3299/2-web-app-spogs/core"
)

const (
	// ListLimit caps interactive listings; exports are uncapped.
	ListLimit = 100
	// RecentlyCompletedWindow is how long a completed assignment stays on the landing page.
	RecentlyCompletedWindow = 24 * time.Hour
)

var (
	NowFunc = time.Now // mockable

	// DefaultOrdering surfaces the soonest due first, newest first on the same day.
	DefaultOrdering = []core.DBOrdering{
		{Field: "due_date", Ascending: true},
		{Field: "created_at"},
	}

	// errors
	ErrNotFound = errors.New("assignment not found")
)

type (
	// Repository persists assignments. Every operation is scoped to an owner;
	// an id owned by someone else is reported as ErrNotFound.
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, owner, id string) (Assignment, error)
		UpdateAssignment(ctx context.Context, owner, id string, ua UpdateAssignment, updatedAt time.Time) (Assignment, error)
		ToggleAssignmentCompleted(ctx context.Context, owner, id string, updatedAt time.Time) (Assignment, error)
		// DeleteAssignment reports whether an assignment was removed.
		DeleteAssignment(ctx context.Context, owner, id string) (bool, error)
		// QueryAssignments returns at most limit matching assignments; limit <= 0 means no limit.
		QueryAssignments(ctx context.Context, owner string, filter QueryFilter, ordering []core.DBOrdering, limit int) ([]Assignment, error)
	}

	Service interface {
		Create(ctx context.Context, owner string, na NewAssignment) (View, error)
		Get(ctx context.Context, owner, id string) (View, error)
		Update(ctx context.Context, owner, id string, ua UpdateAssignment) (View, error)
		ToggleCompleted(ctx context.Context, owner, id string) (View, error)
		Delete(ctx context.Context, owner, id string) error
		Search(ctx context.Context, owner string, filter QueryFilter) ([]View, error)
		Landing(ctx context.Context, owner string) ([]View, error)
		Export(ctx context.Context, owner string, filter QueryFilter) ([]View, error)
	}

	service struct {
		repo Repository
		loc  *time.Location
	}
)

var _ Service = (*service)(nil)

// NewService returns a Service evaluating calendar days in loc (UTC if nil).
func NewService(repo Repository, loc *time.Location) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &service{repo: repo, loc: loc}
}

func (svc *service) now() time.Time {
	return NowFunc().In(svc.loc)
}

func (svc *service) view(a Assignment) View {
	return View{Assignment: a, Status: DeriveStatus(a.DueDate, a.Completed, svc.now())}
}

// Create stores a validated NewAssignment for owner.
func (svc *service) Create(ctx context.Context, owner string, na NewAssignment) (View, error) {
	due, err := core.ParseDate(na.DueDate)
	if err != nil {
		return View{}, core.NewValidationError(err, core.FieldError{Field: "due_date", Error: isoDateText})
	}
	if na.Priority == 0 {
		na.Priority = DefaultPriority
	}
	now := svc.now().UTC()
	a := Assignment{
		OwnerID:          owner,
		Title:            na.Title,
		Course:           na.Course,
		Notes:            na.Notes,
		DueDate:          due,
		Priority:         na.Priority,
		EstimatedMinutes: na.EstimatedMinutes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	a, err = svc.repo.CreateAssignment(ctx, a)
	if err != nil {
		return View{}, pkgerrors.Wrap(err, "creating assignment")
	}
	return svc.view(a), nil
}

func (svc *service) Get(ctx context.Context, owner, id string) (View, error) {
	a, err := svc.repo.GetAssignment(ctx, owner, id)
	if err != nil {
		return View{}, err
	}
	return svc.view(a), nil
}

// Update applies the supplied fields of a validated UpdateAssignment.
func (svc *service) Update(ctx context.Context, owner, id string, ua UpdateAssignment) (View, error) {
	a, err := svc.repo.UpdateAssignment(ctx, owner, id, ua, svc.now().UTC())
	if err != nil {
		return View{}, err
	}
	return svc.view(a), nil
}

func (svc *service) ToggleCompleted(ctx context.Context, owner, id string) (View, error) {
	a, err := svc.repo.ToggleAssignmentCompleted(ctx, owner, id, svc.now().UTC())
	if err != nil {
		return View{}, err
	}
	return svc.view(a), nil
}

// Delete fails with ErrNotFound when nothing was removed.
func (svc *service) Delete(ctx context.Context, owner, id string) error {
	deleted, err := svc.repo.DeleteAssignment(ctx, owner, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func (svc *service) Search(ctx context.Context, owner string, filter QueryFilter) ([]View, error) {
	return svc.query(ctx, owner, filter, ListLimit)
}

// Landing lists active work plus what was completed within RecentlyCompletedWindow.
func (svc *service) Landing(ctx context.Context, owner string) ([]View, error) {
	filter := QueryFilter{CompletedSince: svc.now().Add(-RecentlyCompletedWindow).UTC()}
	return svc.query(ctx, owner, filter, ListLimit)
}

func (svc *service) Export(ctx context.Context, owner string, filter QueryFilter) ([]View, error) {
	return svc.query(ctx, owner, filter, 0)
}

func (svc *service) query(ctx context.Context, owner string, filter QueryFilter, limit int) ([]View, error) {
	items, err := svc.repo.QueryAssignments(ctx, owner, filter, DefaultOrdering, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying assignments")
	}
	return Annotate(items, svc.now()), nil
}
