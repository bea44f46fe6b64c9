package assignment

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mzhou3299/2-web-app-spogs/core"
)

// Priorities
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3

	DefaultPriority = PriorityMedium
)

var priorityNames = map[int]string{
	PriorityLow:    "Low",
	PriorityMedium: "Medium",
	PriorityHigh:   "High",
}

// PriorityName returns the display name of p, or its number when p is not a known priority.
func PriorityName(p int) string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return strconv.Itoa(p)
}

type Assignment struct {
	ID               string
	OwnerID          string
	Title            string
	Course           string
	Notes            string
	DueDate          time.Time // calendar date, midnight UTC
	Priority         int
	EstimatedMinutes *int
	Completed        bool
	CreatedAt        time.Time // UTC
	UpdatedAt        time.Time // UTC
}

// DueDateString returns the due date as YYYY-MM-DD, or "" when unset.
func (a Assignment) DueDateString() string {
	if a.DueDate.IsZero() {
		return ""
	}
	return a.DueDate.Format(core.DateLayout)
}

// View is an Assignment annotated with its derived Status.
type View struct {
	Assignment
	Status
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title            string `json:"title" validate:"required,notblank,max=200"`
	Course           string `json:"course" validate:"max=100"`
	Notes            string `json:"notes" validate:"max=5000"`
	DueDate          string `json:"due_date" validate:"required,isodate"`
	Priority         int    `json:"priority"`
	EstimatedMinutes *int   `json:"estimated_time"`
}

func (na *NewAssignment) Validate(_ context.Context, validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Course = core.CleanString(na.Course)
	na.Notes = core.CleanString(na.Notes)
	na.DueDate = core.CleanString(na.DueDate)
	if na.Priority == 0 {
		na.Priority = DefaultPriority
	}
	return validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an existing Assignment.
// nil fields are left untouched.
type UpdateAssignment struct {
	Title            *string `json:"title" validate:"omitempty,notblank,max=200"`
	Course           *string `json:"course" validate:"omitempty,max=100"`
	Notes            *string `json:"notes" validate:"omitempty,max=5000"`
	DueDate          *string `json:"due_date" validate:"omitempty,isodate"`
	Priority         *int    `json:"priority"`
	EstimatedMinutes *int    `json:"estimated_time"`
	Completed        *bool   `json:"completed"`

	// ClearEstimatedMinutes removes the estimate; it wins over EstimatedMinutes.
	ClearEstimatedMinutes bool `json:"-"`
}

func (ua *UpdateAssignment) Validate(_ context.Context, validate *validator.Validate) error {
	clean := func(s *string) {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	clean(ua.Title)
	clean(ua.Course)
	clean(ua.Notes)
	clean(ua.DueDate)

	// an explicit empty title or due date is an error, not an omission
	if ua.Title != nil && *ua.Title == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "title", Error: "this field cannot be blank"})
	}
	if ua.DueDate != nil && *ua.DueDate == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "due_date", Error: "this field is required"})
	}
	return validate.Struct(ua)
}

// ParsedDueDate returns the validated due date, or the zero time if none was supplied.
func (ua UpdateAssignment) ParsedDueDate() time.Time {
	if ua.DueDate == nil {
		return time.Time{}
	}
	d, _ := core.ParseDate(*ua.DueDate)
	return d
}

// IsEmpty reports whether ua changes nothing but the update timestamp.
func (ua UpdateAssignment) IsEmpty() bool {
	return ua.Title == nil && ua.Course == nil && ua.Notes == nil && ua.DueDate == nil &&
		ua.Priority == nil && ua.EstimatedMinutes == nil && ua.Completed == nil && !ua.ClearEstimatedMinutes
}

// Apply copies the supplied fields of ua onto a; the owner is never touched.
func (ua UpdateAssignment) Apply(a *Assignment, updatedAt time.Time) {
	if ua.Title != nil {
		a.Title = *ua.Title
	}
	if ua.Course != nil {
		a.Course = *ua.Course
	}
	if ua.Notes != nil {
		a.Notes = *ua.Notes
	}
	if ua.DueDate != nil {
		a.DueDate = ua.ParsedDueDate()
	}
	if ua.Priority != nil {
		a.Priority = *ua.Priority
	}
	if ua.ClearEstimatedMinutes {
		a.EstimatedMinutes = nil
	} else if ua.EstimatedMinutes != nil {
		mins := *ua.EstimatedMinutes
		a.EstimatedMinutes = &mins
	}
	if ua.Completed != nil {
		a.Completed = *ua.Completed
	}
	a.UpdatedAt = updatedAt
}
