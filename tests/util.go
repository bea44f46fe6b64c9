package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/mzhou3299/2-web-app-spogs/core"
	"github.com/mzhou3299/2-web-app-spogs/core/assignment"
	"github.com/mzhou3299/2-web-app-spogs/core/user"
)

// NewValidator returns a validator with every domain validator registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	assignment.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, email, pwd string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Username:  uname,
		Email:     email,
		IsActive:  isActive,
		CreatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// AssignmentOpt customises an assignment built by CreateAssignment.
type AssignmentOpt func(a *assignment.Assignment)

func WithCourse(course string) AssignmentOpt {
	return func(a *assignment.Assignment) { a.Course = course }
}

func WithNotes(notes string) AssignmentOpt {
	return func(a *assignment.Assignment) { a.Notes = notes }
}

func WithMinutes(mins int) AssignmentOpt {
	return func(a *assignment.Assignment) { a.EstimatedMinutes = &mins }
}

func WithPriority(p int) AssignmentOpt {
	return func(a *assignment.Assignment) { a.Priority = p }
}

// Completed marks the assignment completed, last updated at updatedAt.
func Completed(updatedAt time.Time) AssignmentOpt {
	return func(a *assignment.Assignment) {
		a.Completed = true
		a.UpdatedAt = updatedAt.UTC()
	}
}

func CreatedAt(ts time.Time) AssignmentOpt {
	return func(a *assignment.Assignment) {
		a.CreatedAt = ts.UTC()
		if a.UpdatedAt.Before(a.CreatedAt) {
			a.UpdatedAt = a.CreatedAt
		}
	}
}

// CreateAssignment stores an assignment of owner due on due (YYYY-MM-DD).
func CreateAssignment(
	t *testing.T,
	repo assignment.Repository,
	owner, title, due string,
	opts ...AssignmentOpt,
) assignment.Assignment {
	dueDate, err := core.ParseDate(due)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	now := time.Now().UTC()
	a := assignment.Assignment{
		OwnerID:   owner,
		Title:     title,
		DueDate:   dueDate,
		Priority:  assignment.DefaultPriority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(&a)
	}
	a, err = repo.CreateAssignment(context.Background(), a)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return a
}
