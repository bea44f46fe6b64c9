package user

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/mzhou3299/2-web-app-spogs/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDeactivated = errors.New("account deactivated")
)

type (
	Repository interface {
		// CheckUsernameUniqueness returns ErrUsernameExists or ErrEmailExists, username first.
		CheckUsernameUniqueness(ctx context.Context, username, email string) error
		// CreateUser fails with ErrUsernameExists or ErrEmailExists if another User holds either value.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, uname, email string) error
		Register(ctx context.Context, nu NewUser) (User, error)
		Authenticate(ctx context.Context, lr LoginRequest) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(ctx context.Context, uname, email string) error {
	return uniquenessError(svc.repo.CheckUsernameUniqueness(ctx, uname, email))
}

// uniquenessError maps ErrUsernameExists and ErrEmailExists to a field ValidationError.
func uniquenessError(err error) error {
	if err == nil {
		return nil
	}
	var field string
	switch pkgerrors.Cause(err) {
	case ErrUsernameExists:
		field = "username"
	case ErrEmailExists:
		field = "email"
	default:
		return err
	}
	cause := pkgerrors.Cause(err)
	return core.NewValidationError(cause, core.FieldError{Field: field, Error: cause.Error()})
}

// Register creates an active User from an already validated NewUser.
func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	usr := User{
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		// lost a uniqueness race against a concurrent registration
		if vErr := uniquenessError(err); vErr != err {
			return User{}, vErr
		}
		return User{}, pkgerrors.Wrap(err, "creating user")
	}
	return usr, nil
}

// Authenticate never tells which of username or password was wrong.
func (svc *service) Authenticate(ctx context.Context, lr LoginRequest) (User, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx, lr.Username)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, pkgerrors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(lr.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	uname = core.CleanString(uname)
	if uname == "" {
		return User{}, ErrNotFound
	}
	// usernames never contain "@"; emails are stored lower-cased
	if strings.Contains(uname, "@") {
		return svc.repo.GetUser(ctx, GetFilter{Email: strings.ToLower(uname)})
	}
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: uname})
}

func (svc *service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdateUser(ctx, usr)
}
