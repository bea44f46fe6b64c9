package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mzhou3299/2-web-app-spogs/core"
	"github.com/mzhou3299/2-web-app-spogs/core/user"
)

type userPages struct {
	auth       *authenticator
	svc        user.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerUserPages(
	e *echo.Echo,
	auth *authenticator,
	throttle echo.MiddlewareFunc,
	svc user.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	pages := userPages{
		auth:       auth,
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	// un-authed pages
	e.GET("/home", pages.home)
	e.GET("/login", pages.loginForm)
	e.POST("/login", pages.login, throttle)
	e.GET("/register", pages.registerForm)
	e.POST("/register", pages.register, throttle)
	e.GET("/logout", pages.logout)
	e.POST("/logout", pages.logout)
}

// fieldErrors turns a validation failure into field messages for a form; other errors are returned as is.
func fieldErrors(err error, translator ut.Translator) (map[string]string, error) {
	switch vErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		return core.TranslateFieldErrors(vErr, translator), nil
	case *core.ValidationError:
		if vErr.Fields == nil {
			return map[string]string{"error": vErr.Error()}, nil
		}
		return vErr.FieldMap(), nil
	}
	return nil, err
}

// Handlers

func (p *userPages) home(ctx echo.Context) error {
	return renderOK(ctx, "home", page{Title: "Welcome", Identity: p.auth.optionalIdentity(ctx)})
}

func (p *userPages) loginForm(ctx echo.Context) error {
	if !p.auth.optionalIdentity(ctx).IsZero() {
		return seeOther(ctx, "/")
	}
	return renderOK(ctx, "login", page{Title: "Log in", Form: user.LoginRequest{}})
}

func (p *userPages) login(ctx echo.Context) error {
	var data user.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	reRender := func(code int, errs map[string]string) error {
		data.Password = ""
		return render(ctx, code, "login", page{Title: "Log in", Form: data, Errors: errs})
	}

	if err := data.Validate(p.validate); err != nil {
		errs, err := fieldErrors(err, p.translator)
		if err != nil {
			return err
		}
		return reRender(http.StatusBadRequest, errs)
	}

	usr, err := p.svc.Authenticate(ctx.Request().Context(), data)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrInvalidCredentials, user.ErrAccountDeactivated:
			return reRender(http.StatusBadRequest, map[string]string{"error": user.ErrInvalidCredentials.Error()})
		}
		return errors.Wrap(err, "authenticating")
	}

	if err = p.auth.login(ctx, usr); err != nil {
		return errors.Wrap(err, "starting session")
	}
	return seeOther(ctx, "/")
}

// registerForm is the registration form without its passwords.
type registerForm struct {
	Username string
	Email    string
}

func (p *userPages) registerForm(ctx echo.Context) error {
	if !p.auth.optionalIdentity(ctx).IsZero() {
		return seeOther(ctx, "/")
	}
	return renderOK(ctx, "register", page{Title: "Register", Form: registerForm{}})
}

func (p *userPages) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	reRender := func(err error) error {
		errs, err := fieldErrors(err, p.translator)
		if err != nil {
			return errors.Wrap(err, "registering user")
		}
		return render(ctx, http.StatusBadRequest, "register", page{
			Title:  "Register",
			Form:   registerForm{Username: data.Username, Email: data.Email},
			Errors: errs,
		})
	}

	c := ctx.Request().Context()
	if err := data.Validate(c, p.validate, p.svc); err != nil {
		return reRender(err)
	}
	usr, err := p.svc.Register(c, data)
	if err != nil {
		return reRender(err)
	}

	if err = p.auth.login(ctx, usr); err != nil {
		return errors.Wrap(err, "starting session")
	}
	return seeOther(ctx, "/")
}

func (p *userPages) logout(ctx echo.Context) error {
	if err := p.auth.logout(ctx); err != nil {
		return err
	}
	return seeOther(ctx, loginPath)
}
