package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/mzhou3299/2-web-app-spogs/core"
	"github.com/mzhou3299/2-web-app-spogs/core/user"
)

// addUser registers an active user.User, applying the same checks as the registration page.
func (cli *commandLine) addUser(uname, email, pwd string) error {
	ctx := context.Background()
	nu := user.NewUser{
		Username:        uname,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	if err := nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return cli.describeValidation(err)
	}
	usr, err := cli.usrSvc.Register(ctx, nu)
	if err != nil {
		return cli.describeValidation(err)
	}
	fmt.Printf("created user %s (%s)\n", usr.Username, usr.ID)
	return nil
}

// describeValidation flattens field errors into a single readable error.
func (cli *commandLine) describeValidation(err error) error {
	var flds map[string]string
	switch vErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		flds = core.TranslateFieldErrors(vErr, cli.translator)
	case *core.ValidationError:
		flds = vErr.FieldMap()
	default:
		return err
	}
	msgs := make([]string, 0, len(flds))
	for fld, msg := range flds {
		msgs = append(msgs, fld+": "+msg)
	}
	sort.Strings(msgs)
	return errors.New(strings.Join(msgs, "; "))
}
