package main

import (
	"context"
	"fmt"

	"github.com/mzhou3299/2-web-app-spogs/core/user"
)

// resetPassword sets a new password on the user, applying the registration password policy.
func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	pp := user.PasswordPolicy{Password: pwd, Username: usr.Username, Email: usr.Email}
	if err := pp.Validate(cli.validate); err != nil {
		return cli.describeValidation(err)
	}
	if _, err := cli.usrSvc.SetPassword(ctx, usr, pwd); err != nil {
		return err
	}
	fmt.Printf("password of %s updated\n", usr.Username)
	return nil
}
