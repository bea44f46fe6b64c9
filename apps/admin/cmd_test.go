package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mzhou3299/2-web-app-spogs/core/user"
	"github.com/mzhou3299/2-web-app-spogs/storage/database"
	inmemdb "github.com/mzhou3299/2-web-app-spogs/storage/database/inmem"
	"github.com/mzhou3299/2-web-app-spogs/tests"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()
	db := inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	validate, translator := testutil.NewValidator()

	return &commandLine{
		usrSvc:     user.NewService(usrRepo),
		validate:   validate,
		translator: translator,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string   // typed at the password prompt
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case err == nil:
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, want an error")
		}
	case tt.wantErr != nil:
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	default:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
}

func Test_commandLine_run(t *testing.T) {
	cli := setup(t)
	mockPassword("")

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"adduser", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	testutil.CreateUser(t, usrRepo, "taken", "taken@test.cd", "s3cretPass!", true)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "missing email", args: []string{"adduser", "-username", "awe"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "awe", "-email", "awe@test.cd"}, wantErr: errHelp},
		{
			name:       "weak password",
			args:       []string{"adduser", "-username", "awe", "-email", "awe@test.cd"},
			pwd:        "1234",
			wantErrStr: "password: password must contain at least 8 characters",
		},
		{
			name:       "invalid username and email",
			args:       []string{"adduser", "-username", "a w", "-email", "nope"},
			pwd:        "Sup3rSecret!",
			wantErrStr: "email: email must be a valid email address; username: only alphanumeric characters and underscores are allowed",
		},
		{
			name:       "username taken",
			args:       []string{"adduser", "-username", "taken", "-email", "other@test.cd"},
			pwd:        "Sup3rSecret!",
			wantErrStr: "username: username already exists",
		},
		{
			name:       "email taken",
			args:       []string{"adduser", "-username", "other", "-email", "TAKEN@test.cd"},
			pwd:        "Sup3rSecret!",
			wantErrStr: "email: email already exists",
		},
		{name: "created", args: []string{"adduser", "-username", "awe", "-email", "awe@test.cd"}, pwd: "Sup3rSecret!"},
	}
	for _, tt := range tests {
		mockPassword(tt.pwd)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: "awe"})
	if err != nil {
		t.Fatalf("GetUser() failed, %v", err)
	}
	if !usr.IsActive || usr.Email != "awe@test.cd" {
		t.Errorf("GetUser() = %+v, want an active user with email awe@test.cd", usr)
	}
	if err := usr.CheckPassword("Sup3rSecret!"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "awe", "awe@test.cd", "mdrmdr00", true)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, pwd: "lol", wantErr: user.ErrNotFound},
		{
			name:       "short password",
			args:       []string{"resetpassword", "-username", usr.Username},
			pwd:        "lol1",
			wantErrStr: "password: password must contain at least 8 characters",
		},
		{
			name:       "numeric password",
			args:       []string{"resetpassword", "-username", usr.Username},
			pwd:        "12345678",
			wantErrStr: "password: password cannot be entirely numeric",
		},
		{
			name:       "password too long",
			args:       []string{"resetpassword", "-username", usr.Username},
			pwd:        strings.Repeat("Ab1!", 20),
			wantErrStr: "password: password must contain at most 72 bytes",
		},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, pwd: "lolilol1"},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, pwd: "lmaolmao2"},
	}
	for _, tt := range tests {
		mockPassword(tt.pwd)

		t.Run(tt.name, func(t *testing.T) {
			before, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			if err != nil {
				t.Fatalf("GetUser() failed, %v", err)
			}

			err = cli.run(append([]string{"admin"}, tt.args...))
			tt.check(t, err)
			if err != nil {
				return
			}

			after, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			if err != nil {
				t.Fatalf("GetUser() failed, %v", err)
			}
			if bytes.Equal(after.PasswordHash, before.PasswordHash) {
				t.Error("failed to update new password")
			}
			if err := after.CheckPassword(tt.pwd); err != nil {
				t.Errorf("CheckPassword() error = %v", err)
			}
		})
	}
}

func Test_commandLine_ensureIndexes(t *testing.T) {
	cli := setup(t)
	defer func(orig func(context.Context, *database.DB) error) { ensureIndexesFunc = orig }(ensureIndexesFunc)

	var calls int
	ensureIndexesFunc = func(context.Context, *database.DB) error {
		calls++
		return nil
	}
	if err := cli.run([]string{"admin", "ensureindexes"}); err != nil {
		t.Errorf("cli.run() unexpected error = %v", err)
	}

	failure := errors.New("no primary")
	ensureIndexesFunc = func(context.Context, *database.DB) error {
		calls++
		return failure
	}
	if err := cli.run([]string{"admin", "ensureindexes"}); !errors.Is(err, failure) {
		t.Errorf("cli.run() error = %v, wantErr %v", err, failure)
	}
	if calls != 2 {
		t.Errorf("ensureIndexesFunc called %d times, want 2", calls)
	}
}
