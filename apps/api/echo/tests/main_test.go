package tests

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	echoapi "github.com/mzhou3299/2-web-app-spogs/apps/api/echo"
	"github.com/mzhou3299/2-web-app-spogs/core"
	"github.com/mzhou3299/2-web-app-spogs/core/assignment"
	"github.com/mzhou3299/2-web-app-spogs/core/user"
	logsvc "github.com/mzhou3299/2-web-app-spogs/services/logger"
	sessionsvc "github.com/mzhou3299/2-web-app-spogs/services/session"
	inmemdb "github.com/mzhou3299/2-web-app-spogs/storage/database/inmem"
	testutil "github.com/mzhou3299/2-web-app-spogs/tests"
)

const (
	cookieName = "session"
	password   = "Sup3rSecret!"
)

// now is the clock of the assignment service during tests; a Sunday.
var now = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func newConfig() *core.Config {
	return &core.Config{
		AppName:   "Homework Tracker",
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		SecretKey: "test-secret-key",
		Location:  time.UTC,
		Server: core.ServerConfig{
			DisableReqLogs:         true,
			SessionCookieName:      cookieName,
			SessionExpirationDelta: time.Hour,
		},
	}
}

// setup starts a server backed by in-memory storage; opts tweak its config.
func setup(t *testing.T, opts ...func(conf *core.Config)) echoapi.Server {
	t.Helper()
	conf := newConfig()
	for _, opt := range opts {
		opt(conf)
	}

	logger := logsvc.NewRollbarLogger(io.Discard, "api", conf)
	logger.Enable(false)

	db := inmemdb.Open()
	validate, translator := testutil.NewValidator()

	origNow := assignment.NowFunc
	assignment.NowFunc = func() time.Time { return now }

	srv := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		UserSvc:       user.NewService(inmemdb.NewUserRepository(db)),
		AssignmentSvc: assignment.NewService(inmemdb.NewAssignmentRepository(db), conf.Location),
		Sessions:      sessionsvc.NewMemoryStore(),
		Validate:      validate,
		Translator:    translator,
	})
	t.Cleanup(func() {
		assignment.NowFunc = origNow
		_ = srv.Shutdown(context.Background())
	})
	return srv
}

// client sends requests to a test server, carrying its session cookie if any.
type client struct {
	t      *testing.T
	srv    echoapi.Server
	cookie *http.Cookie
}

func anonymous(t *testing.T, srv echoapi.Server) *client {
	return &client{t: t, srv: srv}
}

func (c *client) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.srv.ServeHTTP(rec, req)
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.do(http.MethodGet, path, nil, "")
}

func (c *client) form(path string, vals url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.do(http.MethodPost, path, strings.NewReader(vals.Encode()), echo.MIMEApplicationForm)
}

func (c *client) json(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = strings.NewReader(string(raw))
	}
	return c.do(method, path, r, echo.MIMEApplicationJSON)
}

// register signs uname up and returns a client logged in as them.
func register(t *testing.T, srv echoapi.Server, uname string) *client {
	t.Helper()
	c := anonymous(t, srv)
	rec := c.form("/register", url.Values{
		"username":         {uname},
		"email":            {uname + "@test.cd"},
		"password":         {password},
		"confirm_password": {password},
	})
	requireRedirect(t, rec, "/")
	c.cookie = sessionCookie(t, rec)
	return c
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == cookieName && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatalf("no session cookie in response: %v", rec.Header()["Set-Cookie"])
	return nil
}

func requireRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, location, rec.Header().Get(echo.HeaderLocation))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// assignmentJSON mirrors the API representation of an assignment.
type assignmentJSON struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Course        string `json:"course"`
	Notes         string `json:"notes"`
	DueDate       string `json:"due_date"`
	Priority      int    `json:"priority"`
	EstimatedTime *int   `json:"estimated_time"`
	Completed     bool   `json:"completed"`
	IsOverdue     bool   `json:"is_overdue"`
	IsDueSoon     bool   `json:"is_due_soon"`
}

func (c *client) createAssignment(body map[string]interface{}) assignmentJSON {
	c.t.Helper()
	rec := c.json(http.MethodPost, "/api/assignments", body)
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	var a assignmentJSON
	decode(c.t, rec, &a)
	return a
}
