package echoapi

import (
	"html/template"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mzhou3299/2-web-app-spogs/core/assignment"
	"github.com/mzhou3299/2-web-app-spogs/core/user"
	appfs "github.com/mzhou3299/2-web-app-spogs/fs"
)

// pages rendered inside the layout
var pageNames = []string{"home", "login", "register", "index", "add", "edit", "search", "error"}

var templateFuncs = template.FuncMap{
	"priorityName": assignment.PriorityName,
}

type templateRenderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*templateRenderer)(nil)

func newTemplateRenderer() *templateRenderer {
	r := &templateRenderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		r.pages[name] = template.Must(
			template.New(name).Funcs(templateFuncs).ParseFS(appfs.FS, "templates/layout.gohtml", "templates/"+name+".gohtml"),
		)
	}
	return r
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown page %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// page is the data every template receives.
type page struct {
	Title    string
	Identity user.Identity
	Errors   map[string]string
	Form     interface{}

	// listings
	Groups    []assignment.Group
	Count     int
	Filter    assignment.FilterParams
	ExportURL string

	// edit form
	AssignmentID string
}

func render(ctx echo.Context, code int, name string, p page) error {
	if p.Identity.IsZero() {
		p.Identity = contextIdentity(ctx)
	}
	if p.Form == nil {
		p.Form = assignmentForm{}
	}
	return ctx.Render(code, name, p)
}

func renderOK(ctx echo.Context, name string, p page) error {
	return render(ctx, http.StatusOK, name, p)
}

func seeOther(ctx echo.Context, path string) error {
	return ctx.Redirect(http.StatusSeeOther, path)
}
