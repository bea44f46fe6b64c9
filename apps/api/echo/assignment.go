package echoapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mzhou3299/2-web-app-spogs/core/assignment"
)

type assignmentPages struct {
	svc        assignment.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAssignmentPages(
	e *echo.Echo,
	authed []echo.MiddlewareFunc,
	svc assignment.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	pages := assignmentPages{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	g := e.Group("", authed...)
	g.GET("/", pages.index)
	g.GET("/add", pages.addForm)
	g.POST("/add", pages.add)
	g.GET("/search", pages.search)
	g.GET("/export", pages.export)

	// detail pages
	dg := g.Group("/assignments/:id")
	dg.GET("/edit", pages.editForm)
	dg.POST("/edit", pages.edit)
	dg.POST("/toggle", pages.toggle)
	dg.POST("/delete", pages.destroy)
}

// bindFilter reads the search parameters of the query string; malformed values are dropped.
func bindFilter(ctx echo.Context) assignment.QueryFilter {
	var params assignment.FilterParams
	if err := ctx.Bind(&params); err != nil {
		params = assignment.FilterParams{}
	}
	return assignment.ParseFilter(params)
}

// Handlers

func (p *assignmentPages) index(ctx echo.Context) error {
	views, err := p.svc.Landing(ctx.Request().Context(), contextIdentity(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "listing assignments")
	}
	return renderOK(ctx, "index", page{
		Title:  "My assignments",
		Groups: assignment.GroupByDueDate(views),
		Count:  len(views),
	})
}

func (p *assignmentPages) addForm(ctx echo.Context) error {
	return renderOK(ctx, "add", page{
		Title: "Add an assignment",
		Form:  assignmentForm{Priority: fmt.Sprint(assignment.DefaultPriority)},
	})
}

func (p *assignmentPages) add(ctx echo.Context) error {
	var form assignmentForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to assignmentForm")
	}
	reRender := func(err error) error {
		errs, err := fieldErrors(err, p.translator)
		if err != nil {
			return err
		}
		return render(ctx, http.StatusBadRequest, "add", page{Title: "Add an assignment", Form: form, Errors: errs})
	}

	data, err := form.newAssignment()
	if err != nil {
		return reRender(err)
	}
	c := ctx.Request().Context()
	if err = data.Validate(c, p.validate); err != nil {
		return reRender(err)
	}
	if _, err = p.svc.Create(c, contextIdentity(ctx).ID, data); err != nil {
		if _, fErr := fieldErrors(err, p.translator); fErr == nil {
			return reRender(err)
		}
		return errors.Wrap(err, "creating assignment")
	}
	return seeOther(ctx, "/")
}

func (p *assignmentPages) search(ctx echo.Context) error {
	filter := bindFilter(ctx)
	views, err := p.svc.Search(ctx.Request().Context(), contextIdentity(ctx).ID, filter)
	if err != nil {
		return errors.Wrap(err, "searching assignments")
	}
	return renderOK(ctx, "search", page{
		Title:     "Search assignments",
		Groups:    assignment.GroupByDueDate(views),
		Count:     len(views),
		Filter:    filter.Params(),
		ExportURL: exportURL(filter.Params()),
	})
}

// exportURL links to the CSV export of the same search.
func exportURL(params assignment.FilterParams) string {
	q := url.Values{}
	for key, val := range map[string]string{
		"q":              params.Search,
		"course":         params.Course,
		"due_start":      params.DueStart,
		"due_end":        params.DueEnd,
		"min_time":       params.MinTime,
		"max_time":       params.MaxTime,
		"show_completed": params.ShowCompleted,
	} {
		if val = strings.TrimSpace(val); val != "" {
			q.Set(key, val)
		}
	}
	if len(q) == 0 {
		return "/export"
	}
	return "/export?" + q.Encode()
}

func (p *assignmentPages) export(ctx echo.Context) error {
	filter := bindFilter(ctx)
	views, err := p.svc.Export(ctx.Request().Context(), contextIdentity(ctx).ID, filter)
	if err != nil {
		return errors.Wrap(err, "exporting assignments")
	}
	return writeCSV(ctx, views)
}

func writeCSV(ctx echo.Context, views []assignment.View) error {
	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", assignment.ExportFilename))
	res.WriteHeader(http.StatusOK)
	return assignment.WriteCSV(res, views)
}

func (p *assignmentPages) editForm(ctx echo.Context) error {
	v, err := p.svc.Get(ctx.Request().Context(), contextIdentity(ctx).ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return renderOK(ctx, "edit", page{
		Title:        "Edit assignment",
		Form:         formFromAssignment(v.Assignment),
		AssignmentID: v.ID,
	})
}

func (p *assignmentPages) edit(ctx echo.Context) error {
	id := ctx.Param("id")
	var form assignmentForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to assignmentForm")
	}
	reRender := func(err error) error {
		errs, err := fieldErrors(err, p.translator)
		if err != nil {
			return err
		}
		return render(ctx, http.StatusBadRequest, "edit", page{
			Title:        "Edit assignment",
			Form:         form,
			Errors:       errs,
			AssignmentID: id,
		})
	}

	data, err := form.updateAssignment()
	if err != nil {
		return reRender(err)
	}
	c := ctx.Request().Context()
	if err = data.Validate(c, p.validate); err != nil {
		return reRender(err)
	}
	if _, err = p.svc.Update(c, contextIdentity(ctx).ID, id, data); err != nil {
		return err
	}
	return seeOther(ctx, "/")
}

func (p *assignmentPages) toggle(ctx echo.Context) error {
	if _, err := p.svc.ToggleCompleted(ctx.Request().Context(), contextIdentity(ctx).ID, ctx.Param("id")); err != nil {
		return err
	}
	return seeOther(ctx, "/")
}

func (p *assignmentPages) destroy(ctx echo.Context) error {
	if err := p.svc.Delete(ctx.Request().Context(), contextIdentity(ctx).ID, ctx.Param("id")); err != nil {
		return err
	}
	return seeOther(ctx, "/")
}

// JSON API

type assignmentApi struct {
	svc      assignment.Service
	validate *validator.Validate
}

func registerAssignmentAPI(g *echo.Group, svc assignment.Service, validate *validator.Validate) {
	api := assignmentApi{
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("/assignments")
	ag.GET("", api.query)
	ag.POST("", api.create)

	// detail endpoints
	ag.GET("/:id", api.retrieve)
	ag.PATCH("/:id", api.update)
	ag.POST("/:id/toggle", api.toggle)
	ag.DELETE("/:id", api.destroy)
}

func (api *assignmentApi) query(ctx echo.Context) error {
	filter := bindFilter(ctx)
	views, err := api.svc.Search(ctx.Request().Context(), contextIdentity(ctx).ID, filter)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, newAssignmentResponses(views))
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	c := ctx.Request().Context()
	if err := data.Validate(c, api.validate); err != nil {
		return err
	}
	v, err := api.svc.Create(c, contextIdentity(ctx).ID, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, newAssignmentResponse(v))
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	v, err := api.svc.Get(ctx.Request().Context(), contextIdentity(ctx).ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newAssignmentResponse(v))
}

func (api *assignmentApi) update(ctx echo.Context) error {
	var patch assignmentPatch
	if err := ctx.Bind(&patch); err != nil {
		return errors.Wrap(err, "binding to assignmentPatch")
	}
	data, err := patch.updateAssignment()
	if err != nil {
		return err
	}
	c := ctx.Request().Context()
	if err = data.Validate(c, api.validate); err != nil {
		return err
	}
	v, err := api.svc.Update(c, contextIdentity(ctx).ID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newAssignmentResponse(v))
}

func (api *assignmentApi) toggle(ctx echo.Context) error {
	v, err := api.svc.ToggleCompleted(ctx.Request().Context(), contextIdentity(ctx).ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newAssignmentResponse(v))
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), contextIdentity(ctx).ID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
