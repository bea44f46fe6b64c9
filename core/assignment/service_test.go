package assignment_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzhou3299/2-web-app-spogs/core"
	"github.com/mzhou3299/2-web-app-spogs/core/assignment"
	inmemdb "github.com/mzhou3299/2-web-app-spogs/storage/database/inmem"
	"github.com/mzhou3299/2-web-app-spogs/tests"
)

var (
	now      = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	repo     assignment.Repository
	validate *validator.Validate
)

func setup(t *testing.T) assignment.Service {
	t.Helper()
	repo = inmemdb.NewAssignmentRepository(inmemdb.Open())
	validate, _ = testutil.NewValidator()

	orig := assignment.NowFunc
	assignment.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { assignment.NowFunc = orig })

	return assignment.NewService(repo, time.UTC)
}

func titles(views []assignment.View) []string {
	res := make([]string, len(views))
	for i, v := range views {
		res[i] = v.Title
	}
	return res
}

func TestNewAssignment_Validate(t *testing.T) {
	setup(t)
	iPtr := func(i int) *int { return &i }

	tests := []struct {
		name    string
		na      assignment.NewAssignment
		wantErr map[string]string // field -> failing tag
	}{
		{name: "valid", na: assignment.NewAssignment{Title: "Essay", DueDate: "2024-03-11"}},
		{name: "missing title", na: assignment.NewAssignment{DueDate: "2024-03-11"}, wantErr: map[string]string{"title": "required"}},
		{name: "blank title", na: assignment.NewAssignment{Title: "   ", DueDate: "2024-03-11"}, wantErr: map[string]string{"title": "required"}},
		{name: "missing due date", na: assignment.NewAssignment{Title: "Essay"}, wantErr: map[string]string{"due_date": "required"}},
		{name: "bad due date", na: assignment.NewAssignment{Title: "Essay", DueDate: "11/03/2024"}, wantErr: map[string]string{"due_date": "isodate"}},
		{name: "bad priority", na: assignment.NewAssignment{Title: "Essay", DueDate: "2024-03-11", Priority: 4}, wantErr: map[string]string{"priority": "priority"}},
		{
			name:    "negative minutes",
			na:      assignment.NewAssignment{Title: "Essay", DueDate: "2024-03-11", EstimatedMinutes: iPtr(-1)},
			wantErr: map[string]string{"estimated_time": "minutes"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.na.Validate(context.Background(), validate)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, assignment.DefaultPriority, tt.na.Priority)
				return
			}
			var vErrs validator.ValidationErrors
			require.True(t, errors.As(err, &vErrs), "want validation errors, got %v", err)
			got := make(map[string]string, len(vErrs))
			for _, fe := range vErrs {
				got[fe.Field()] = fe.Tag()
			}
			assert.Equal(t, tt.wantErr, got)
		})
	}
}

func TestUpdateAssignment_Validate(t *testing.T) {
	setup(t)
	sPtr := func(s string) *string { return &s }
	iPtr := func(i int) *int { return &i }

	tests := []struct {
		name      string
		ua        assignment.UpdateAssignment
		wantField string
	}{
		{name: "nothing", ua: assignment.UpdateAssignment{}},
		{name: "new title", ua: assignment.UpdateAssignment{Title: sPtr(" Essay v2 ")}},
		{name: "empty title", ua: assignment.UpdateAssignment{Title: sPtr(" ")}, wantField: "title"},
		{name: "empty due date", ua: assignment.UpdateAssignment{DueDate: sPtr("")}, wantField: "due_date"},
		{name: "bad due date", ua: assignment.UpdateAssignment{DueDate: sPtr("tomorrow")}, wantField: "due_date"},
		{name: "low priority", ua: assignment.UpdateAssignment{Priority: iPtr(0)}, wantField: "priority"},
		{name: "negative minutes", ua: assignment.UpdateAssignment{EstimatedMinutes: iPtr(-10)}, wantField: "estimated_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ua.Validate(context.Background(), validate)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var fields []string
			switch vErr := err.(type) {
			case validator.ValidationErrors:
				for _, fe := range vErr {
					fields = append(fields, fe.Field())
				}
			case *core.ValidationError:
				for _, fe := range vErr.Fields {
					fields = append(fields, fe.Field)
				}
			}
			assert.Equal(t, []string{tt.wantField}, fields)
		})
	}
}

func TestService_Create(t *testing.T) {
	svc := setup(t)
	mins := 90

	v, err := svc.Create(context.Background(), "1", assignment.NewAssignment{
		Title: "Essay", Course: "HIST", DueDate: "2024-03-11", EstimatedMinutes: &mins,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "1", v.OwnerID)
	assert.Equal(t, time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC), v.DueDate)
	assert.Equal(t, assignment.DefaultPriority, v.Priority)
	assert.Equal(t, 90, *v.EstimatedMinutes)
	assert.False(t, v.Completed)
	assert.Equal(t, now, v.CreatedAt)
	assert.Equal(t, now, v.UpdatedAt)
	assert.Equal(t, assignment.Status{IsDueSoon: true}, v.Status)

	_, err = svc.Create(context.Background(), "1", assignment.NewAssignment{Title: "Essay", DueDate: "soon"})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "due_date", vErr.Fields[0].Field)
}

func TestService_Ownership(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	theirs := testutil.CreateAssignment(t, repo, "owner", "Essay", "2024-03-11")
	title := "Hijacked"

	tests := []struct {
		name string
		call func() error
	}{
		{name: "get", call: func() error { _, err := svc.Get(ctx, "intruder", theirs.ID); return err }},
		{name: "update", call: func() error {
			_, err := svc.Update(ctx, "intruder", theirs.ID, assignment.UpdateAssignment{Title: &title})
			return err
		}},
		{name: "toggle", call: func() error { _, err := svc.ToggleCompleted(ctx, "intruder", theirs.ID); return err }},
		{name: "delete", call: func() error { return svc.Delete(ctx, "intruder", theirs.ID) }},
		{name: "unknown id", call: func() error { _, err := svc.Get(ctx, "owner", "999"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, assignment.ErrNotFound, errors.Cause(tt.call()))
		})
	}

	got, err := svc.Get(ctx, "owner", theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Essay", got.Title)
	assert.False(t, got.Completed)

	mine, err := svc.Search(ctx, "intruder", assignment.QueryFilter{ShowCompleted: true})
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestService_Update(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	a := testutil.CreateAssignment(t, repo, "1", "Essay", "2024-03-11",
		testutil.WithCourse("HIST"), testutil.WithNotes("draft"), testutil.WithMinutes(60),
		testutil.CreatedAt(now.Add(-time.Hour)))

	title, due, prio := "Essay v2", "2024-03-20", assignment.PriorityHigh
	v, err := svc.Update(ctx, "1", a.ID, assignment.UpdateAssignment{Title: &title, DueDate: &due, Priority: &prio})
	require.NoError(t, err)
	assert.Equal(t, "Essay v2", v.Title)
	assert.Equal(t, "HIST", v.Course)
	assert.Equal(t, "draft", v.Notes)
	assert.Equal(t, "2024-03-20", v.DueDateString())
	assert.Equal(t, assignment.PriorityHigh, v.Priority)
	assert.Equal(t, 60, *v.EstimatedMinutes)
	assert.Equal(t, now, v.UpdatedAt)
	assert.Equal(t, a.CreatedAt, v.CreatedAt)

	v, err = svc.Update(ctx, "1", a.ID, assignment.UpdateAssignment{ClearEstimatedMinutes: true})
	require.NoError(t, err)
	assert.Nil(t, v.EstimatedMinutes)

	stored, err := svc.Get(ctx, "1", a.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.EstimatedMinutes)
	assert.Equal(t, "Essay v2", stored.Title)
}

func TestService_ToggleCompleted(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	a := testutil.CreateAssignment(t, repo, "1", "Essay", "2024-03-01", testutil.CreatedAt(now.Add(-48*time.Hour)))

	v, err := svc.ToggleCompleted(ctx, "1", a.ID)
	require.NoError(t, err)
	assert.True(t, v.Completed)
	assert.Equal(t, now, v.UpdatedAt)
	assert.Equal(t, assignment.Status{}, v.Status, "completed work is never overdue")

	v, err = svc.ToggleCompleted(ctx, "1", a.ID)
	require.NoError(t, err)
	assert.False(t, v.Completed)
	assert.True(t, v.IsOverdue)
}

func TestService_Delete(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	a := testutil.CreateAssignment(t, repo, "1", "Essay", "2024-03-11")

	require.NoError(t, svc.Delete(ctx, "1", a.ID))
	assert.Equal(t, assignment.ErrNotFound, svc.Delete(ctx, "1", a.ID))
	_, err := svc.Get(ctx, "1", a.ID)
	assert.Equal(t, assignment.ErrNotFound, err)
}

func TestService_Landing(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	testutil.CreateAssignment(t, repo, "1", "later", "2024-03-20", testutil.CreatedAt(now.Add(-5*time.Hour)))
	testutil.CreateAssignment(t, repo, "1", "overdue", "2024-03-01", testutil.CreatedAt(now.Add(-4*time.Hour)))
	testutil.CreateAssignment(t, repo, "1", "tomorrow, older", "2024-03-11", testutil.CreatedAt(now.Add(-3*time.Hour)))
	testutil.CreateAssignment(t, repo, "1", "tomorrow, newer", "2024-03-11", testutil.CreatedAt(now.Add(-2*time.Hour)))
	testutil.CreateAssignment(t, repo, "1", "done 23h ago", "2024-03-09",
		testutil.CreatedAt(now.Add(-72*time.Hour)), testutil.Completed(now.Add(-23*time.Hour)))
	testutil.CreateAssignment(t, repo, "1", "done 25h ago", "2024-03-08",
		testutil.CreatedAt(now.Add(-72*time.Hour)), testutil.Completed(now.Add(-25*time.Hour)))
	testutil.CreateAssignment(t, repo, "2", "someone else's", "2024-03-11")

	views, err := svc.Landing(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"overdue", "done 23h ago", "tomorrow, newer", "tomorrow, older", "later"}, titles(views))

	status := make(map[string]assignment.Status, len(views))
	for _, v := range views {
		status[v.Title] = v.Status
	}
	assert.Equal(t, assignment.Status{IsOverdue: true}, status["overdue"])
	assert.Equal(t, assignment.Status{}, status["done 23h ago"])
	assert.Equal(t, assignment.Status{IsDueSoon: true}, status["tomorrow, newer"])
	assert.Equal(t, assignment.Status{}, status["later"])
}

func TestService_Search(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	testutil.CreateAssignment(t, repo, "1", "History essay", "2024-03-05", testutil.WithCourse("HIST"), testutil.WithMinutes(120))
	testutil.CreateAssignment(t, repo, "1", "Lab report", "2024-03-12", testutil.WithCourse("CHEM"), testutil.WithNotes("titration essay"))
	testutil.CreateAssignment(t, repo, "1", "Reading", "2024-03-15", testutil.WithCourse("HIST"), testutil.WithMinutes(30))
	testutil.CreateAssignment(t, repo, "1", "Old quiz", "2024-03-01", testutil.WithCourse("HIST"), testutil.Completed(now.Add(-30*24*time.Hour)))

	tests := []struct {
		name   string
		params assignment.FilterParams
		want   []string
	}{
		{name: "everything active", want: []string{"History essay", "Lab report", "Reading"}},
		{name: "text in title or notes", params: assignment.FilterParams{Search: "ESSAY"}, want: []string{"History essay", "Lab report"}},
		{name: "course", params: assignment.FilterParams{Course: "HIST"}, want: []string{"History essay", "Reading"}},
		{name: "course with completed", params: assignment.FilterParams{Course: "HIST", ShowCompleted: "on"}, want: []string{"Old quiz", "History essay", "Reading"}},
		{name: "due range", params: assignment.FilterParams{DueStart: "2024-03-05", DueEnd: "2024-03-12"}, want: []string{"History essay", "Lab report"}},
		{name: "unparseable start is ignored", params: assignment.FilterParams{DueStart: "last week", DueEnd: "2024-03-12"}, want: []string{"History essay", "Lab report"}},
		{name: "time range skips unestimated", params: assignment.FilterParams{MinTime: "0", MaxTime: "60"}, want: []string{"Reading"}},
		{name: "no match", params: assignment.FilterParams{Search: "calculus"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := svc.Search(ctx, "1", assignment.ParseFilter(tt.params))
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(views))
		})
	}
}

func TestService_ExportIsUncapped(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	total := assignment.ListLimit + 5
	for i := 0; i < total; i++ {
		testutil.CreateAssignment(t, repo, "1", "task "+strconv.Itoa(i), "2024-03-11")
	}

	listed, err := svc.Search(ctx, "1", assignment.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, listed, assignment.ListLimit)

	exported, err := svc.Export(ctx, "1", assignment.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, exported, total)
}
