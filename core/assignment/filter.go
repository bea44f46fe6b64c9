package assignment

import (
	"strconv"
	"strings"
	"time"

	"github.com/mzhou3299/2-web-app-spogs/core"
)

// FilterParams are the raw search parameters of a listing or export request.
type FilterParams struct {
	Search        string `query:"q" form:"q"`
	Course        string `query:"course" form:"course"`
	DueStart      string `query:"due_start" form:"due_start"`
	DueEnd        string `query:"due_end" form:"due_end"`
	MinTime       string `query:"min_time" form:"min_time"`
	MaxTime       string `query:"max_time" form:"max_time"`
	ShowCompleted string `query:"show_completed" form:"show_completed"`
}

// QueryFilter selects the assignments of one owner. Zero fields don't filter.
type QueryFilter struct {
	Search       string // case-insensitive substring of title or notes
	Course       string // exact match
	DueFrom      time.Time
	DueTo        time.Time // inclusive upper bound, already widened to the end of the day
	MinEstimated *int
	MaxEstimated *int

	// ShowCompleted disables completion filtering.
	ShowCompleted bool
	// CompletedSince, when set and ShowCompleted is false, keeps completed
	// assignments last updated at or after it.
	CompletedSince time.Time
}

// ParseFilter converts p into a QueryFilter. Malformed dates and numbers are ignored.
func ParseFilter(p FilterParams) QueryFilter {
	f := QueryFilter{
		Search:        core.CleanString(p.Search),
		Course:        core.CleanString(p.Course),
		ShowCompleted: core.IsTruthy(p.ShowCompleted),
	}
	if d, err := core.ParseDate(p.DueStart); err == nil {
		f.DueFrom = d
	}
	if d, err := core.ParseDate(p.DueEnd); err == nil {
		f.DueTo = EndOfDay(d)
	}
	f.MinEstimated = parseMinutes(p.MinTime)
	f.MaxEstimated = parseMinutes(p.MaxTime)
	return f
}

// Params renders f back into FilterParams, for prefilling search forms and export links.
func (f QueryFilter) Params() FilterParams {
	p := FilterParams{Search: f.Search, Course: f.Course}
	if !f.DueFrom.IsZero() {
		p.DueStart = f.DueFrom.Format(core.DateLayout)
	}
	if !f.DueTo.IsZero() {
		p.DueEnd = f.DueTo.Format(core.DateLayout)
	}
	if f.MinEstimated != nil {
		p.MinTime = strconv.Itoa(*f.MinEstimated)
	}
	if f.MaxEstimated != nil {
		p.MaxTime = strconv.Itoa(*f.MaxEstimated)
	}
	if f.ShowCompleted {
		p.ShowCompleted = "1"
	}
	return p
}

// Matches reports whether a satisfies f, owner aside.
func (f QueryFilter) Matches(a Assignment) bool {
	if f.Search != "" && !containsFold(a.Title, f.Search) && !containsFold(a.Notes, f.Search) {
		return false
	}
	if f.Course != "" && a.Course != f.Course {
		return false
	}
	if !f.DueFrom.IsZero() && a.DueDate.Before(f.DueFrom) {
		return false
	}
	if !f.DueTo.IsZero() && a.DueDate.After(f.DueTo) {
		return false
	}
	if f.MinEstimated != nil || f.MaxEstimated != nil {
		if a.EstimatedMinutes == nil {
			return false
		}
		if f.MinEstimated != nil && *a.EstimatedMinutes < *f.MinEstimated {
			return false
		}
		if f.MaxEstimated != nil && *a.EstimatedMinutes > *f.MaxEstimated {
			return false
		}
	}
	if !f.ShowCompleted && a.Completed {
		if f.CompletedSince.IsZero() || a.UpdatedAt.Before(f.CompletedSince) {
			return false
		}
	}
	return true
}

// EndOfDay returns the last instant of d's calendar day.
func EndOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 23, 59, 59, int(time.Second-time.Nanosecond), d.Location())
}

func parseMinutes(s string) *int {
	s = core.CleanString(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
