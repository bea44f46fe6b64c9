package assignment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFilter(t *testing.T) {
	iPtr := func(i int) *int { return &i }

	tests := []struct {
		name   string
		params FilterParams
		want   QueryFilter
	}{
		{name: "empty", want: QueryFilter{}},
		{
			name:   "text and course are trimmed",
			params: FilterParams{Search: "  essay ", Course: " CS101 "},
			want:   QueryFilter{Search: "essay", Course: "CS101"},
		},
		{
			name:   "date range, end widened to end of day",
			params: FilterParams{DueStart: "2024-03-01", DueEnd: "2024-03-31"},
			want: QueryFilter{
				DueFrom: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
				DueTo:   time.Date(2024, time.March, 31, 23, 59, 59, 999999999, time.UTC),
			},
		},
		{
			name:   "malformed dates are ignored",
			params: FilterParams{DueStart: "yesterday", DueEnd: "2024-13-40"},
			want:   QueryFilter{},
		},
		{
			name:   "minute bounds",
			params: FilterParams{MinTime: "30", MaxTime: " 120 "},
			want:   QueryFilter{MinEstimated: iPtr(30), MaxEstimated: iPtr(120)},
		},
		{
			name:   "malformed and negative minutes are ignored",
			params: FilterParams{MinTime: "half an hour", MaxTime: "-5"},
			want:   QueryFilter{},
		},
		{name: "show completed", params: FilterParams{ShowCompleted: "on"}, want: QueryFilter{ShowCompleted: true}},
		{name: "show completed (no)", params: FilterParams{ShowCompleted: "no"}, want: QueryFilter{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFilter(tt.params))
		})
	}
}

func TestQueryFilter_Params(t *testing.T) {
	params := FilterParams{
		Search:        "essay",
		Course:        "CS101",
		DueStart:      "2024-03-01",
		DueEnd:        "2024-03-31",
		MinTime:       "30",
		MaxTime:       "120",
		ShowCompleted: "1",
	}
	assert.Equal(t, params, ParseFilter(params).Params())
}

func TestQueryFilter_Matches(t *testing.T) {
	iPtr := func(i int) *int { return &i }
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC) }
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

	essay := Assignment{Title: "History Essay", Course: "HIST", Notes: "Draft first", DueDate: day(5), EstimatedMinutes: iPtr(90)}
	lab := Assignment{Title: "Lab report", Course: "CHEM", Notes: "see chapter 4", DueDate: day(20)}
	doneRecently := Assignment{Title: "Quiz", Course: "HIST", DueDate: day(9), Completed: true, UpdatedAt: now.Add(-23 * time.Hour)}
	doneLongAgo := Assignment{Title: "Old quiz", Course: "HIST", DueDate: day(1), Completed: true, UpdatedAt: now.Add(-25 * time.Hour)}

	tests := []struct {
		name   string
		filter QueryFilter
		a      Assignment
		want   bool
	}{
		{name: "empty filter keeps incomplete", a: essay, want: true},
		{name: "empty filter drops completed", a: doneRecently, want: false},
		{name: "search title, case-insensitive", filter: QueryFilter{Search: "essay"}, a: essay, want: true},
		{name: "search notes substring", filter: QueryFilter{Search: "CHAP"}, a: lab, want: true},
		{name: "search miss", filter: QueryFilter{Search: "math"}, a: lab, want: false},
		{name: "course exact", filter: QueryFilter{Course: "HIST"}, a: essay, want: true},
		{name: "course is not a substring match", filter: QueryFilter{Course: "HIS"}, a: essay, want: false},
		{name: "due from inclusive", filter: QueryFilter{DueFrom: day(5)}, a: essay, want: true},
		{name: "due from excludes earlier", filter: QueryFilter{DueFrom: day(6)}, a: essay, want: false},
		{name: "due to inclusive", filter: QueryFilter{DueTo: EndOfDay(day(20))}, a: lab, want: true},
		{name: "due to excludes later", filter: QueryFilter{DueTo: EndOfDay(day(19))}, a: lab, want: false},
		{name: "minutes in range", filter: QueryFilter{MinEstimated: iPtr(60), MaxEstimated: iPtr(90)}, a: essay, want: true},
		{name: "minutes above max", filter: QueryFilter{MaxEstimated: iPtr(60)}, a: essay, want: false},
		{name: "minutes bound without estimate", filter: QueryFilter{MinEstimated: iPtr(0)}, a: lab, want: false},
		{name: "show completed", filter: QueryFilter{ShowCompleted: true}, a: doneLongAgo, want: true},
		{name: "completed 23h ago is visible", filter: QueryFilter{CompletedSince: now.Add(-24 * time.Hour)}, a: doneRecently, want: true},
		{name: "completed 25h ago is hidden", filter: QueryFilter{CompletedSince: now.Add(-24 * time.Hour)}, a: doneLongAgo, want: false},
		{name: "filters combine with AND", filter: QueryFilter{Search: "essay", Course: "CHEM"}, a: essay, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.a); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
