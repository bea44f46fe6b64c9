package assignment

import "time"

// DueSoonWindow is how far ahead of its due date an assignment counts as due soon.
const DueSoonWindow = 24 * time.Hour

// Status holds the flags derived from a due date relative to the evaluation time.
type Status struct {
	IsOverdue bool
	IsDueSoon bool
}

// DeriveStatus computes the Status of an assignment due on the calendar day of due.
// Calendar days are those of now's location. A completed assignment or a zero due
// date yields no flags.
func DeriveStatus(due time.Time, completed bool, now time.Time) Status {
	if completed || due.IsZero() {
		return Status{}
	}

	loc := now.Location()
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	if dueDay.Before(today) {
		return Status{IsOverdue: true}
	}
	remaining := dueDay.Sub(now)
	return Status{IsDueSoon: remaining >= 0 && remaining <= DueSoonWindow}
}

// Annotate pairs every assignment with its Status at now.
func Annotate(items []Assignment, now time.Time) []View {
	views := make([]View, len(items))
	for i, a := range items {
		views[i] = View{Assignment: a, Status: DeriveStatus(a.DueDate, a.Completed, now)}
	}
	return views
}
