package assignment

import (
	"time"

	"github.com/mzhou3299/2-web-app-spogs/core"
)

const (
	// GroupLabelLayout formats due-date bucket labels.
	GroupLabelLayout = "Monday, January 2"
	UnknownLabel     = "Unknown"
)

var labelInputLayouts = []string{
	core.DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Group is a run of assignments sharing a due-date label.
type Group struct {
	Label string
	Items []View
}

// GroupByDueDate buckets views by due-date label, keeping the order in which labels
// first appear and the order of views within a bucket.
func GroupByDueDate(views []View) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, v := range views {
		label := DueDateLabel(v.DueDateString())
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{Label: label})
		}
		groups[i].Items = append(groups[i].Items, v)
	}
	return groups
}

// DueDateLabel formats a due date received as text. It accepts a date, a date with
// time, or an already formatted label; anything else is UnknownLabel.
func DueDateLabel(raw string) string {
	raw = core.CleanString(raw)
	for _, layout := range labelInputLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(GroupLabelLayout)
		}
	}
	if _, err := time.Parse(GroupLabelLayout, raw); err == nil {
		return raw
	}
	return UnknownLabel
}
