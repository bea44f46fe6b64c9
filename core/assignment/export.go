package assignment

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// ExportFilename is the attachment name of CSV exports.
const ExportFilename = "assignments.csv"

var exportHeader = []string{"Title", "Course", "Due Date", "Priority", "Estimated Time", "Notes", "Completed"}

// WriteCSV writes views to w as CSV with a header row, in the given order.
func WriteCSV(w io.Writer, views []View) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, v := range views {
		if err := cw.Write(exportRow(v.Assignment)); err != nil {
			return errors.Wrap(err, "writing csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

func exportRow(a Assignment) []string {
	var estimated string
	if a.EstimatedMinutes != nil {
		estimated = strconv.Itoa(*a.EstimatedMinutes)
	}
	completed := "No"
	if a.Completed {
		completed = "Yes"
	}
	return []string{
		a.Title,
		a.Course,
		a.DueDateString(),
		strconv.Itoa(a.Priority),
		estimated,
		a.Notes,
		completed,
	}
}
