package echoapi

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/mzhou3299/2-web-app-spogs/core"
	"github.com/mzhou3299/2-web-app-spogs/core/assignment"
)

const minutesText = "estimated time must be a non-negative number of minutes"

// assignmentForm is the HTML form of an assignment; every value arrives as text.
type assignmentForm struct {
	Title         string `form:"title"`
	Course        string `form:"course"`
	Notes         string `form:"notes"`
	DueDate       string `form:"due_date"`
	Priority      string `form:"priority"`
	EstimatedTime string `form:"estimated_time"`
	Completed     bool   `form:"completed"`
}

func formFromAssignment(a assignment.Assignment) assignmentForm {
	f := assignmentForm{
		Title:     a.Title,
		Course:    a.Course,
		Notes:     a.Notes,
		DueDate:   a.DueDateString(),
		Priority:  strconv.Itoa(a.Priority),
		Completed: a.Completed,
	}
	if a.EstimatedMinutes != nil {
		f.EstimatedTime = strconv.Itoa(*a.EstimatedMinutes)
	}
	return f
}

// numbers converts the numeric fields; text that isn't a number is a field error.
func (f assignmentForm) numbers() (priority int, minutes *int, err error) {
	var flds []core.FieldError
	if p := core.CleanString(f.Priority); p != "" {
		if priority, err = strconv.Atoi(p); err != nil {
			flds = append(flds, core.FieldError{Field: "priority", Error: "priority must be a number"})
		}
	}
	if m := core.CleanString(f.EstimatedTime); m != "" {
		n, convErr := strconv.Atoi(m)
		if convErr != nil {
			flds = append(flds, core.FieldError{Field: "estimated_time", Error: minutesText})
		} else {
			minutes = &n
		}
	}
	if len(flds) > 0 {
		return 0, nil, core.NewValidationError(nil, flds...)
	}
	return priority, minutes, nil
}

func (f assignmentForm) newAssignment() (assignment.NewAssignment, error) {
	priority, minutes, err := f.numbers()
	if err != nil {
		return assignment.NewAssignment{}, err
	}
	return assignment.NewAssignment{
		Title:            f.Title,
		Course:           f.Course,
		Notes:            f.Notes,
		DueDate:          f.DueDate,
		Priority:         priority,
		EstimatedMinutes: minutes,
	}, nil
}

// updateAssignment sets every field; an empty estimate clears it.
func (f assignmentForm) updateAssignment() (assignment.UpdateAssignment, error) {
	priority, minutes, err := f.numbers()
	if err != nil {
		return assignment.UpdateAssignment{}, err
	}
	ua := assignment.UpdateAssignment{
		Title:                 &f.Title,
		Course:                &f.Course,
		Notes:                 &f.Notes,
		DueDate:               &f.DueDate,
		EstimatedMinutes:      minutes,
		ClearEstimatedMinutes: minutes == nil,
		Completed:             &f.Completed,
	}
	if priority != 0 {
		ua.Priority = &priority
	}
	return ua, nil
}

// assignmentPatch is the JSON body of a partial update.
// "estimated_time": null clears the estimate.
type assignmentPatch struct {
	assignment.UpdateAssignment
	EstimatedTime json.RawMessage `json:"estimated_time"`
}

func (p assignmentPatch) updateAssignment() (assignment.UpdateAssignment, error) {
	ua := p.UpdateAssignment
	switch raw := string(p.EstimatedTime); raw {
	case "":
	case "null":
		ua.ClearEstimatedMinutes = true
	default:
		var n int
		if err := json.Unmarshal(p.EstimatedTime, &n); err != nil {
			return ua, core.NewValidationError(err, core.FieldError{Field: "estimated_time", Error: minutesText})
		}
		ua.EstimatedMinutes = &n
	}
	return ua, nil
}

type assignmentResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Course        string    `json:"course"`
	Notes         string    `json:"notes"`
	DueDate       string    `json:"due_date"`
	Priority      int       `json:"priority"`
	EstimatedTime *int      `json:"estimated_time"`
	Completed     bool      `json:"completed"`
	IsOverdue     bool      `json:"is_overdue"`
	IsDueSoon     bool      `json:"is_due_soon"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newAssignmentResponse(v assignment.View) assignmentResponse {
	return assignmentResponse{
		ID:            v.ID,
		Title:         v.Title,
		Course:        v.Course,
		Notes:         v.Notes,
		DueDate:       v.DueDateString(),
		Priority:      v.Priority,
		EstimatedTime: v.EstimatedMinutes,
		Completed:     v.Completed,
		IsOverdue:     v.IsOverdue,
		IsDueSoon:     v.IsDueSoon,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

func newAssignmentResponses(views []assignment.View) []assignmentResponse {
	resp := make([]assignmentResponse, len(views))
	for i, v := range views {
		resp[i] = newAssignmentResponse(v)
	}
	return resp
}
