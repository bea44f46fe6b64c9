package assignment

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/mzhou3299/2-web-app-spogs/core"
)

var (
	estimatedTimeTag  = "minutes"
	estimatedTimeText = "estimated time must be a non-negative number of minutes"

	priorityTag  = "priority"
	priorityText = "priority must be 1 (low), 2 (medium) or 3 (high)"

	isoDateText = "enter a valid date (YYYY-MM-DD)"
)

// InitValidators registers the assignment validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(newAssignmentValidation, NewAssignment{})
	validate.RegisterStructValidation(updateAssignmentValidation, UpdateAssignment{})

	core.RegisterCustomTranslation(validate, translator, estimatedTimeTag, estimatedTimeText)
	core.RegisterCustomTranslation(validate, translator, priorityTag, priorityText)
}

func newAssignmentValidation(sl validator.StructLevel) {
	na, ok := sl.Current().Interface().(NewAssignment)
	if !ok {
		return
	}
	validatePriority(sl, &na.Priority, true)
	validateMinutes(sl, na.EstimatedMinutes)
}

func updateAssignmentValidation(sl validator.StructLevel) {
	ua, ok := sl.Current().Interface().(UpdateAssignment)
	if !ok {
		return
	}
	validatePriority(sl, ua.Priority, false)
	validateMinutes(sl, ua.EstimatedMinutes)
}

// validatePriority reports a priority outside 1-3; zero is allowed on creation and means default.
func validatePriority(sl validator.StructLevel, p *int, zeroOK bool) {
	if p == nil || (zeroOK && *p == 0) {
		return
	}
	if *p < PriorityLow || *p > PriorityHigh {
		sl.ReportError(*p, "priority", "Priority", priorityTag, "")
	}
}

func validateMinutes(sl validator.StructLevel, mins *int) {
	if mins != nil && *mins < 0 {
		sl.ReportError(*mins, "estimated_time", "EstimatedMinutes", estimatedTimeTag, "")
	}
}
