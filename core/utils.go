package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// IsTruthy reports whether a form or query value means "on".
func IsTruthy(s string) bool {
	switch CleanString(s, true /* lower */) {
	case "1", "true", "on", "yes", "y":
		return true
	}
	return false
}
