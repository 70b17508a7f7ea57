package validation

import (
	"net/mail"
	"strings"
)

// Violations maps field name to a short violation code, surfaced inline
// per field at the form-submission boundary.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func Email(field, value string, v Violations) {
	if value == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		v[field] = "invalid_email"
	}
}

func MinInt(field string, val, minVal int, v Violations) {
	if val < minVal {
		v[field] = "below_minimum"
	}
}

func NonNegative(field string, val float64, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

// Percent flags values outside 0..100.
func Percent(field string, val float64, v Violations) {
	if val < 0 || val > 100 {
		v[field] = "out_of_range"
	}
}
