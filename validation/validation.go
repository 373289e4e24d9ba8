// Package validation collects field-level violations into a map and can
// flatten them into a single user-facing sentence.
package validation

import (
	"sort"
	"strings"
)

// Violations maps a field label to a human-readable problem description.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Sentence concatenates all violations into one sentence, ordered by field
// label so the output is stable.
func (v Violations) Sentence() string {
	if len(v) == 0 {
		return ""
	}
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+" "+v[f])
	}
	return strings.Join(parts, ", ") + "."
}

// Required flags a blank string value.
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "can't be blank"
	}
}

// PositiveFloat flags a non-positive float value.
func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must be positive"
	}
}

// PositiveCents flags a non-positive minor-currency amount.
func PositiveCents(field string, cents int64, v Violations) {
	if cents <= 0 {
		v[field] = "must be positive"
	}
}

// NonNegativeCents flags a negative minor-currency amount.
func NonNegativeCents(field string, cents int64, v Violations) {
	if cents < 0 {
		v[field] = "can't be negative"
	}
}

// RequiredID flags a missing reference id.
func RequiredID(field string, id uint, v Violations) {
	if id == 0 {
		v[field] = "is required"
	}
}

// MaxLen flags a string longer than max characters.
func MaxLen(field, value string, max int, v Violations) {
	if len(value) > max {
		v[field] = "is too long"
	}
}
