package schema

import (
	"fmt"
	"strings"
)

// Reason classifies a validation failure.
type Reason string

const (
	// ReasonUnauthorized is a reserved key written by a non-admin tier.
	ReasonUnauthorized Reason = "UNAUTHORIZED_ATTRIBUTE"

	// ReasonTypeMismatch is a value whose kind disagrees with the schema.
	ReasonTypeMismatch Reason = "TYPE_MISMATCH"

	// ReasonDisallowedValue is a value outside the allowed enumeration.
	ReasonDisallowedValue Reason = "DISALLOWED_VALUE"

	// ReasonRequiredMissing is a required attribute absent with no default.
	ReasonRequiredMissing Reason = "REQUIRED_ATTRIBUTE_MISSING"

	// ReasonMultiplicity is a list submitted where the schema forbids one.
	ReasonMultiplicity Reason = "MULTIPLICITY_VIOLATION"
)

// ValidationError is one validation failure, keyed by the attribute it
// concerns.
type ValidationError struct {
	Key     string `json:"key"`
	Message string `json:"error"`
	Reason  Reason `json:"-"`
}

func (e ValidationError) Error() string {
	if e.Key == "" {
		return e.Message
	}
	return e.Key + ": " + e.Message
}

// Errors is the exhaustive list of failures from one validation pass.
// Validation never fails fast; every problem is reported at once.
type Errors []ValidationError

func (e Errors) Error() string {
	if len(e) == 1 {
		return "facet: validation failed: " + e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("facet: validation failed (%d errors): %s", len(e), strings.Join(msgs, "; "))
}

// HasReason reports whether any error carries the reason.
func (e Errors) HasReason(r Reason) bool {
	for _, err := range e {
		if err.Reason == r {
			return true
		}
	}
	return false
}

// ForKey returns the errors concerning one attribute key.
func (e Errors) ForKey(key string) Errors {
	var out Errors
	for _, err := range e {
		if err.Key == key {
			out = append(out, err)
		}
	}
	return out
}
