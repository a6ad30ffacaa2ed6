package tunnelconfig

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is wrapped by every *ValidationError.
var ErrValidation = errors.New("tunnelconfig: invalid configuration")

// FieldError describes a single rejected field. Values are never echoed back
// because they may be key material. Index is set for list entries only.
type FieldError struct {
	Field  string `json:"field"`
	Index  *int   `json:"index,omitempty"`
	Reason string `json:"reason"`
}

func (e FieldError) String() string {
	if e.Index != nil {
		return fmt.Sprintf("%s[%d]: %s", e.Field, *e.Index, e.Reason)
	}
	return e.Field + ": " + e.Reason
}

// ValidationError lists every problem found by New.
type ValidationError struct {
	Problems []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.String()
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// HasField reports whether any problem concerns the named field.
func (e *ValidationError) HasField(field string) bool {
	for _, p := range e.Problems {
		if p.Field == field {
			return true
		}
	}
	return false
}
