package genre

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every input validation failure.
	ErrValidation = errors.New("invalid tag lists")

	// ErrEmptyInput matches validation failures caused by an empty tag list.
	ErrEmptyInput = errors.New("empty tag list")
)

// ValidationError describes which tag list was rejected and why.
// Index is -1 when the failure is about the set of lists as a whole.
type ValidationError struct {
	Index  int
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%v: list %d: %s", ErrValidation, e.Index, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}
