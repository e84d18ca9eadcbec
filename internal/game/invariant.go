package game

import (
	"errors"
	"fmt"
)

// ErrInvariant marks a broken engine assumption, as opposed to a rejected
// command.
var ErrInvariant = errors.New("engine invariant violated")

// InvariantViolation is raised (as a panic) from command handling when state
// that validation just checked turns out to be wrong. The engine recovers it
// and reports it as an error.
type InvariantViolation struct {
	Message string
}

func (v *InvariantViolation) Error() string {
	return "invariant violation: " + v.Message
}

func (v *InvariantViolation) Unwrap() error {
	return ErrInvariant
}

func invariantf(format string, args ...any) {
	panic(&InvariantViolation{Message: fmt.Sprintf(format, args...)})
}
