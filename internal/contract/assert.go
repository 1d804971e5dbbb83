package contract

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAction is returned when a contract has no handler for an action.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidArgs is returned when action data does not fit the handler's
	// argument struct.
	ErrInvalidArgs = errors.New("invalid action arguments")
)

// AssertError is a failed contract check. Any AssertError aborts the
// transaction.
type AssertError struct {
	Message string
}

func (e *AssertError) Error() string {
	return "assertion failure with message: " + e.Message
}

// Check returns an AssertError carrying msg when cond is false.
func Check(cond bool, msg string) error {
	if cond {
		return nil
	}
	return &AssertError{Message: msg}
}

// Assertf builds an AssertError from a format string.
func Assertf(format string, args ...any) error {
	return &AssertError{Message: fmt.Sprintf(format, args...)}
}

// AsAssert extracts an AssertError from err's chain.
func AsAssert(err error) (*AssertError, bool) {
	var ae *AssertError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
