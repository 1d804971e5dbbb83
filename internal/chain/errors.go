package chain

import (
	"errors"
	"fmt"

	"github.com/roach88/mytoken/internal/contract"
	"github.com/roach88/mytoken/internal/ir"
)

// RuntimeError represents a failure that aborts a transaction.
//
// RuntimeError includes structured fields for diagnostics: the receiver and
// action that failed (zero for transaction-level failures) and the
// underlying cause when there is one.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Receiver and Action identify the failing action, if any.
	Receiver ir.Name
	Action   ir.Name

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeAssertion indicates a contract check failed.
	ErrCodeAssertion RuntimeErrorCode = "ASSERTION_FAILURE"

	// ErrCodeMissingAuth indicates require_auth found no matching authorization.
	ErrCodeMissingAuth RuntimeErrorCode = "MISSING_AUTH"

	// ErrCodeUnsatisfiedAuth indicates a declared authorization is not backed
	// by a signature or, for inline actions, by eosio.code.
	ErrCodeUnsatisfiedAuth RuntimeErrorCode = "UNSATISFIED_AUTH"

	// ErrCodeUnknownAccount indicates a referenced account does not exist.
	ErrCodeUnknownAccount RuntimeErrorCode = "UNKNOWN_ACCOUNT"

	// ErrCodeUnknownCode indicates a code id with no registered contract.
	ErrCodeUnknownCode RuntimeErrorCode = "UNKNOWN_CODE"

	// ErrCodeUnknownAction indicates an action missing from the receiver's ABI.
	ErrCodeUnknownAction RuntimeErrorCode = "UNKNOWN_ACTION"

	// ErrCodeInvalidData indicates action data that does not match the ABI.
	ErrCodeInvalidData RuntimeErrorCode = "INVALID_ACTION_DATA"

	// ErrCodeQuotaExceeded indicates the transaction ran too many actions.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeDepthExceeded indicates inline actions nested too deeply.
	ErrCodeDepthExceeded RuntimeErrorCode = "DEPTH_EXCEEDED"

	// ErrCodeDuplicateTx indicates the transaction ID is already in the log.
	ErrCodeDuplicateTx RuntimeErrorCode = "DUPLICATE_TX"

	// ErrCodeTableAccess indicates a write to another contract's tables.
	ErrCodeTableAccess RuntimeErrorCode = "TABLE_ACCESS"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Receiver != 0 {
		return fmt.Sprintf("%s: %s (%s::%s)", e.Code, e.Message, e.Receiver, e.Action)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error { return e.Err }

func newError(code RuntimeErrorCode, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode returns the RuntimeErrorCode in err's chain, or "".
// Uses errors.As to handle wrapped errors.
func ErrorCode(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsAssertion returns true if err is a contract assertion failure.
func IsAssertion(err error) bool {
	return ErrorCode(err) == ErrCodeAssertion
}

// AssertionMessage returns the message the contract asserted with.
func AssertionMessage(err error) (string, bool) {
	if !IsAssertion(err) {
		return "", false
	}
	ae, ok := contract.AsAssert(err)
	if !ok {
		return "", false
	}
	return ae.Message, true
}

// classify maps an error returned by contract code to a RuntimeError
// attributed to receiver::action. Errors that are already RuntimeErrors
// pass through unchanged.
func classify(err error, receiver, action ir.Name) error {
	var re *RuntimeError
	if errors.As(err, &re) {
		if re.Receiver == 0 {
			re.Receiver, re.Action = receiver, action
		}
		return err
	}

	out := &RuntimeError{Receiver: receiver, Action: action, Err: err, Message: err.Error()}
	switch {
	case errors.As(err, new(*contract.AssertError)):
		out.Code = ErrCodeAssertion
	case errors.Is(err, contract.ErrUnknownAction):
		out.Code = ErrCodeUnknownAction
	case errors.Is(err, contract.ErrInvalidArgs):
		out.Code = ErrCodeInvalidData
	default:
		return fmt.Errorf("%s::%s: %w", receiver, action, err)
	}
	return out
}
