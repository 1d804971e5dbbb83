package harness

import (
	"fmt"

	"github.com/roach88/mytoken/internal/chain"
)

// ExpectAssert returns nil when err is a contract assertion failure and a
// descriptive error otherwise, including when err is nil.
func ExpectAssert(err error) error {
	if err == nil {
		return fmt.Errorf("expected an assertion failure, but the transaction succeeded")
	}
	if !chain.IsAssertion(err) {
		return fmt.Errorf("expected an assertion failure, got: %w", err)
	}
	return nil
}

// ExpectAssertMessage is ExpectAssert that also requires the contract's
// message to be msg.
func ExpectAssertMessage(err error, msg string) error {
	if err := ExpectAssert(err); err != nil {
		return err
	}
	got, _ := chain.AssertionMessage(err)
	if got != msg {
		return fmt.Errorf("expected assertion %q, got %q", msg, got)
	}
	return nil
}
