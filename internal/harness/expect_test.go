package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/mytoken/internal/chain"
	"github.com/roach88/mytoken/internal/contract"
)

func TestExpectAssert(t *testing.T) {
	assertion := &chain.RuntimeError{
		Code:    chain.ErrCodeAssertion,
		Message: "assertion failure with message: overdrawn balance",
		Err:     &contract.AssertError{Message: "overdrawn balance"},
	}

	assert.NoError(t, ExpectAssert(assertion))
	assert.ErrorContains(t, ExpectAssert(nil), "transaction succeeded")
	assert.ErrorContains(t, ExpectAssert(errors.New("disk full")), "got: disk full")

	assert.NoError(t, ExpectAssertMessage(assertion, "overdrawn balance"))
	assert.ErrorContains(t, ExpectAssertMessage(assertion, "no balance object found"),
		`expected assertion "no balance object found", got "overdrawn balance"`)
}
