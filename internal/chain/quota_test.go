package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaEnforcerWithinLimit(t *testing.T) {
	q := NewQuotaEnforcer(10)
	for i := 0; i < 10; i++ {
		assert.NoError(t, q.Check(), "action %d should be allowed", i+1)
	}
	assert.Equal(t, 10, q.Current())
	assert.Equal(t, 10, q.MaxActions())
}

func TestQuotaEnforcerExceedsLimit(t *testing.T) {
	q := NewQuotaEnforcer(2)
	require.NoError(t, q.Check())
	require.NoError(t, q.Check())

	err := q.Check()
	require.Error(t, err)
	assert.Equal(t, ErrCodeQuotaExceeded, ErrorCode(err))
	assert.Contains(t, err.Error(), "3 actions > 2 limit")
}
