package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayDeterministic(t *testing.T) {
	for _, scenario := range []string{"issue-to-other", "issue-negative", "transfer-from"} {
		t.Run(scenario, func(t *testing.T) {
			db := recordChain(t, scenario)

			out, err := execute(t, "replay", "--db", db, "--format", "json")
			require.NoError(t, err)

			var resp struct {
				Status string       `json:"status"`
				Data   ReplayOutput `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "ok", resp.Status)
			assert.True(t, resp.Data.Deterministic)
			assert.Positive(t, resp.Data.Transactions)
			assert.Empty(t, resp.Data.Mismatches)
		})
	}
}

func TestReplayText(t *testing.T) {
	db := recordChain(t, "issue-to-issuer")

	out, err := execute(t, "replay", "--db", db, "--metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All transactions replayed deterministically")
	assert.Contains(t, out, "mytoken_chain_transactions_total")
}
