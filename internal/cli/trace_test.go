package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func traceJSON(t *testing.T, args ...string) TraceResult {
	t.Helper()
	out, err := execute(t, append([]string{"trace", "--format", "json"}, args...)...)
	require.NoError(t, err)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp.Data
}

func TestTraceIssueForwardsTransfer(t *testing.T) {
	db := recordChain(t, "issue-to-other")
	result := traceJSON(t, "--db", db)

	require.NotEmpty(t, result.Transactions)
	issueTx := result.Transactions[len(result.Transactions)-1]
	assert.Equal(t, "executed", issueTx.Status)
	require.NotEmpty(t, issueTx.Traces)

	issue := issueTx.Traces[0]
	assert.Equal(t, "issue", issue.Action)
	assert.Equal(t, 0, issue.Depth)

	var transfer *TraceLine
	for i := range issueTx.Traces {
		tr := &issueTx.Traces[i]
		if tr.Action == "transfer" && tr.Receiver == tr.Account {
			transfer = tr
		}
	}
	require.NotNil(t, transfer, "issue should forward a transfer")
	assert.Equal(t, 1, transfer.Depth)
	assert.Equal(t, issue.Ordinal, transfer.Creator)
	assert.Equal(t, []string{"alice@active"}, transfer.Authorization)
	assert.Equal(t, "bob", transfer.Data["to"])
	assert.Equal(t, "100.0000 SYS", transfer.Data["quantity"])
	assert.Positive(t, result.Stats.Notifications)
	assert.Positive(t, result.Stats.Inline)
}

func TestTraceSingleTransaction(t *testing.T) {
	db := recordChain(t, "issue-to-other")
	all := traceJSON(t, "--db", db)
	require.NotEmpty(t, all.Transactions)
	want := all.Transactions[0]

	one := traceJSON(t, "--db", db, "--tx", want.ID)
	require.Len(t, one.Transactions, 1)
	assert.Equal(t, want, one.Transactions[0])

	_, err := execute(t, "trace", "--db", db, "--tx", "deadbeef")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestTraceReceiverFilter(t *testing.T) {
	db := recordChain(t, "issue-to-other")
	result := traceJSON(t, "--db", db, "--receiver", "bob")

	require.NotEmpty(t, result.Transactions)
	for _, tx := range result.Transactions {
		for _, tr := range tx.Traces {
			assert.Equal(t, "bob", tr.Receiver)
		}
	}
}

func TestTraceText(t *testing.T) {
	db := recordChain(t, "issue-to-other")
	out, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "contract1::issue")
	assert.Contains(t, out, "bob <- contract1::transfer")
	assert.Contains(t, out, "notifications)")

	out, err = execute(t, "trace", "--db", db, "--receiver", "nobody")
	require.NoError(t, err)
	assert.Contains(t, out, "No transactions found.")
}

func TestTraceDatabaseErrors(t *testing.T) {
	_, err := execute(t, "trace")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--db is required")

	_, err = execute(t, "trace", "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not found")
}
