package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTestsRepositoryScenarios(t *testing.T) {
	out, err := execute(t, "test", repoScenarios)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ create-stats")
	assert.Contains(t, out, "✓ issue-negative")
	assert.Contains(t, out, "✓ issue-to-issuer")
	assert.Contains(t, out, "✓ issue-to-other")
	assert.Contains(t, out, "✓ All scenarios passed")

	out, err = execute(t, "test", repoScenarios, "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.Data.Scenarios)
	for _, sr := range resp.Data.Scenarios {
		assert.Equal(t, GoldenMatch, sr.Golden, sr.Name)
	}
}

func TestRunTestsUpdateThenMatch(t *testing.T) {
	dir := copyScenarios(t)

	out, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ issue-to-other (golden updated)")
	assert.FileExists(t, filepath.Join(dir, "golden", "issue-to-other.golden"))

	out, err = execute(t, "test", dir, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, resp.Data.Total, resp.Data.Passed)
	for _, sr := range resp.Data.Scenarios {
		assert.Equal(t, GoldenMatch, sr.Golden, sr.Name)
	}
}

func TestRunTestsGoldenMismatch(t *testing.T) {
	dir := copyScenarios(t, "issue-to-other.yaml")
	_, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)

	golden := filepath.Join(dir, "golden", "issue-to-other.golden")
	require.NoError(t, os.WriteFile(golden, []byte("{}"), 0o644))

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ issue-to-other")
	assert.Contains(t, out, "trace does not match golden file")
}

func TestRunTestsFailingScenario(t *testing.T) {
	dir := copyScenarios(t, "issue-to-issuer.yaml")
	path := filepath.Join(dir, "issue-to-issuer.yaml")
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	broken := []byte(string(src) + "  - type: balance\n    account: bob\n    symbol: SYS\n    expect: [\"1.0000 SYS\"]\n")
	require.NoError(t, os.WriteFile(path, broken, 0o644))

	out, err := execute(t, "test", path, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestRunTestsFilter(t *testing.T) {
	out, err := execute(t, "test", repoScenarios, "--filter", "issue-*")
	require.NoError(t, err)
	assert.Contains(t, out, "issue-to-other")
	assert.NotContains(t, out, "create-stats")
	assert.Contains(t, out, "3 total")

	out, err = execute(t, "test", repoScenarios, "--filter", "nothing-*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestRunTestsKeepsDatabases(t *testing.T) {
	dir := copyScenarios(t, "issue-to-other.yaml", "create-stats.yaml")
	dbDir := filepath.Join(t.TempDir(), "chains")

	_, err := execute(t, "test", dir, "--db", dbDir, "--parallel", "1")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dbDir, "issue-to-other.db"))
	assert.FileExists(t, filepath.Join(dbDir, "create-stats.db"))

	// A second run replaces the databases rather than appending to them.
	_, err = execute(t, "test", dir, "--db", dbDir)
	require.NoError(t, err)
}

func TestRunTestsMetrics(t *testing.T) {
	out, err := execute(t, "test", repoScenarios, "--metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "mytoken_chain_transactions_total")
	assert.Contains(t, out, "mytoken_chain_assertion_failures_total")
}

func TestRunTestsCommandErrors(t *testing.T) {
	_, err := execute(t, "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios not found")

	_, err = execute(t, "test", repoScenarios, "--parallel", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "test")
	require.Error(t, err)
}

func TestFindScenarioFilesSkipsGolden(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0o755))
	for _, name := range []string{"a.yaml", "b.yml", "notes.txt", "golden/a.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yml")}, files)

	_, err = findScenarioFiles(dir, "[")
	assert.ErrorContains(t, err, "invalid filter pattern")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "issue-to-other.golden"),
		goldenFilePath(filepath.Join("scenarios", "issue-to-other.yaml")))
}
