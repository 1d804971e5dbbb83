package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const repoScenarios = "../../scenarios"

// execute runs the root command with args and returns stdout and the
// error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// copyScenarios copies the repository scenarios into a temp directory,
// rewriting their contract paths to absolute ones, so tests can write
// golden files next to them.
func copyScenarios(t *testing.T, names ...string) string {
	t.Helper()
	root, err := filepath.Abs("../..")
	require.NoError(t, err)

	if len(names) == 0 {
		paths, err := filepath.Glob(filepath.Join(repoScenarios, "*.yaml"))
		require.NoError(t, err)
		for _, p := range paths {
			names = append(names, filepath.Base(p))
		}
	}

	dir := t.TempDir()
	for _, name := range names {
		src, err := os.ReadFile(filepath.Join(repoScenarios, name))
		require.NoError(t, err)
		s := strings.ReplaceAll(string(src), "../compiled/", filepath.Join(root, "compiled")+"/")
		s = strings.ReplaceAll(s, "../contracts/", filepath.Join(root, "contracts")+"/")
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(s), 0o644))
	}
	return dir
}

// recordChain runs one scenario with --db and returns the database path.
func recordChain(t *testing.T, scenario string) string {
	t.Helper()
	dir := copyScenarios(t, scenario+".yaml")
	dbDir := t.TempDir()
	_, err := execute(t, "test", dir, "--db", dbDir)
	require.NoError(t, err)
	return filepath.Join(dbDir, scenario+".db")
}
