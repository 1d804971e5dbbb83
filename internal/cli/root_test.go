package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "mytoken", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"test"}, {"validate"}, {"trace"}, {"replay"},
		{"query"}, {"query", "stats"}, {"query", "balance"}, {"query", "accounts"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "validate", "x.abi", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "validate", "x.abi", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestConfigSuppliesDatabase(t *testing.T) {
	db := recordChain(t, "issue-to-issuer")
	cfg := filepath.Join(t.TempDir(), "mytoken.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("db: "+db+"\n"), 0o644))

	out, err := execute(t, "query", "balance", "alice", "--code", "contract1", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "100.0000 SYS\n", out)
}
