package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mytoken/internal/chain"
	"github.com/roach88/mytoken/internal/contract"
	"github.com/roach88/mytoken/internal/contract/token"
	"github.com/roach88/mytoken/internal/store"
)

// dbFlag registers --db, defaulting to the configured database.
func dbFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "db", "", "path to SQLite database (default from config)")
}

// openStore opens an existing chain database. Unlike store.Open it never
// creates a new file.
func openStore(opts *RootOptions, path string) (*store.Store, error) {
	if path == "" {
		path = opts.config().Database
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "--db is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// openChain opens the chain held by st with the token contracts
// registered.
func openChain(ctx context.Context, opts *RootOptions, st *store.Store, extra ...chain.Option) (*chain.Chain, error) {
	reg, err := defaultRegistry()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to register contracts", err)
	}
	copts := append([]chain.Option{
		chain.WithLogger(opts.logger()),
		chain.WithRegistry(reg),
	}, extra...)

	c, err := chain.Open(ctx, st, copts...)
	if errors.Is(err, store.ErrNotFound) {
		return nil, WrapExitError(ExitCommandError, "database holds no chain", err)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open chain", err)
	}
	return c, nil
}

func defaultRegistry() (*contract.Registry, error) {
	reg := contract.NewRegistry()
	if err := token.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
