package cli

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/mytoken/internal/chain"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Metrics  bool
}

// ReplayOutput holds the replay result.
type ReplayOutput struct {
	Transactions  int              `json:"transactions"`
	Deterministic bool             `json:"deterministic"`
	Mismatches    []chain.Mismatch `json:"mismatches"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the transaction log and verify determinism",
		Long: `Re-execute every logged transaction on a fresh in-memory chain with
the same genesis key and compare transaction IDs, block numbers and
trace digests with the log.

Exit codes:
  0 - Every transaction replayed identically
  1 - One or more mismatches
  2 - Command error (database not found, etc.)

Examples:
  mytoken replay --db ./out/issue-to-other.db
  mytoken replay --db ./out/issue-to-other.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	dbFlag(cmd, &opts.Database)
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print replay metrics in Prometheus text format")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	st, err := openStore(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	reg, err := defaultRegistry()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to register contracts", err)
	}
	promReg := prometheus.NewRegistry()

	res, err := chain.ReplayStore(ctx, st,
		chain.WithLogger(opts.logger()),
		chain.WithRegistry(reg),
		chain.WithMetrics(chain.NewMetrics(promReg)))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to replay", err)
	}

	out := ReplayOutput{
		Transactions:  res.Transactions,
		Deterministic: res.OK(),
		Mismatches:    res.Mismatches,
	}
	if out.Mismatches == nil {
		out.Mismatches = []chain.Mismatch{}
	}

	text := func(w io.Writer) {
		fmt.Fprintf(w, "Replayed %d transaction(s)\n", out.Transactions)
		for _, m := range out.Mismatches {
			fmt.Fprintf(w, "✗ block %d tx %s: %s\n", m.BlockNum, m.TxID, m.Reason)
		}
		if out.Deterministic {
			fmt.Fprintln(w, "✓ All transactions replayed deterministically")
		}
		if opts.Metrics {
			if err := writeMetrics(w, promReg); err != nil {
				fmt.Fprintf(w, "metrics: %v\n", err)
			}
		}
	}
	if !out.Deterministic {
		return formatter.Failure(ExitFailure, ErrCodeReplayMismatch,
			fmt.Sprintf("%d transaction(s) replayed differently", len(out.Mismatches)), out, text)
	}
	return formatter.Success(out, text)
}
