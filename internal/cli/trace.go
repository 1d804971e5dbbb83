package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mytoken/internal/ir"
	"github.com/roach88/mytoken/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	TxID     string // optional - a single transaction
	Receiver string // optional - only traces delivered to this account
}

// TraceLine is one action trace.
type TraceLine struct {
	Ordinal       int            `json:"ordinal"`
	Creator       int            `json:"creator"`
	Depth         int            `json:"depth"`
	Receiver      string         `json:"receiver"`
	Account       string         `json:"account"`
	Action        string         `json:"action"`
	Authorization []string       `json:"authorization"`
	Data          map[string]any `json:"data"`
}

// TraceTransaction is one logged transaction with its traces.
type TraceTransaction struct {
	ID          string      `json:"id"`
	Block       int64       `json:"block"`
	Status      string      `json:"status"`
	Nonce       int64       `json:"nonce"`
	TraceDigest string      `json:"trace_digest"`
	Traces      []TraceLine `json:"traces"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Transactions []TraceTransaction `json:"transactions"`
	Stats        TraceStats         `json:"stats"`
}

// TraceStats holds summary statistics for the output.
type TraceStats struct {
	Transactions  int `json:"transactions"`
	Actions       int `json:"actions"`
	Inline        int `json:"inline"`
	Notifications int `json:"notifications"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print stored transactions and their action traces",
		Long: `Print the transaction log of a chain database.

Each action trace shows its ordinal, the ordinal of the action that
created it and its inline depth, so the execution tree of issue and
its forwarded transfer can be read off directly.

Examples:
  mytoken trace --db ./out/issue-to-other.db
  mytoken trace --db ./out/issue-to-other.db --tx 3f2a...
  mytoken trace --db ./out/issue-to-other.db --receiver alice --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	dbFlag(cmd, &opts.Database)
	cmd.Flags().StringVar(&opts.TxID, "tx", "", "show a single transaction")
	cmd.Flags().StringVar(&opts.Receiver, "receiver", "", "only show traces delivered to this account")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	st, err := openStore(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var entries []store.LogEntry
	if opts.TxID != "" {
		e, err := st.ReadTransaction(ctx, opts.TxID)
		if err != nil {
			return formatter.Failure(ExitFailure, ErrCodeNotFound,
				fmt.Sprintf("transaction not found: %s", opts.TxID), nil, func(w io.Writer) {
					fmt.Fprintf(w, "Transaction not found: %s\n", opts.TxID)
				})
		}
		entries = []store.LogEntry{e}
	} else {
		entries, err = st.ReadLog(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read log", err)
		}
	}

	result := buildTrace(entries, opts.Receiver)
	return formatter.Success(result, func(w io.Writer) {
		writeTraceText(w, result)
	})
}

func buildTrace(entries []store.LogEntry, receiver string) TraceResult {
	result := TraceResult{Transactions: make([]TraceTransaction, 0, len(entries))}
	for _, e := range entries {
		tx := TraceTransaction{
			ID:          e.Receipt.ID,
			Block:       e.Receipt.BlockNum,
			Status:      e.Receipt.Status,
			Nonce:       e.Transaction.Nonce,
			TraceDigest: e.TraceDigest,
			Traces:      []TraceLine{},
		}
		for _, tr := range e.Receipt.ActionTraces {
			if receiver != "" && tr.Receiver.String() != receiver {
				continue
			}
			tx.Traces = append(tx.Traces, traceLine(tr))

			result.Stats.Actions++
			switch {
			case tr.IsNotification():
				result.Stats.Notifications++
			case tr.Depth > 0:
				result.Stats.Inline++
			}
		}
		if receiver != "" && len(tx.Traces) == 0 {
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	result.Stats.Transactions = len(result.Transactions)
	return result
}

func traceLine(tr ir.ActionTrace) TraceLine {
	auth := make([]string, len(tr.Authorization))
	for i, level := range tr.Authorization {
		auth[i] = level.String()
	}
	data, _ := ir.ToGo(tr.Data).(map[string]any)
	if data == nil {
		data = map[string]any{}
	}
	return TraceLine{
		Ordinal:       tr.Ordinal,
		Creator:       tr.CreatorOrdinal,
		Depth:         tr.Depth,
		Receiver:      tr.Receiver.String(),
		Account:       tr.Account.String(),
		Action:        tr.Name.String(),
		Authorization: auth,
		Data:          data,
	}
}

func writeTraceText(w io.Writer, result TraceResult) {
	if len(result.Transactions) == 0 {
		fmt.Fprintln(w, "No transactions found.")
		return
	}
	for _, tx := range result.Transactions {
		fmt.Fprintf(w, "block %d  tx %s  %s\n", tx.Block, tx.ID, tx.Status)
		for _, tr := range tx.Traces {
			indent := strings.Repeat("  ", tr.Depth+1)
			target := tr.Account + "::" + tr.Action
			if tr.Receiver != tr.Account {
				target = tr.Receiver + " <- " + target
			}
			fmt.Fprintf(w, "%s#%d %s [%s] %v\n", indent, tr.Ordinal, target,
				strings.Join(tr.Authorization, ","), tr.Data)
		}
	}
	fmt.Fprintf(w, "\n%d transactions, %d actions (%d inline, %d notifications)\n",
		result.Stats.Transactions, result.Stats.Actions, result.Stats.Inline, result.Stats.Notifications)
}
