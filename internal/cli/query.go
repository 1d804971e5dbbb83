package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/mytoken/internal/ir"
)

// QueryOptions holds flags shared by the query subcommands.
type QueryOptions struct {
	*RootOptions
	Database string
	Code     string
	Symbol   string
}

// StatsOutput is the result of query stats.
type StatsOutput struct {
	Code  string                      `json:"code"`
	Stats map[string]ir.CurrencyStats `json:"stats"`
}

// BalanceOutput is the result of query balance.
type BalanceOutput struct {
	Code     string   `json:"code"`
	Account  string   `json:"account"`
	Balances []string `json:"balances"`
}

// AccountsOutput is the result of query accounts.
type AccountsOutput struct {
	Accounts []ir.Account `json:"accounts"`
}

// NewQueryCommand creates the query command and its subcommands.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read token state from a chain database",
		Long: `Read token stats, balances and accounts from a chain database, the way
a client reads them from a node.

Examples:
  mytoken query accounts --db ./out/issue-to-other.db
  mytoken query stats --db ./out/create-stats.db --code contract1 --symbol SYS
  mytoken query balance alice --db ./out/issue-to-issuer.db --code contract1`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.PersistentFlags().StringVar(&opts.Code, "code", "", "token contract account (required by stats and balance)")
	cmd.PersistentFlags().StringVar(&opts.Symbol, "symbol", "SYS", "symbol code")

	cmd.AddCommand(newQueryStatsCommand(opts))
	cmd.AddCommand(newQueryBalanceCommand(opts))
	cmd.AddCommand(newQueryAccountsCommand(opts))
	return cmd
}

// codeName parses --code.
func (o *QueryOptions) codeName() (ir.Name, error) {
	if o.Code == "" {
		return 0, NewExitError(ExitCommandError, "--code is required")
	}
	code, err := ir.ParseName(o.Code)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, "invalid --code", err)
	}
	return code, nil
}

func newQueryStatsCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Show a token's supply, maximum supply and issuer",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryStats(opts, cmd)
		},
	}
}

func newQueryBalanceCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "balance <account>",
		Short:         "Show an account's token balance",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryBalance(opts, args[0], cmd)
		},
	}
}

func newQueryAccountsCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "accounts",
		Short:         "List accounts in creation order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryAccounts(opts, cmd)
		},
	}
}

func runQueryStats(opts *QueryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	code, err := opts.codeName()
	if err != nil {
		return err
	}

	st, err := openStore(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()
	c, err := openChain(ctx, opts.RootOptions, st)
	if err != nil {
		return err
	}
	defer c.Close()

	stats, err := c.GetCurrencyStats(ctx, code, opts.Symbol)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read stats", err)
	}

	out := StatsOutput{Code: code.String(), Stats: stats}
	return opts.formatter(cmd).Success(out, func(w io.Writer) {
		if len(stats) == 0 {
			fmt.Fprintf(w, "No %s token on %s\n", opts.Symbol, code)
			return
		}
		symbols := make([]string, 0, len(stats))
		for sym := range stats {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
		for _, sym := range symbols {
			s := stats[sym]
			fmt.Fprintf(w, "%s\n  supply:     %s\n  max_supply: %s\n  issuer:     %s\n",
				sym, s.Supply, s.MaxSupply, s.Issuer)
		}
	})
}

func runQueryBalance(opts *QueryOptions, account string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	code, err := opts.codeName()
	if err != nil {
		return err
	}
	owner, err := ir.ParseName(account)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid account", err)
	}

	st, err := openStore(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()
	c, err := openChain(ctx, opts.RootOptions, st)
	if err != nil {
		return err
	}
	defer c.Close()

	balances, err := c.GetCurrencyBalance(ctx, code, owner, opts.Symbol)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read balance", err)
	}

	out := BalanceOutput{Code: code.String(), Account: owner.String(), Balances: balances}
	return opts.formatter(cmd).Success(out, func(w io.Writer) {
		if len(balances) == 0 {
			fmt.Fprintf(w, "%s holds no %s\n", owner, opts.Symbol)
			return
		}
		for _, b := range balances {
			fmt.Fprintln(w, b)
		}
	})
}

func runQueryAccounts(opts *QueryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := openStore(opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()
	c, err := openChain(ctx, opts.RootOptions, st)
	if err != nil {
		return err
	}
	defer c.Close()

	accounts, err := st.ListAccounts(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list accounts", err)
	}

	out := AccountsOutput{Accounts: accounts}
	return opts.formatter(cmd).Success(out, func(w io.Writer) {
		for _, a := range accounts {
			code := a.CodeID
			if code == "" {
				code = "-"
			}
			fmt.Fprintf(w, "%-12s creator=%-12s code=%-10s block=%d\n",
				a.Name, a.Creator, code, a.CreatedBlock)
		}
	})
}
