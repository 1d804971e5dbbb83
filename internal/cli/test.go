package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/mytoken/internal/chain"
	"github.com/roach88/mytoken/internal/compiler"
	"github.com/roach88/mytoken/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update   bool   // regenerate golden files
	Filter   string // scenario filter (glob pattern)
	Parallel int    // concurrently running scenarios
	DBDir    string // keep each scenario's chain in DBDir/<name>.db
	Metrics  bool   // print chain counters after the summary
}

// Golden file states reported per scenario.
const (
	GoldenMatch   = "match"
	GoldenUpdated = "updated"
	GoldenMissing = "missing"
	GoldenDiffers = "differs"
)

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir|scenario-file>",
		Short: "Run contract test scenarios",
		Long: `Run YAML test scenarios, each on its own fresh chain.

Every scenario deploys its contract, pushes its steps and checks its
assertions. When <dir>/golden/<name>.golden exists, the run's canonical
trace must match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  mytoken test ./scenarios
  mytoken test ./scenarios --filter "issue-*"
  mytoken test ./scenarios --update
  mytoken test ./scenarios --parallel 8 --metrics
  mytoken test ./scenarios/issue-to-other.yaml --db ./out`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("parallel") {
				opts.Parallel = opts.config().Parallel
			}
			return runTests(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", 4, "number of scenarios run at once")
	cmd.Flags().StringVar(&opts.DBDir, "db", "", "directory to keep each scenario's chain database in")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print chain metrics in Prometheus text format")

	return cmd
}

func runTests(ctx context.Context, opts *TestOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	if opts.Parallel <= 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--parallel must be positive, got %d", opts.Parallel))
	}
	if _, err := os.Stat(path); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios not found: %s", path))
	}
	if opts.DBDir != "" {
		if err := os.MkdirAll(opts.DBDir, 0o755); err != nil {
			return WrapExitError(ExitCommandError, "failed to create database directory", err)
		}
	}

	files, err := findScenarioFiles(path, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := TestResult{Scenarios: make([]ScenarioResult, len(files)), Total: len(files)}
	if len(files) == 0 {
		return formatter.Success(result, func(w io.Writer) {
			fmt.Fprintln(w, "No scenarios found.")
		})
	}

	abis, err := compiler.NewCache(opts.config().ABICacheSize)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create ABI cache", err)
	}
	defer abis.Close()

	reg := prometheus.NewRegistry()
	metrics := chain.NewMetrics(reg)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallel)
	for i, file := range files {
		g.Go(func() error {
			result.Scenarios[i] = runScenario(gctx, opts, file, abis, metrics)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return WrapExitError(ExitCommandError, "test run aborted", err)
	}

	for _, sr := range result.Scenarios {
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	text := func(w io.Writer) {
		writeTestText(w, result)
		if opts.Metrics {
			if err := writeMetrics(w, reg); err != nil {
				fmt.Fprintf(w, "metrics: %v\n", err)
			}
		}
	}
	if result.Failed > 0 {
		return formatter.Failure(ExitFailure, ErrCodeTestFailed,
			fmt.Sprintf("%d scenario(s) failed", result.Failed), result, text)
	}
	return formatter.Success(result, text)
}

// findScenarioFiles returns path itself when it is a file, or every YAML
// file below it outside golden directories.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(p), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, p)
		return nil
	})
	return files, err
}

// runScenario loads, runs and golden-checks one scenario file.
func runScenario(ctx context.Context, opts *TestOptions, file string, abis *compiler.Cache, metrics *chain.Metrics) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file), File: file}
	fail := func(format string, args ...any) ScenarioResult {
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf(format, args...))
		return sr
	}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return fail("failed to load scenario: %v", err)
	}
	sr.Name = scenario.Name

	cfg := opts.config()
	chainOpts := []chain.Option{chain.WithMetrics(metrics)}
	if cfg.MaxActions > 0 {
		chainOpts = append(chainOpts, chain.WithMaxActions(cfg.MaxActions))
	}
	if cfg.MaxInlineDepth > 0 {
		chainOpts = append(chainOpts, chain.WithMaxInlineDepth(cfg.MaxInlineDepth))
	}
	hopts := []harness.Option{
		harness.WithLogger(opts.logger().With("scenario", scenario.Name)),
		harness.WithABICache(abis),
		harness.WithChainOptions(chainOpts...),
	}
	if opts.DBDir != "" {
		dbPath := filepath.Join(opts.DBDir, scenario.Name+".db")
		if err := os.Remove(dbPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fail("failed to reset database: %v", err)
		}
		hopts = append(hopts, harness.WithStorePath(dbPath))
	}

	result, err := harness.Run(ctx, scenario, hopts...)
	if err != nil {
		return fail("execution failed: %v", err)
	}
	sr.Pass = result.Pass
	sr.Errors = result.Errors

	snapshot, err := harness.Snapshot(scenario.Name, result)
	if err != nil {
		return fail("failed to snapshot trace: %v", err)
	}
	goldenPath := goldenFilePath(file)

	if opts.Update {
		if err := writeGolden(goldenPath, snapshot); err != nil {
			return fail("failed to update golden file: %v", err)
		}
		sr.Golden = GoldenUpdated
		return sr
	}

	golden, err := os.ReadFile(goldenPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		sr.Golden = GoldenMissing
	case err != nil:
		return fail("failed to read golden file: %v", err)
	case bytes.Equal(golden, snapshot):
		sr.Golden = GoldenMatch
	default:
		sr.Golden = GoldenDiffers
		return fail("trace does not match golden file (run with --update to regenerate)")
	}
	return sr
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func writeTestText(w io.Writer, result TestResult) {
	for _, sr := range result.Scenarios {
		mark := "✓"
		if !sr.Pass {
			mark = "✗"
		}
		switch sr.Golden {
		case GoldenUpdated:
			fmt.Fprintf(w, "%s %s (golden updated)\n", mark, sr.Name)
		default:
			fmt.Fprintf(w, "%s %s\n", mark, sr.Name)
		}
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed == 0 {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
}

// writeMetrics writes every metric family in reg in the Prometheus text
// exposition format.
func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
