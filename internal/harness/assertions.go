package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/mytoken/internal/ir"
	"github.com/roach88/mytoken/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d.%d] %s <- %s::%s %v\n",
				ev.Step, ev.Ordinal, ev.Receiver, ev.Account, ev.Action, ev.Data)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages.
func EvaluateAssertions(ctx context.Context, h *Harness, contract *Contract, result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertCurrencyStats:
			err = assertCurrencyStats(ctx, h, contract, a)
		case AssertBalance:
			err = assertBalance(ctx, h, contract, a)
		case AssertBalanceEmpty:
			err = assertBalanceEmpty(ctx, h, contract, a)
		case AssertTableRow:
			err = assertTableRow(ctx, h, contract, a)
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func assertCurrencyStats(ctx context.Context, h *Harness, contract *Contract, a Assertion) error {
	stats, err := h.GetCurrencyStats(ctx, contract.Name, a.Symbol)
	if err != nil {
		return err
	}
	row, ok := stats[a.Symbol]
	if !ok {
		return &AssertionError{
			Type:     AssertCurrencyStats,
			Expected: fmt.Sprintf("stats for %s", a.Symbol),
			Actual:   "token does not exist",
		}
	}

	actual := map[string]any{
		"supply":     row.Supply,
		"max_supply": row.MaxSupply,
		"issuer":     row.Issuer,
	}
	expect, _ := a.Expect.(map[string]any)
	if !matchSubset(actual, expect) {
		return &AssertionError{
			Type:     AssertCurrencyStats,
			Expected: fmt.Sprintf("%v", expect),
			Actual:   fmt.Sprintf("%v", actual),
		}
	}
	return nil
}

func balanceOf(ctx context.Context, h *Harness, contract *Contract, a Assertion) ([]string, error) {
	owner, err := ir.ParseName(a.Account)
	if err != nil {
		return nil, err
	}
	return h.chain.GetCurrencyBalance(ctx, contract.Name, owner, a.Symbol)
}

func assertBalance(ctx context.Context, h *Harness, contract *Contract, a Assertion) error {
	got, err := balanceOf(ctx, h, contract, a)
	if err != nil {
		return err
	}
	items, _ := a.Expect.([]any)
	want := make([]string, len(items))
	for i, v := range items {
		want[i] = fmt.Sprint(v)
	}
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     AssertBalance,
			Expected: fmt.Sprintf("%s balance %q", a.Account, want),
			Actual:   fmt.Sprintf("%q", got),
		}
	}
	return nil
}

func assertBalanceEmpty(ctx context.Context, h *Harness, contract *Contract, a Assertion) error {
	got, err := balanceOf(ctx, h, contract, a)
	if err != nil {
		return err
	}
	if len(got) != 0 {
		return &AssertionError{
			Type:     AssertBalanceEmpty,
			Expected: fmt.Sprintf("no %s balance for %s", a.Symbol, a.Account),
			Actual:   fmt.Sprintf("%q", got),
		}
	}
	return nil
}

func assertTableRow(ctx context.Context, h *Harness, contract *Contract, a Assertion) error {
	scope, err := ir.ParseName(a.Scope)
	if err != nil {
		return err
	}
	table, err := ir.ParseName(a.Table)
	if err != nil {
		return err
	}
	key, err := parseRowKey(a.Key)
	if err != nil {
		return err
	}

	ref := store.TableRef{Code: contract.Name, Scope: scope, Table: table}
	row, ok, err := h.store.FindRow(ctx, ref, key)
	if err != nil {
		return err
	}
	if !ok {
		return &AssertionError{
			Type:     AssertTableRow,
			Expected: fmt.Sprintf("row %s in %s", a.Key, ref),
			Actual:   "no such row",
		}
	}

	var actual map[string]any
	if err := json.Unmarshal(row.Value, &actual); err != nil {
		return fmt.Errorf("decode %s row: %w", ref, err)
	}
	expect, _ := a.Expect.(map[string]any)
	if !matchSubset(actual, expect) {
		return &AssertionError{
			Type:     AssertTableRow,
			Expected: fmt.Sprintf("%v", expect),
			Actual:   fmt.Sprintf("%v", actual),
		}
	}
	return nil
}

// parseRowKey reads a primary key written as a number, an uppercase
// symbol code or a name.
func parseRowKey(s string) (uint64, error) {
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n, nil
	}
	if strings.IndexFunc(s, unicode.IsLower) < 0 {
		code, err := ir.ParseSymbolCode(s)
		if err != nil {
			return 0, fmt.Errorf("key %q: %w", s, err)
		}
		return uint64(code), nil
	}
	n, err := ir.ParseName(s)
	if err != nil {
		return 0, fmt.Errorf("key %q: %w", s, err)
	}
	return uint64(n), nil
}

// matchesReceiver applies an assertion's receiver filter. Without one only
// the action's own execution matches, not its notifications.
func matchesReceiver(ev TraceEvent, receiver string) bool {
	if receiver == "" {
		return !ev.IsNotification()
	}
	return ev.Receiver == receiver
}

// assertTraceContains checks if the trace contains an action matching the
// specified name and args (subset match).
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Action == a.Action && matchesReceiver(ev, a.Receiver) && matchSubset(ir.ToGo(ev.Data), a.Args) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("action %s with args %v", a.Action, a.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first occurrences of the actions appear
// in the given order. Other actions may come in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if ev.IsNotification() {
			continue
		}
		if _, seen := positions[ev.Action]; !seen && slices.Contains(a.Actions, ev.Action) {
			positions[ev.Action] = i + 1
		}
	}

	for _, action := range a.Actions {
		if positions[action] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", a.Actions),
				Actual:   fmt.Sprintf("missing action: %s", action),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Actions); i++ {
		prev, curr := a.Actions[i-1], a.Actions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", a.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that exactly Count traces match.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Action == a.Action && matchesReceiver(ev, a.Receiver) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// matchSubset reports whether every key of expected is in actual with an
// equal value. Values are compared by their printed form so that YAML
// ints match decoded int64s.
func matchSubset(actual any, expected map[string]any) bool {
	if len(expected) == 0 {
		return true
	}
	m, ok := actual.(map[string]any)
	if !ok {
		return false
	}
	for k, want := range expected {
		got, present := m[k]
		if !present {
			return false
		}
		if sub, isMap := want.(map[string]any); isMap {
			if !matchSubset(got, sub) {
				return false
			}
			continue
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
