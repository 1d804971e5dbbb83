package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mytoken/internal/ir"
)

// Scenario is a contract test written as data: accounts to create, one
// contract to deploy, actions to push and assertions on the final state
// and the action traces.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Accounts are created, in order, before the contract is deployed.
	Accounts []string `yaml:"accounts"`

	// Contract is deployed to a fresh account after the accounts exist.
	Contract ContractSpec `yaml:"contract"`

	// Steps are pushed in order, one transaction each.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// ContractSpec names the artifact and ABI to deploy. Relative paths are
// resolved against the scenario file's directory.
type ContractSpec struct {
	Name     string `yaml:"name,omitempty"`
	Artifact string `yaml:"artifact"`
	ABI      string `yaml:"abi"`
	Inline   bool   `yaml:"inline,omitempty"`
}

// Step outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeAssert = "assert"
	// OutcomeError is recorded for failures other than assertions; a step
	// cannot expect it.
	OutcomeError = "error"
)

// Step pushes one action.
type Step struct {
	// Action is the contract action name.
	Action string `yaml:"action"`

	// From is the authorizing account. Defaults to the contract account.
	From string `yaml:"from,omitempty"`

	// Args are the action arguments in ABI field order.
	Args []any `yaml:"args"`

	// Expect is "ok" (default) or "assert".
	Expect string `yaml:"expect,omitempty"`

	// Message, with expect: assert, is the exact assertion message.
	Message string `yaml:"message,omitempty"`
}

// Assertion checks state or traces after the steps ran.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Account is the balance owner (balance, balance_empty).
	Account string `yaml:"account,omitempty"`

	// Symbol is a symbol code such as SYS (currency_stats, balance,
	// balance_empty).
	Symbol string `yaml:"symbol,omitempty"`

	// Scope, Table and Key locate a row (table_row). Key is a symbol code,
	// a name or a number.
	Scope string `yaml:"scope,omitempty"`
	Table string `yaml:"table,omitempty"`
	Key   string `yaml:"key,omitempty"`

	// Expect is a field subset (currency_stats, table_row) or a list of
	// balance strings (balance).
	Expect any `yaml:"expect,omitempty"`

	// Action and Receiver select traces (trace_contains, trace_count). An
	// empty Receiver matches only the action's own execution, not the
	// notifications it caused.
	Action   string `yaml:"action,omitempty"`
	Receiver string `yaml:"receiver,omitempty"`

	// Args is a subset of the trace's decoded data (trace_contains).
	Args map[string]any `yaml:"args,omitempty"`

	// Actions is the expected order of first occurrences (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Count is the expected number of matching traces (trace_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertCurrencyStats = "currency_stats"
	AssertBalance       = "balance"
	AssertBalanceEmpty  = "balance_empty"
	AssertTableRow      = "table_row"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	scenario.Contract.Artifact = resolve(base, scenario.Contract.Artifact)
	scenario.Contract.ABI = resolve(base, scenario.Contract.ABI)

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes a scenario without validating file paths.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches "assertion:" vs "assertions:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	accounts := make(map[string]bool)
	for i, name := range s.Accounts {
		if _, err := ir.ParseName(name); err != nil || name == "" {
			return fmt.Errorf("accounts[%d]: invalid account name %q", i, name)
		}
		if accounts[name] {
			return fmt.Errorf("accounts[%d]: duplicate account %q", i, name)
		}
		accounts[name] = true
	}

	if s.Contract.Artifact == "" {
		return fmt.Errorf("contract.artifact is required")
	}
	if s.Contract.ABI == "" {
		return fmt.Errorf("contract.abi is required")
	}
	for _, path := range []string{s.Contract.Artifact, s.Contract.ABI} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("contract file not found: %s", path)
		}
	}
	if s.Contract.Name != "" {
		if _, err := ir.ParseName(s.Contract.Name); err != nil {
			return fmt.Errorf("contract.name: %w", err)
		}
		if accounts[s.Contract.Name] {
			return fmt.Errorf("contract.name %q is also listed in accounts", s.Contract.Name)
		}
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if step.Action == "" {
			return fmt.Errorf("steps[%d]: action is required", i)
		}
		if _, err := ir.ParseName(step.Action); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if step.From != "" && !accounts[step.From] && step.From != s.Contract.Name {
			return fmt.Errorf("steps[%d]: from %q is not a scenario account", i, step.From)
		}
		switch step.Expect {
		case "", OutcomeOK:
			if step.Message != "" {
				return fmt.Errorf("steps[%d]: message requires expect: assert", i)
			}
		case OutcomeAssert:
		default:
			return fmt.Errorf("steps[%d]: expect must be %q or %q, got %q", i, OutcomeOK, OutcomeAssert, step.Expect)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertCurrencyStats:
		if a.Symbol == "" {
			return fmt.Errorf("currency_stats requires symbol")
		}
		if _, ok := a.Expect.(map[string]any); !ok {
			return fmt.Errorf("currency_stats requires an expect map")
		}
	case AssertBalance:
		if a.Account == "" || a.Symbol == "" {
			return fmt.Errorf("balance requires account and symbol")
		}
		if _, ok := a.Expect.([]any); !ok {
			return fmt.Errorf("balance requires an expect list")
		}
	case AssertBalanceEmpty:
		if a.Account == "" || a.Symbol == "" {
			return fmt.Errorf("balance_empty requires account and symbol")
		}
	case AssertTableRow:
		if a.Scope == "" || a.Table == "" || a.Key == "" {
			return fmt.Errorf("table_row requires scope, table and key")
		}
		if _, ok := a.Expect.(map[string]any); !ok {
			return fmt.Errorf("table_row requires an expect map")
		}
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("trace_contains requires action")
		}
	case AssertTraceOrder:
		if len(a.Actions) < 2 {
			return fmt.Errorf("trace_order requires at least 2 actions")
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("trace_count requires action")
		}
		if a.Count < 0 {
			return fmt.Errorf("trace_count count must be non-negative")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
