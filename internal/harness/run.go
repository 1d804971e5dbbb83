package harness

import (
	"context"
	"fmt"

	"github.com/roach88/mytoken/internal/chain"
)

// Run executes a scenario on a fresh deterministic chain and returns the
// result.
//
// Execution flow:
//  1. Create a chain (in memory unless WithStorePath is given)
//  2. Create the scenario accounts and deploy the contract
//  3. Push each step and compare its outcome with the expected one
//  4. Evaluate the assertions against the final state and the traces
//
// An error is returned only when the scenario could not be set up; failed
// steps and assertions are reported in the result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h, err := New(ctx, append([]Option{Deterministic()}, opts...)...)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	for _, name := range scenario.Accounts {
		if _, err := h.CreateAccount(ctx, name); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}
	contract, err := h.Deploy(ctx, scenario.Contract.Artifact, scenario.Contract.ABI, DeployOptions{
		Inline: scenario.Contract.Inline,
		Name:   scenario.Contract.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h.runStep(ctx, contract, i, step, result)
	}

	for _, msg := range EvaluateAssertions(ctx, h, contract, result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"steps", len(result.Steps),
		"traces", len(result.Trace))
	return result, nil
}

func (h *Harness) runStep(ctx context.Context, contract *Contract, i int, step Step, result *Result) {
	sr := StepResult{Step: i, Action: step.Action, Outcome: OutcomeOK}
	defer func() {
		result.Steps = append(result.Steps, sr)
		h.checkOutcome(i, step, sr, result)
	}()

	var opts []InvokeOption
	if step.From != "" && step.From != contract.Name.String() {
		from, err := h.Account(step.From)
		if err != nil {
			sr.Outcome, sr.Message = OutcomeError, err.Error()
			return
		}
		opts = append(opts, From(from))
	}

	receipt, err := contract.Invoke(ctx, step.Action, step.Args, opts...)
	switch {
	case err == nil:
		sr.TxID, sr.Block = receipt.ID, receipt.BlockNum
		result.AddReceipt(i, receipt)
	case chain.IsAssertion(err):
		sr.Outcome = OutcomeAssert
		sr.Message, _ = chain.AssertionMessage(err)
	default:
		sr.Outcome, sr.Message = OutcomeError, err.Error()
	}

	h.logger.Debug("step finished",
		"step", i,
		"action", step.Action,
		"outcome", sr.Outcome,
		"message", sr.Message)
}

func (h *Harness) checkOutcome(i int, step Step, sr StepResult, result *Result) {
	want := step.Expect
	if want == "" {
		want = OutcomeOK
	}
	if sr.Outcome != want {
		msg := fmt.Sprintf("steps[%d] %s: expected %s, got %s", i, step.Action, want, sr.Outcome)
		if sr.Message != "" {
			msg += ": " + sr.Message
		}
		result.AddError(msg)
		return
	}
	if step.Message != "" && sr.Message != step.Message {
		result.AddError(fmt.Sprintf("steps[%d] %s: expected assertion %q, got %q", i, step.Action, step.Message, sr.Message))
	}
}
