package harness

import "github.com/roach88/mytoken/internal/ir"

// TraceEvent is one action trace of a committed step.
type TraceEvent struct {
	Step          int         `json:"step"`
	Block         int64       `json:"block"`
	Ordinal       int         `json:"ordinal"`
	Creator       int         `json:"creator"`
	Depth         int         `json:"depth"`
	Receiver      string      `json:"receiver"`
	Account       string      `json:"account"`
	Action        string      `json:"action"`
	Authorization []string    `json:"authorization"`
	Data          ir.IRObject `json:"data"`
}

// IsNotification reports whether the event is a delivery to a notified
// account rather than the action's own execution.
func (e TraceEvent) IsNotification() bool { return e.Receiver != e.Account }

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Step    int    `json:"step"`
	Action  string `json:"action"`
	Outcome string `json:"outcome"`
	Message string `json:"message,omitempty"`
	TxID    string `json:"tx_id,omitempty"`
	Block   int64  `json:"block,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every step had its expected outcome and every
	// assertion held.
	Pass bool `json:"pass"`

	// Steps has one entry per scenario step.
	Steps []StepResult `json:"steps"`

	// Trace holds the action traces of all committed steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddReceipt appends the traces of a committed step.
func (r *Result) AddReceipt(step int, receipt ir.TransactionReceipt) {
	for _, tr := range receipt.ActionTraces {
		auth := make([]string, len(tr.Authorization))
		for i, level := range tr.Authorization {
			auth[i] = level.String()
		}
		r.Trace = append(r.Trace, TraceEvent{
			Step:          step,
			Block:         receipt.BlockNum,
			Ordinal:       tr.Ordinal,
			Creator:       tr.CreatorOrdinal,
			Depth:         tr.Depth,
			Receiver:      tr.Receiver.String(),
			Account:       tr.Account.String(),
			Action:        tr.Name.String(),
			Authorization: auth,
			Data:          tr.Data,
		})
	}
}
