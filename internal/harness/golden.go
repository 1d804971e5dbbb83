package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mytoken/internal/ir"
)

// Snapshot renders the steps and traces of a run as canonical JSON. Two
// runs of the same scenario with the Deterministic option produce the same
// bytes.
func Snapshot(name string, r *Result) ([]byte, error) {
	steps := make(ir.IRArray, len(r.Steps))
	for i, s := range r.Steps {
		obj := ir.IRObject{
			"step":    ir.IRInt(s.Step),
			"action":  ir.IRString(s.Action),
			"outcome": ir.IRString(s.Outcome),
		}
		if s.Message != "" {
			obj["message"] = ir.IRString(s.Message)
		}
		if s.TxID != "" {
			obj["tx_id"] = ir.IRString(s.TxID)
			obj["block"] = ir.IRInt(s.Block)
		}
		steps[i] = obj
	}

	trace := make(ir.IRArray, len(r.Trace))
	for i, ev := range r.Trace {
		auth := make(ir.IRArray, len(ev.Authorization))
		for j, level := range ev.Authorization {
			auth[j] = ir.IRString(level)
		}
		data := ev.Data
		if data == nil {
			data = ir.IRObject{}
		}
		trace[i] = ir.IRObject{
			"step":          ir.IRInt(ev.Step),
			"block":         ir.IRInt(ev.Block),
			"ordinal":       ir.IRInt(ev.Ordinal),
			"creator":       ir.IRInt(ev.Creator),
			"depth":         ir.IRInt(ev.Depth),
			"receiver":      ir.IRString(ev.Receiver),
			"account":       ir.IRString(ev.Account),
			"action":        ir.IRString(ev.Action),
			"authorization": auth,
			"data":          data,
		}
	}

	return ir.MarshalCanonical(ir.IRObject{
		"scenario": ir.IRString(name),
		"steps":    steps,
		"trace":    trace,
	})
}

// AssertGolden compares the snapshot of r against dir/name.golden.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func AssertGolden(t *testing.T, dir, name string, r *Result) {
	t.Helper()

	data, err := Snapshot(name, r)
	if err != nil {
		t.Fatalf("snapshot %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
