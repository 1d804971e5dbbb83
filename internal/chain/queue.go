package chain

import "github.com/roach88/mytoken/internal/ir"

// pendingAction is an action scheduled for execution with its decoded
// arguments and position in the trace tree.
type pendingAction struct {
	action         ir.Action
	data           ir.IRObject
	depth          int
	creatorOrdinal int
	// sender is the contract that sent an inline action, zero at top level.
	sender ir.Name
}

// actionQueue is a FIFO of inline actions sent while one action (and its
// notifications) executed. Inline actions run in send order once the
// sending action is finished.
//
// Not safe for concurrent use: a transaction executes on one goroutine.
type actionQueue struct {
	actions []pendingAction
}

// Enqueue adds an action to the back of the queue.
func (q *actionQueue) Enqueue(a pendingAction) {
	q.actions = append(q.actions, a)
}

// TryDequeue removes and returns the front action.
// Returns false if the queue is empty.
func (q *actionQueue) TryDequeue() (pendingAction, bool) {
	if len(q.actions) == 0 {
		return pendingAction{}, false
	}

	a := q.actions[0]

	// Nil out the slot so the decoded data can be collected.
	q.actions[0] = pendingAction{}

	if len(q.actions) == 1 {
		q.actions = q.actions[:0]
	} else {
		q.actions = q.actions[1:]
	}
	return a, true
}

// Len returns the current queue length.
func (q *actionQueue) Len() int {
	return len(q.actions)
}
