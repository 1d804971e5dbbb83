package chain

// DefaultMaxActions is the default limit on executed actions (top-level,
// inline and notifications) per transaction.
const DefaultMaxActions = 1000

// DefaultMaxInlineDepth is the default limit on inline action nesting.
const DefaultMaxInlineDepth = 4

// QuotaEnforcer counts the actions a transaction executes and enforces a
// maximum.
//
// Each transaction gets its own QuotaEnforcer. Together with the inline
// depth limit it guarantees that a transaction terminates even when
// contracts keep sending each other inline actions.
type QuotaEnforcer struct {
	maxActions int
	current    int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
func NewQuotaEnforcer(maxActions int) *QuotaEnforcer {
	return &QuotaEnforcer{maxActions: maxActions}
}

// Check increments the action counter and validates against the limit.
// This should be called before executing each action.
func (q *QuotaEnforcer) Check() error {
	q.current++
	if q.current > q.maxActions {
		return newError(ErrCodeQuotaExceeded,
			"transaction exceeded max actions quota: %d actions > %d limit", q.current, q.maxActions)
	}
	return nil
}

// Current returns the current action count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxActions returns the limit.
func (q *QuotaEnforcer) MaxActions() int {
	return q.maxActions
}
