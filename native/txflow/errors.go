package txflow

import "errors"

var (
	// ErrNilBackend indicates the orchestrator was constructed without a
	// chain backend.
	ErrNilBackend = errors.New("txflow: chain backend not configured")
	// ErrInvalidAmount indicates a flow was started with a nil or
	// non-positive amount.
	ErrInvalidAmount = errors.New("txflow: amount must be positive")
	// ErrFlowInFlight indicates a flow for the same (account, loan, action)
	// tuple is already running; concurrent invocations are rejected rather
	// than double-submitted.
	ErrFlowInFlight = errors.New("txflow: flow already in flight")
	// ErrInsufficientBalance indicates the acting account cannot cover the
	// requested amount.
	ErrInsufficientBalance = errors.New("txflow: insufficient balance")
	// ErrAllowanceNotPropagated indicates an approval confirmed on-chain but
	// the allowance read stayed short after the single backoff re-check.
	// This is read-after-write replication lag, not a protocol error.
	ErrAllowanceNotPropagated = errors.New("txflow: allowance not propagated")
	// ErrTransactionReverted indicates a mined receipt came back reverted.
	// Terminal for the attempt; never auto-retried.
	ErrTransactionReverted = errors.New("txflow: transaction reverted")
	// ErrConfirmationTimeout indicates the confirmation poll exceeded its
	// bound. The transaction may still land; callers re-check manually.
	ErrConfirmationTimeout = errors.New("txflow: confirmation timed out")
)

// SimulationError carries the decoded reason for a failed dry run. A failed
// simulation always blocks submission.
type SimulationError struct {
	Reason string
}

func (e *SimulationError) Error() string {
	return "txflow: simulation failed: " + e.Reason
}
