package lending

import "errors"

var (
	// ErrAssetNotEnabled indicates no risk parameters are configured for the
	// (asset, duration) pair.
	ErrAssetNotEnabled = errors.New("lending: asset not enabled for duration")
	// ErrAmountExceedsDebt indicates a repayment beyond the outstanding
	// balance plus the full-repayment tolerance.
	ErrAmountExceedsDebt = errors.New("lending: amount exceeds outstanding debt")
	// ErrRepaymentBelowMinimum indicates a partial repayment under the
	// configured USD floor.
	ErrRepaymentBelowMinimum = errors.New("lending: repayment below minimum")
	// ErrNoOutstandingDebt indicates a repayment or liquidation against a
	// fully settled loan.
	ErrNoOutstandingDebt = errors.New("lending: no outstanding debt")
	// ErrInvalidAmount indicates a nil or non-positive amount where a
	// positive one is required.
	ErrInvalidAmount = errors.New("lending: amount must be positive")
	// ErrPending indicates a calculation was invoked before all of its
	// asynchronous operands resolved; the caller should report a pending
	// state rather than compute on undefined values.
	ErrPending = errors.New("lending: inputs still pending")
)
