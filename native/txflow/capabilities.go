// Package txflow drives the approve -> simulate -> submit -> confirm protocol
// required before every state-changing call. The engine is a predictive
// mirror: every derived amount is revalidated by an on-chain simulation
// immediately before submission, and the contract remains authoritative.
package txflow

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Call describes one contract invocation.
type Call struct {
	Target   common.Address
	Selector string
	Args     []interface{}
	From     common.Address
}

// SimulationResult reports the outcome of a dry run. ErrorData carries the
// raw ABI-encoded revert payload when available; ErrorMessage the transport's
// rendering of it.
type SimulationResult struct {
	Success      bool
	ErrorData    []byte
	ErrorMessage string
}

// ReceiptStatus is the terminal state of a mined transaction.
type ReceiptStatus int

const (
	ReceiptSuccess ReceiptStatus = iota
	ReceiptReverted
)

// Receipt is the confirmation record for a submitted transaction.
type Receipt struct {
	TxHash common.Hash
	Status ReceiptStatus
}

// ChainBackend is the opaque transport capability supplied by the excluded
// read/write layer. Every call is fallible and cancellable; the orchestrator
// never assumes ordering between two independent reads.
type ChainBackend interface {
	ReadContractState(ctx context.Context, addr common.Address, selector string, args ...interface{}) (interface{}, error)
	SimulateWrite(ctx context.Context, call Call) (SimulationResult, error)
	SubmitWrite(ctx context.Context, call Call) (common.Hash, error)
	AwaitReceipt(ctx context.Context, tx common.Hash) (Receipt, error)
}
