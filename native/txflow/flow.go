package txflow

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"loanmesh/native/fixedpoint"
	"loanmesh/observability"
)

// Action names the state-changing contract operation a flow wraps.
type Action string

const (
	ActionFund             Action = "fund"
	ActionRepay            Action = "repay"
	ActionLiquidate        Action = "liquidate"
	ActionApproveExtension Action = "approve_extension"
)

// Step is one stage of the approve -> simulate -> submit -> confirm protocol.
type Step string

const (
	StepIdle              Step = "idle"
	StepApproving         Step = "approving"
	StepApprovalConfirmed Step = "approval_confirmed"
	StepSimulating        Step = "simulating"
	StepReady             Step = "ready"
	StepSubmitting        Step = "submitting"
	StepConfirmed         Step = "confirmed"
	StepFailed            Step = "failed"
)

// FlowState is one observable transition of a running flow. Terminal states
// are StepConfirmed and StepFailed; Err is set only on StepFailed.
type FlowState struct {
	FlowID uuid.UUID
	Action Action
	Step   Step
	TxHash common.Hash
	Err    error
}

// PreflightCheck runs before any token movement. A non-nil error aborts the
// flow before the first write; freshness gates on oracle prices live here.
type PreflightCheck func(ctx context.Context) error

// Params describes one flow. A zero Token skips the approval phase entirely,
// for actions that move no ERC-20 value from the caller.
type Params struct {
	Account    common.Address
	LoanID     uint64
	Token      common.Address
	Spender    common.Address
	Amount     *big.Int
	Call       Call
	Preflight  []PreflightCheck
	Invalidate []SnapshotKey
}

// Config tunes the orchestrator. Zero values fall back to the defaults
// applied by NewOrchestrator.
type Config struct {
	HeadroomBps      uint64
	AllowanceBackoff time.Duration
	ConfirmTimeout   time.Duration
	Retry            RetryPolicy
	Logger           *slog.Logger
}

const (
	defaultHeadroomBps      = 100
	defaultAllowanceBackoff = 2 * time.Second
	defaultConfirmTimeout   = 90 * time.Second
)

type flowKey struct {
	account common.Address
	loanID  uint64
	action  Action
}

// Orchestrator drives every state-changing flow through the mandatory
// approve -> simulate -> submit -> confirm sequence. At most one flow per
// (account, loan, action) tuple runs at a time.
type Orchestrator struct {
	backend   ChainBackend
	snapshots *SnapshotStore
	retry     RetryPolicy
	cfg       Config
	log       *slog.Logger
	metrics   *observability.FlowMetrics

	sleep func(context.Context, time.Duration) error
	now   func() time.Time

	mu       sync.Mutex
	inflight map[flowKey]struct{}
}

// NewOrchestrator constructs an orchestrator over the supplied backend.
func NewOrchestrator(backend ChainBackend, cfg Config) (*Orchestrator, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	if cfg.HeadroomBps == 0 {
		cfg.HeadroomBps = defaultHeadroomBps
	}
	if cfg.AllowanceBackoff <= 0 {
		cfg.AllowanceBackoff = defaultAllowanceBackoff
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = defaultConfirmTimeout
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		backend:   backend,
		snapshots: NewSnapshotStore(),
		retry:     cfg.Retry,
		cfg:       cfg,
		log:       logger.With("component", "txflow"),
		metrics:   observability.Flow(),
		sleep:     sleepContext,
		now:       time.Now,
		inflight:  make(map[flowKey]struct{}),
	}, nil
}

// Snapshots exposes the orchestrator's read cache for callers that serve
// derived values between writes.
func (o *Orchestrator) Snapshots() *SnapshotStore {
	if o == nil {
		return nil
	}
	return o.snapshots
}

// Run starts a flow and returns a channel of state transitions. The channel
// closes after the terminal state. A second invocation for the same
// (account, loan, action) tuple while one is running fails with
// ErrFlowInFlight.
func (o *Orchestrator) Run(ctx context.Context, action Action, params Params) (<-chan FlowState, error) {
	if o == nil || o.backend == nil {
		return nil, ErrNilBackend
	}
	if params.Amount == nil || params.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	key := flowKey{account: params.Account, loanID: params.LoanID, action: action}
	o.mu.Lock()
	if _, busy := o.inflight[key]; busy {
		o.mu.Unlock()
		return nil, ErrFlowInFlight
	}
	o.inflight[key] = struct{}{}
	o.mu.Unlock()

	states := make(chan FlowState, 16)
	flowID := uuid.New()
	go func() {
		defer close(states)
		defer func() {
			o.mu.Lock()
			delete(o.inflight, key)
			o.mu.Unlock()
		}()
		o.run(ctx, flowID, action, params, states)
	}()
	return states, nil
}

func (o *Orchestrator) run(ctx context.Context, flowID uuid.UUID, action Action, params Params, states chan<- FlowState) {
	started := o.now()
	log := o.log.With("flow_id", flowID.String(), "action", string(action), "loan_id", params.LoanID)
	o.metrics.ObserveStart(string(action))

	emit := func(step Step, hash common.Hash, err error) {
		states <- FlowState{FlowID: flowID, Action: action, Step: step, TxHash: hash, Err: err}
	}
	fail := func(step Step, hash common.Hash, err error) {
		log.Error("flow failed", "step", string(step), "error", err)
		o.metrics.ObserveFailure(string(action), failureReason(err))
		emit(StepFailed, hash, err)
	}

	emit(StepIdle, common.Hash{}, nil)

	for _, check := range params.Preflight {
		if check == nil {
			continue
		}
		if err := check(ctx); err != nil {
			fail(StepIdle, common.Hash{}, err)
			return
		}
	}

	needsApproval := params.Token != (common.Address{})
	if needsApproval {
		balance, err := o.readBalance(ctx, params.Token, params.Account)
		if err != nil {
			fail(StepIdle, common.Hash{}, err)
			return
		}
		if balance.Cmp(params.Amount) < 0 {
			fail(StepIdle, common.Hash{}, ErrInsufficientBalance)
			return
		}
		allowance, err := o.readAllowance(ctx, params.Token, params.Account, params.Spender)
		if err != nil {
			fail(StepIdle, common.Hash{}, err)
			return
		}
		if allowance.Cmp(params.Amount) < 0 {
			emit(StepApproving, common.Hash{}, nil)
			if err := o.approve(ctx, log, params); err != nil {
				fail(StepApproving, common.Hash{}, err)
				return
			}
			emit(StepApprovalConfirmed, common.Hash{}, nil)
		}
	}

	emit(StepSimulating, common.Hash{}, nil)
	if err := o.simulate(ctx, params.Call); err != nil {
		fail(StepSimulating, common.Hash{}, err)
		return
	}
	emit(StepReady, common.Hash{}, nil)

	emit(StepSubmitting, common.Hash{}, nil)
	hash, err := o.backend.SubmitWrite(ctx, params.Call)
	if err != nil {
		fail(StepSubmitting, common.Hash{}, err)
		return
	}
	log.Info("transaction submitted", "tx_hash", hash.Hex())

	receipt, err := o.awaitReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrConfirmationTimeout) {
			o.metrics.ObserveTimeout()
		}
		fail(StepSubmitting, hash, err)
		return
	}
	if receipt.Status != ReceiptSuccess {
		fail(StepSubmitting, hash, ErrTransactionReverted)
		return
	}

	keys := append([]SnapshotKey{
		LoanKey(params.LoanID),
		DebtKey(params.LoanID),
		BalanceKey(params.Token, params.Account),
		AllowanceKey(params.Token, params.Account, params.Spender),
	}, params.Invalidate...)
	o.snapshots.Invalidate(keys...)

	o.metrics.ObserveConfirmation(string(action))
	o.metrics.ObserveDuration(string(action), o.now().Sub(started).Seconds())
	log.Info("flow confirmed", "tx_hash", hash.Hex())
	emit(StepConfirmed, hash, nil)
}

// approve raises the allowance to the flow amount plus headroom, waits for
// the approval to confirm, and verifies the allowance took effect. A single
// backoff re-read covers read-after-write lag; if the allowance is still
// short after that, the flow surfaces ErrAllowanceNotPropagated rather than
// loop.
func (o *Orchestrator) approve(ctx context.Context, log *slog.Logger, params Params) error {
	target := fixedpoint.WithHeadroom(params.Amount, o.cfg.HeadroomBps)
	call := Call{
		Target:   params.Token,
		Selector: selectorApprove,
		Args:     []interface{}{params.Spender, target},
		From:     params.Account,
	}
	if err := o.simulate(ctx, call); err != nil {
		return err
	}
	hash, err := o.backend.SubmitWrite(ctx, call)
	if err != nil {
		return err
	}
	receipt, err := o.awaitReceipt(ctx, hash)
	if err != nil {
		return err
	}
	if receipt.Status != ReceiptSuccess {
		return ErrTransactionReverted
	}
	log.Info("approval confirmed", "tx_hash", hash.Hex(), "target", target.String())

	o.snapshots.Invalidate(AllowanceKey(params.Token, params.Account, params.Spender))
	allowance, err := o.readAllowance(ctx, params.Token, params.Account, params.Spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(params.Amount) >= 0 {
		return nil
	}
	if err := o.sleep(ctx, o.cfg.AllowanceBackoff); err != nil {
		return err
	}
	allowance, err = o.readAllowance(ctx, params.Token, params.Account, params.Spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(params.Amount) < 0 {
		return ErrAllowanceNotPropagated
	}
	return nil
}

// simulate dry-runs the call and blocks submission on any failure, rendering
// the revert payload into a user-facing reason. Every blocked submission is
// counted here, whether the dry run guarded the approval or the main call.
func (o *Orchestrator) simulate(ctx context.Context, call Call) error {
	result, err := o.backend.SimulateWrite(ctx, call)
	if err != nil {
		return err
	}
	if result.Success {
		return nil
	}
	o.metrics.ObserveSimulationBlocked()
	return &SimulationError{Reason: DecodeRevert(result.ErrorData, result.ErrorMessage)}
}

func (o *Orchestrator) awaitReceipt(ctx context.Context, hash common.Hash) (Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, o.cfg.ConfirmTimeout)
	defer cancel()
	receipt, err := o.backend.AwaitReceipt(waitCtx, hash)
	if err != nil {
		if waitCtx.Err() != nil && ctx.Err() == nil {
			return Receipt{}, ErrConfirmationTimeout
		}
		return Receipt{}, err
	}
	return receipt, nil
}

// Recheck looks up the receipt for a transaction whose confirmation timed
// out. The transaction may have landed after the poll gave up.
func (o *Orchestrator) Recheck(ctx context.Context, hash common.Hash) (Receipt, error) {
	if o == nil || o.backend == nil {
		return Receipt{}, ErrNilBackend
	}
	return o.awaitReceipt(ctx, hash)
}

func failureReason(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrAllowanceNotPropagated):
		return "allowance_lag"
	case errors.Is(err, ErrTransactionReverted):
		return "reverted"
	case errors.Is(err, ErrConfirmationTimeout):
		return "confirmation_timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		var simErr *SimulationError
		if errors.As(err, &simErr) {
			return "simulation_blocked"
		}
		return "backend"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
