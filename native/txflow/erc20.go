package txflow

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	selectorAllowance = "allowance"
	selectorBalanceOf = "balanceOf"
	selectorApprove   = "approve"
)

// readAllowance fetches and decodes the current ERC-20 allowance through the
// shared retry policy, caching the result under its snapshot key.
func (o *Orchestrator) readAllowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	var value *big.Int
	err := o.retry.Do(ctx, func(ctx context.Context) error {
		raw, err := o.backend.ReadContractState(ctx, token, selectorAllowance, owner, spender)
		if err != nil {
			return err
		}
		decoded, err := decodeUintWord(raw)
		if err != nil {
			return err
		}
		value = decoded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read allowance: %w", err)
	}
	o.snapshots.Put(AllowanceKey(token, owner, spender), new(big.Int).Set(value))
	return value, nil
}

// readBalance fetches and decodes the current token balance for the account.
func (o *Orchestrator) readBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	var value *big.Int
	err := o.retry.Do(ctx, func(ctx context.Context) error {
		raw, err := o.backend.ReadContractState(ctx, token, selectorBalanceOf, owner)
		if err != nil {
			return err
		}
		decoded, err := decodeUintWord(raw)
		if err != nil {
			return err
		}
		value = decoded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}
	o.snapshots.Put(BalanceKey(token, owner), new(big.Int).Set(value))
	return value, nil
}

// decodeUintWord promotes the transport's rendering of a uint256 return value
// into a big integer. Raw 32-byte words pass through uint256 so oversized or
// malformed payloads are rejected instead of silently truncated.
func decodeUintWord(raw interface{}) (*big.Int, error) {
	switch v := raw.(type) {
	case *big.Int:
		if v == nil || v.Sign() < 0 {
			return nil, fmt.Errorf("txflow: negative or nil uint word")
		}
		return new(big.Int).Set(v), nil
	case *uint256.Int:
		if v == nil {
			return nil, fmt.Errorf("txflow: nil uint word")
		}
		return v.ToBig(), nil
	case []byte:
		if len(v) > 32 {
			return nil, fmt.Errorf("txflow: uint word longer than 32 bytes")
		}
		word := new(uint256.Int).SetBytes(v)
		return word.ToBig(), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case string:
		value, ok := new(big.Int).SetString(v, 10)
		if !ok || value.Sign() < 0 {
			return nil, fmt.Errorf("txflow: invalid decimal uint word %q", v)
		}
		return value, nil
	default:
		return nil, fmt.Errorf("txflow: unsupported uint word type %T", raw)
	}
}
