package chain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ligun0805/x-faucet/internal/faucetcore"
)

// Faucet reads the faucet contract and the identity registry over eth_call.
type Faucet struct {
	faucet  *bind.BoundContract
	binding *bind.BoundContract
}

var _ faucetcore.ContractReader = (*Faucet)(nil)

// NewFaucet binds both contracts on caller. A zero registry address leaves
// IsWalletBound unavailable.
func NewFaucet(caller bind.ContractCaller, faucetAddr, registryAddr common.Address) *Faucet {
	f := &Faucet{faucet: bind.NewBoundContract(faucetAddr, faucetABI, caller, nil, nil)}
	if faucetcore.ContractConfigured(registryAddr) {
		f.binding = bind.NewBoundContract(registryAddr, bindingABI, caller, nil, nil)
	}
	return f
}

func call(ctx context.Context, c *bind.BoundContract, method string, args ...any) ([]any, error) {
	return withRetry(ctx, func(ctx context.Context) ([]any, error) {
		var out []any
		if err := c.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		return out, nil
	})
}

func (f *Faucet) CanClaim(ctx context.Context, user common.Address) (bool, error) {
	out, err := call(ctx, f.faucet, "canClaim", user)
	if err != nil {
		return false, err
	}
	return *abiConvert[bool](out, 0), nil
}

func (f *Faucet) UserInfo(ctx context.Context, user common.Address) (faucetcore.UserClaimState, error) {
	out, err := call(ctx, f.faucet, "getUserInfo", user)
	if err != nil {
		return faucetcore.UserClaimState{}, err
	}
	return faucetcore.UserClaimState{
		Address:              user,
		BoundHandle:          *abiConvert[string](out, 0),
		LastClaimTimestamp:   clampInt64(*abiConvert[*big.Int](out, 1)),
		IsEligibleNow:        *abiConvert[bool](out, 2),
		SecondsUntilEligible: clampInt64(*abiConvert[*big.Int](out, 3)),
	}, nil
}

func (f *Faucet) FaucetStats(ctx context.Context) (faucetcore.PoolStats, error) {
	out, err := call(ctx, f.faucet, "getFaucetStats")
	if err != nil {
		return faucetcore.PoolStats{}, err
	}
	return faucetcore.PoolStats{
		Balance:         *abiConvert[*big.Int](out, 0),
		TotalClaimed:    *abiConvert[*big.Int](out, 1),
		UniqueClaimants: *abiConvert[*big.Int](out, 2),
		Registry:        *abiConvert[common.Address](out, 3),
	}, nil
}

func (f *Faucet) ClaimParameters(ctx context.Context) (faucetcore.ClaimParameters, error) {
	amount, err := call(ctx, f.faucet, "CLAIM_AMOUNT")
	if err != nil {
		return faucetcore.ClaimParameters{}, err
	}
	cooldown, err := call(ctx, f.faucet, "CLAIM_COOLDOWN")
	if err != nil {
		return faucetcore.ClaimParameters{}, err
	}
	return faucetcore.ClaimParameters{
		ClaimAmount:     *abiConvert[*big.Int](amount, 0),
		CooldownSeconds: clampInt64(*abiConvert[*big.Int](cooldown, 0)),
	}, nil
}

func (f *Faucet) IsWalletBound(ctx context.Context, wallet common.Address) (bool, error) {
	if f.binding == nil {
		return false, errors.New("identity registry not configured")
	}
	out, err := call(ctx, f.binding, "isWalletBound", wallet)
	if err != nil {
		return false, err
	}
	return *abiConvert[bool](out, 0), nil
}

// abiConvert picks output i as T. A missing or mistyped field yields the
// zero value.
func abiConvert[T any](out []any, i int) *T {
	v := new(T)
	if i >= len(out) {
		return v
	}
	if t, ok := out[i].(T); ok {
		*v = t
	}
	return v
}

func clampInt64(x *big.Int) int64 {
	switch {
	case x == nil || x.Sign() <= 0:
		return 0
	case !x.IsInt64():
		return math.MaxInt64
	}
	return x.Int64()
}
