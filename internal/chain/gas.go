package chain

import (
	"context"
	"errors"
	"math/big"
)

// Latest base fee and head number.
func latestBaseFee(ctx context.Context, b Backend) (*big.Int, *big.Int, error) {
	h, err := b.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	if h.BaseFee == nil {
		return nil, h.Number, errors.New("no baseFee (pre-1559?)")
	}
	return new(big.Int).Set(h.BaseFee), new(big.Int).Set(h.Number), nil
}

// Next base fee via eth_feeHistory(1, latest); the last entry is the
// projection for the next block. Falls back to the head's base fee.
func nextBaseFee(ctx context.Context, b Backend) (*big.Int, error) {
	fh, err := b.FeeHistory(ctx, 1, nil, nil)
	if err == nil && fh != nil && len(fh.BaseFee) > 0 {
		if bf := fh.BaseFee[len(fh.BaseFee)-1]; bf != nil && bf.Sign() > 0 {
			return new(big.Int).Set(bf), nil
		}
	}
	bf, _, err := latestBaseFee(ctx, b)
	return bf, err
}

// suggestTip is max(floor, eth_maxPriorityFeePerGas).
func suggestTip(ctx context.Context, b Backend, floor *big.Int) *big.Int {
	tip := new(big.Int).Set(floor)
	if s, err := b.SuggestGasTipCap(ctx); err == nil && s != nil && s.Cmp(tip) > 0 {
		tip.Set(s)
	}
	return tip
}

// feeCap = baseFee*mul + tip.
func feeCap(baseFee *big.Int, mul int64, tip *big.Int) *big.Int {
	if mul <= 0 {
		mul = 2
	}
	return addBig(mulBig(baseFee, mul), tip)
}

// bufferGas adds pct percent on top of an estimate.
func bufferGas(est uint64, pct int64) uint64 {
	if pct <= 0 {
		return est
	}
	return est + est*uint64(pct)/100
}
