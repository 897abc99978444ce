package chain

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/ligun0805/x-faucet/internal/faucetcore"
)

// WatchTransaction polls for the receipt until it is mined or ctx ends.
// Each poll without a receipt yields Pending. A revert is replayed as an
// eth_call at the mined block to recover the reason. The caller must drain
// the channel until it is closed.
func (w *KeyWallet) WatchTransaction(ctx context.Context, hash common.Hash) <-chan faucetcore.TxStatus {
	ch := make(chan faucetcore.TxStatus, 1)
	go func() {
		defer close(ch)
		defer w.forget(hash)
		emit := func(st faucetcore.TxStatus) bool {
			st.Hash = hash
			select {
			case ch <- st:
				return true
			case <-ctx.Done():
				return false
			}
		}
		t := time.NewTicker(w.opts.ReceiptEvery)
		defer t.Stop()
	poll:
		for {
			rcpt, err := w.backend.TransactionReceipt(ctx, hash)
			switch {
			case err == nil && rcpt != nil:
				emit(w.outcome(ctx, hash, rcpt))
				return
			case err != nil && !errors.Is(err, ethereum.NotFound):
				w.log.WithError(err).WithField("tx", hash.Hex()).Debug("receipt lookup failed")
			}
			if !emit(faucetcore.TxStatus{Phase: faucetcore.TxPending}) {
				break poll
			}
			select {
			case <-ctx.Done():
				break poll
			case <-t.C:
			}
		}
		ch <- faucetcore.TxStatus{Hash: hash, Phase: faucetcore.TxError, Err: ctx.Err()}
	}()
	return ch
}

func (w *KeyWallet) outcome(ctx context.Context, hash common.Hash, rcpt *types.Receipt) faucetcore.TxStatus {
	st := faucetcore.TxStatus{Phase: faucetcore.TxMined}
	if rcpt.BlockNumber != nil {
		st.BlockNumber = rcpt.BlockNumber.Uint64()
	}
	if rcpt.Status == types.ReceiptStatusSuccessful {
		w.log.WithFields(logrus.Fields{"tx": hash.Hex(), "block": st.BlockNumber, "gasUsed": rcpt.GasUsed}).Info("mined")
		return st
	}
	st.Phase = faucetcore.TxReverted
	st.Reason = "execution reverted"
	if msg, ok := w.callFor(hash); ok {
		if _, err := w.backend.CallContract(ctx, msg, rcpt.BlockNumber); err != nil {
			st.Reason = revertReason(err)
		}
	}
	w.log.WithFields(logrus.Fields{"tx": hash.Hex(), "block": st.BlockNumber, "reason": st.Reason}).Warn("reverted")
	return st
}
