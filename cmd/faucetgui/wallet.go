package main

import (
	"context"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ligun0805/x-faucet/internal/chain"
	"github.com/ligun0805/x-faucet/internal/faucetcore"
)

// swapWallet lets the user connect or disconnect a key at runtime. The
// panel notices the change on its next poll.
type swapWallet struct {
	mu sync.RWMutex
	w  faucetcore.Wallet
}

func newSwapWallet() *swapWallet { return &swapWallet{w: faucetcore.NoWallet} }

func (s *swapWallet) set(w faucetcore.Wallet) {
	if w == nil {
		w = faucetcore.NoWallet
	}
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

func (s *swapWallet) get() faucetcore.Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w
}

func (s *swapWallet) Address() (common.Address, bool) { return s.get().Address() }

func (s *swapWallet) SubmitTransaction(ctx context.Context, c faucetcore.Call) (common.Hash, error) {
	return s.get().SubmitTransaction(ctx, c)
}

func (s *swapWallet) WatchTransaction(ctx context.Context, h common.Hash) <-chan faucetcore.TxStatus {
	return s.get().WatchTransaction(ctx, h)
}

// confirmInDialog asks the user to approve a transaction and blocks the
// submitting goroutine until they answer.
func confirmInDialog(w fyne.Window, symbol string) func(chain.TxPreview) bool {
	return func(p chain.TxPreview) bool {
		answer := make(chan bool, 1)
		msg := fmt.Sprintf("%s → %s\nvalue: %s %s\ngas: %d (tip %s / max %s gwei)\nmax cost: %s %s",
			p.Method, short(p.To.Hex()),
			faucetcore.ToDisplayAmount(p.Value), symbol,
			p.Gas, chain.FmtGwei(p.TipCap), chain.FmtGwei(p.FeeCap),
			faucetcore.ToDisplayAmount(p.MaxCost), symbol)
		d := dialog.NewConfirm("Sign transaction?", msg, func(ok bool) { answer <- ok }, w)
		d.SetConfirmText("Sign")
		d.SetDismissText("Reject")
		d.Show()
		return <-answer
	}
}

func short(s string) string {
	if len(s) <= 16 {
		return s
	}
	return s[:10] + "…" + s[len(s)-5:]
}
