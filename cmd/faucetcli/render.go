package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ligun0805/x-faucet/internal/chain"
	"github.com/ligun0805/x-faucet/internal/faucetcore"
)

func printView(w io.Writer, v faucetcore.View) {
	fmt.Fprintln(w, "=== FAUCET ===")
	fmt.Fprintln(w, "State      :", v.State)
	if v.Address != "" {
		fmt.Fprintln(w, "Wallet     :", v.Address)
	}
	if v.Stats.Loaded {
		fmt.Fprintf(w, "Pool       : %s %s | claimed %s | users %s\n", v.Stats.Balance, v.Symbol, v.Stats.TotalClaimed, v.Stats.UniqueUsers)
	}
	if v.Cooldown != "" {
		fmt.Fprintf(w, "Per claim  : %s %s every %s\n", v.ClaimAmount, v.Symbol, v.Cooldown)
	}
	if v.Message != "" {
		for _, l := range strings.Split(v.Message, "\n") {
			fmt.Fprintln(w, "  ", l)
		}
	}
	if v.State == faucetcore.PanelReady && !v.Loading {
		fmt.Fprintln(w, "Handle     :", v.Handle)
		if v.LastClaim != "" {
			fmt.Fprintln(w, "Last claim :", v.LastClaim)
		}
		if v.Countdown != "" {
			fmt.Fprintln(w, "Next claim :", v.Countdown)
		}
		mark := " "
		if v.ClaimEnabled {
			mark = ">"
		}
		fmt.Fprintf(w, "%s [%s]\n", mark, v.ClaimLabel)
	}
	if v.Busy {
		fmt.Fprintf(w, "Pending    : %s %s %s\n", v.Ticket.Kind, v.BusyLabel, shortHash(v.Ticket))
	}
	if v.LastTicket != nil {
		fmt.Fprintln(w, "Last tx    :", ticketLine(*v.LastTicket))
	}
	fmt.Fprintln(w, "==============")
}

func ticketLine(t faucetcore.Ticket) string {
	s := fmt.Sprintf("%s %-7s %-9s %s", t.Updated.Local().Format(time.DateTime), t.Kind, t.Status, shortHash(t))
	if t.Kind == faucetcore.KindDonate && t.Amount != nil {
		s += " " + faucetcore.ToDisplayAmount(t.Amount)
	}
	if t.Block > 0 {
		s += fmt.Sprintf(" block=%d", t.Block)
	}
	if t.Reason != "" {
		s += " reason=" + t.Reason
	}
	return s
}

func shortHash(t faucetcore.Ticket) string {
	if t.Hash == (common.Hash{}) {
		return "-"
	}
	h := t.Hash.Hex()
	return h[:10] + "…" + h[len(h)-4:]
}

func printPreview(w io.Writer, p chain.TxPreview, symbol string) {
	fmt.Fprintln(w, "--- transaction ---")
	fmt.Fprintln(w, "method  :", p.Method)
	fmt.Fprintln(w, "to      :", p.To.Hex())
	fmt.Fprintf(w, "value   : %s %s\n", faucetcore.ToDisplayAmount(p.Value), symbol)
	fmt.Fprintf(w, "gas     : %d @ tip %s / max %s gwei\n", p.Gas, chain.FmtGwei(p.TipCap), chain.FmtGwei(p.FeeCap))
	fmt.Fprintf(w, "max cost: %s %s\n", faucetcore.ToDisplayAmount(p.MaxCost), symbol)
	fmt.Fprintln(w, "nonce   :", p.Nonce, "| chain", p.ChainID)
}

const help = `commands:
  status            show the claim panel
  claim             claim tokens
  donate <amount>   donate to the pool
  preset <n>        donate preset n (see status)
  refresh           re-read the contract now
  history [n]       last n finished transactions
  help              this text
  quit              exit`
