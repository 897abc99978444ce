package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/ligun0805/x-faucet/internal/faucetcore"
)

// panelUI holds the widgets render() updates from panel views.
type panelUI struct {
	balance, claimed, users *widget.Label
	perClaim                *widget.Label

	message   *widget.Label
	address   *widget.Label
	handle    *widget.Label
	lastClaim *widget.Label
	countdown *widget.Label
	busy      *widget.ProgressBarInfinite
	claimBtn  *widget.Button
	donateBtn *widget.Button
	lastTx    *widget.Label

	donation *donationUI
}

func newPanelUI(onClaim, onDonate func()) *panelUI {
	u := &panelUI{
		balance:   widget.NewLabel("-"),
		claimed:   widget.NewLabel("-"),
		users:     widget.NewLabel("-"),
		perClaim:  widget.NewLabel("-"),
		message:   widget.NewLabel(""),
		address:   widget.NewLabel(""),
		handle:    widget.NewLabel(""),
		lastClaim: widget.NewLabel(""),
		countdown: widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		busy:      widget.NewProgressBarInfinite(),
		claimBtn:  widget.NewButton("", onClaim),
		donateBtn: widget.NewButton("", onDonate),
		lastTx:    widget.NewLabel(""),
	}
	u.message.Wrapping = fyne.TextWrapWord
	u.lastTx.Wrapping = fyne.TextWrapBreak
	u.claimBtn.Importance = widget.HighImportance
	u.busy.Hide()
	return u
}

func (u *panelUI) content() fyne.CanvasObject {
	stats := widget.NewCard("Pool", "", widget.NewForm(
		widget.NewFormItem("Balance", u.balance),
		widget.NewFormItem("Total claimed", u.claimed),
		widget.NewFormItem("Claimants", u.users),
		widget.NewFormItem("Per claim", u.perClaim),
	))
	claim := widget.NewCard("Claim", "", container.NewVBox(
		u.message,
		widget.NewForm(
			widget.NewFormItem("Wallet", u.address),
			widget.NewFormItem("Handle", u.handle),
			widget.NewFormItem("Last claim", u.lastClaim),
		),
		u.countdown,
		u.busy,
		u.claimBtn,
		u.lastTx,
	))
	return container.NewVBox(stats, claim, u.donateBtn)
}

func (u *panelUI) render(v faucetcore.View) {
	if v.Stats.Loaded {
		u.balance.SetText(v.Stats.Balance + " " + v.Symbol)
		u.claimed.SetText(v.Stats.TotalClaimed + " " + v.Symbol)
		u.users.SetText(v.Stats.UniqueUsers)
	}
	if v.Cooldown != "" {
		u.perClaim.SetText(v.ClaimAmount + " " + v.Symbol + " / " + v.Cooldown)
	}

	u.message.SetText(v.Message)
	u.address.SetText(short(v.Address))
	u.handle.SetText(v.Handle)
	u.lastClaim.SetText(v.LastClaim)
	u.countdown.SetText(v.Countdown)

	ready := v.State == faucetcore.PanelReady && !v.Loading
	u.claimBtn.SetText(v.ClaimLabel)
	if ready {
		u.claimBtn.Show()
	} else {
		u.claimBtn.Hide()
	}
	if v.ClaimEnabled {
		u.claimBtn.Enable()
	} else {
		u.claimBtn.Disable()
	}
	if v.Busy {
		u.busy.Show()
	} else {
		u.busy.Hide()
	}

	u.donateBtn.SetText(donateButtonText(v))
	if v.State == faucetcore.PanelNotConnected || v.State == faucetcore.PanelContractUnconfigured {
		u.donateBtn.Disable()
	} else {
		u.donateBtn.Enable()
	}

	if v.LastTicket != nil {
		t := v.LastTicket
		s := t.Kind.String() + " " + t.Status.String() + " " + short(t.Hash.Hex())
		if t.Reason != "" {
			s += "\n" + t.Reason
		}
		u.lastTx.SetText(s)
	}

	if u.donation != nil {
		u.donation.render(v.Donation)
	}
}

func donateButtonText(v faucetcore.View) string {
	if v.Busy && v.Ticket.Kind == faucetcore.KindDonate {
		return v.BusyLabel
	}
	return "♥ Donate " + v.Symbol
}
