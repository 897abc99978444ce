package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/ligun0805/x-faucet/internal/faucetcore"
)

// donationUI is the donation dialog. Visibility follows DonationView.Open;
// user input goes back through the loop.
type donationUI struct {
	dlg     dialog.Dialog
	entry   *widget.Entry
	hint    *widget.Label
	submit  *widget.Button
	close   *widget.Button
	presets *fyne.Container
	shown   bool
}

type donationActions struct {
	setText func(string)
	preset  func(int)
	submit  func()
	close   func()
}

func newDonationUI(w fyne.Window, presets []string, symbol string, act donationActions) *donationUI {
	d := &donationUI{
		entry:   widget.NewEntry(),
		hint:    widget.NewLabel(""),
		presets: container.NewGridWithColumns(max(1, len(presets))),
	}
	d.entry.SetPlaceHolder("0.0 " + symbol)
	d.entry.OnChanged = act.setText
	for i, p := range presets {
		i := i
		d.presets.Add(widget.NewButton(p+" "+symbol, func() { act.preset(i) }))
	}
	d.submit = widget.NewButton("", act.submit)
	d.submit.Importance = widget.HighImportance
	d.close = widget.NewButton("Close", act.close)

	body := container.NewVBox(d.presets, d.entry, d.hint, container.NewGridWithColumns(2, d.close, d.submit))
	d.dlg = dialog.NewCustomWithoutButtons("Donate "+symbol, body, w)
	d.dlg.Resize(fyne.NewSize(420, 260))
	return d
}

func (d *donationUI) render(v faucetcore.DonationView) {
	if d.entry.Text != v.Text {
		d.entry.SetText(v.Text)
	}
	d.hint.SetText(v.Hint)
	d.submit.SetText(v.SubmitLabel)
	if v.CanSubmit {
		d.submit.Enable()
	} else {
		d.submit.Disable()
	}
	if v.Closable {
		d.close.Enable()
		d.entry.Enable()
	} else {
		d.close.Disable()
		d.entry.Disable()
	}
	switch {
	case v.Open && !d.shown:
		d.shown = true
		d.dlg.Show()
	case !v.Open && d.shown:
		d.shown = false
		d.dlg.Hide()
	}
}
