package faucetcore

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// DonationInput is recomputed on every edit.
type DonationInput struct {
	RawText string
	Amount  *big.Int // nil unless valid
	IsValid bool
	Err     error
}

// DonationForm validates donation text and hands valid amounts to the
// orchestrator. It also carries the open/closed state of the dialog.
type DonationForm struct {
	orch    *Orchestrator
	min     decimal.Decimal
	max     decimal.Decimal
	presets []string
	msg     Messages
	symbol  string

	input DonationInput
	open  bool
}

func NewDonationForm(orch *Orchestrator, opts Options) *DonationForm {
	opts = opts.withDefaults()
	f := &DonationForm{
		orch:    orch,
		min:     opts.DonationMin,
		max:     opts.DonationMax,
		presets: append([]string(nil), opts.Presets...),
		msg:     MessagesFor(opts.Locale),
		symbol:  opts.Symbol,
	}
	f.SetText("")
	orch.OnConfirmed(f.confirmed)
	return f
}

// ValidateDonation applies the bounds: lo <= amount <= hi, amount > 0,
// at most 18 decimals.
func ValidateDonation(text string, lo, hi decimal.Decimal) DonationInput {
	in := DonationInput{RawText: text}
	wei, err := ParseAmount(text)
	if err != nil {
		in.Err = &InputError{Input: text, Err: err}
		return in
	}
	d := decimal.NewFromBigInt(wei, -Decimals)
	switch {
	case d.Sign() <= 0:
		in.Err = &InputError{Input: text, Err: fmt.Errorf("must be positive: %w", ErrInvalidAmount)}
	case d.LessThan(lo):
		in.Err = &InputError{Input: text, Err: fmt.Errorf("below %s: %w", lo, ErrInvalidAmount)}
	case d.GreaterThan(hi):
		in.Err = &InputError{Input: text, Err: fmt.Errorf("above %s: %w", hi, ErrInvalidAmount)}
	default:
		in.Amount = wei
		in.IsValid = true
	}
	return in
}

func (f *DonationForm) SetText(s string) DonationInput {
	f.input = ValidateDonation(strings.TrimSpace(s), f.min, f.max)
	f.input.RawText = s
	return f.input
}

// Preset puts preset i into the input through the same path as typing.
func (f *DonationForm) Preset(i int) (DonationInput, error) {
	if i < 0 || i >= len(f.presets) {
		return f.input, fmt.Errorf("preset %d out of range", i)
	}
	return f.SetText(f.presets[i]), nil
}

func (f *DonationForm) Presets() []string   { return append([]string(nil), f.presets...) }
func (f *DonationForm) Input() DonationInput { return f.input }

func (f *DonationForm) CanSubmit() bool {
	return f.input.IsValid && !f.orch.Busy()
}

// Submit sends the current amount. Invalid input never reaches the orchestrator.
func (f *DonationForm) Submit() (Ticket, error) {
	if !f.input.IsValid {
		if f.input.Err != nil {
			return Ticket{}, f.input.Err
		}
		return Ticket{}, &InputError{Input: f.input.RawText, Err: ErrInvalidAmount}
	}
	if f.orch.Busy() {
		return f.orch.Current(), ErrBusy
	}
	return f.orch.Submit(DonateAction(f.input.Amount))
}

func (f *DonationForm) Reset() { f.SetText("") }

func (f *DonationForm) Open()        { f.open = true }
func (f *DonationForm) IsOpen() bool { return f.open }

// Close is refused while the donation is being signed or confirmed.
func (f *DonationForm) Close() bool {
	if f.orch.Busy() && f.orch.Current().Kind == KindDonate {
		return false
	}
	f.open = false
	return true
}

// SubmitLabel is the text of the dialog's confirm button.
func (f *DonationForm) SubmitLabel() string {
	cur := f.orch.Current()
	if cur.Kind == KindDonate {
		switch cur.Status {
		case StatusSubmitted:
			return f.msg.PendingSignature
		case StatusConfirming:
			return f.msg.WaitingConfirmation
		}
	}
	amount := "0"
	if f.input.IsValid {
		amount = f.input.RawText
	}
	return fmt.Sprintf(f.msg.DonateFmt, strings.TrimSpace(amount), f.symbol)
}

// RangeHint is shown under an invalid, non-empty input.
func (f *DonationForm) RangeHint() string {
	if f.input.IsValid || strings.TrimSpace(f.input.RawText) == "" {
		return ""
	}
	return fmt.Sprintf(f.msg.DonateRange, f.min.String(), f.max.String())
}

// confirmed resets the form and closes the dialog after a successful donation.
func (f *DonationForm) confirmed(t Ticket) {
	if t.Kind != KindDonate {
		return
	}
	f.Reset()
	f.open = false
}
