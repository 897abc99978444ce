package faucetcore

import (
	"errors"
	"math/big"

	"github.com/sirupsen/logrus"
)

// PanelState is the top-level display state, checked in declaration order.
type PanelState int

const (
	PanelNotConnected PanelState = iota
	PanelContractUnconfigured
	PanelIdentityNotBound
	PanelReady
)

func (s PanelState) String() string {
	switch s {
	case PanelNotConnected:
		return "not-connected"
	case PanelContractUnconfigured:
		return "contract-unconfigured"
	case PanelIdentityNotBound:
		return "identity-not-bound"
	}
	return "ready"
}

type StatsView struct {
	Loaded       bool
	Balance      string
	TotalClaimed string
	UniqueUsers  string
}

type DonationView struct {
	Open        bool
	Closable    bool
	Text        string
	Valid       bool
	CanSubmit   bool
	SubmitLabel string
	Hint        string
	Presets     []string
}

// View is everything a front-end needs to draw the panel.
type View struct {
	State   PanelState
	Loading bool
	Message string

	Address   string
	Handle    string
	LastClaim string
	Cooldown  string

	Eligible     bool
	Remaining    int64
	Countdown    string
	ClaimEnabled bool
	ClaimLabel   string
	Busy         bool
	BusyLabel    string

	ClaimAmount string
	Symbol      string
	Stats       StatsView
	Donation    DonationView

	Ticket     Ticket
	LastTicket *Ticket
}

// Panel composes poller, countdown, orchestrator and donation form behind
// one identity gate. All methods must run on the scheduler.
type Panel struct {
	sched  Scheduler
	wallet Wallet
	gate   IdentityGate
	sinks  Sinks
	opts   Options
	msg    Messages
	log    *logrus.Entry

	Poller       *Poller
	Countdown    *Countdown
	Orchestrator *Orchestrator
	Donation     *DonationForm
	binding      *BindingWatcher

	seeded    uint64
	lastBound bool
	listeners []func(View)
	started   bool
	closed    bool
}

// NewPanel wires the components. A nil gate makes the panel poll the
// binding registry itself.
func NewPanel(sched Scheduler, reader ContractReader, wallet Wallet, gate IdentityGate, sinks Sinks, opts Options, log *logrus.Entry) *Panel {
	opts = opts.withDefaults()
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	p := &Panel{
		sched:  sched,
		wallet: wallet,
		sinks:  sinks,
		opts:   opts,
		msg:    MessagesFor(opts.Locale),
		log:    log.WithField("component", "panel"),
	}
	if gate == nil {
		p.binding = NewBindingWatcher(sched, reader, wallet, opts, log, sinks.Recorder)
		gate = p.binding
	}
	p.gate = gate
	if bw, ok := gate.(*BindingWatcher); ok {
		bw.OnChange(func(bool) { p.gateChanged() })
	}

	p.Poller = NewPoller(sched, reader, wallet, gate, opts, log, sinks.Recorder)
	p.Countdown = NewCountdown(sched, log, sinks.Recorder)
	p.Orchestrator = NewOrchestrator(sched, wallet, p.Poller, sinks, opts, log)
	p.Donation = NewDonationForm(p.Orchestrator, opts)

	p.Poller.OnChange(p.pollerChanged)
	p.Countdown.OnTick(func(int64) { p.changed() })
	p.Countdown.OnElapsed(func() {
		p.log.Debug("cooldown elapsed locally, asking the contract")
		p.Poller.Refresh()
	})
	p.Orchestrator.OnChange(func(Ticket) { p.changed() })
	return p
}

func (p *Panel) OnChange(fn func(View)) { p.listeners = append(p.listeners, fn) }

func (p *Panel) Start() {
	if p.started || p.closed {
		return
	}
	p.started = true
	p.lastBound = p.gate.IsBound()
	if p.binding != nil {
		p.binding.Start()
	}
	p.Poller.Start()
	p.changed()
}

// Close tears down every timer owned by the panel.
func (p *Panel) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.Countdown.Stop()
	p.Poller.Close()
	p.Orchestrator.Close()
	if p.binding != nil {
		p.binding.Close()
	}
}

// Refresh re-reads everything now, e.g. after the host switched wallets.
func (p *Panel) Refresh() {
	if p.closed {
		return
	}
	if p.binding != nil {
		p.binding.poll()
	}
	p.Poller.Refresh()
	p.Poller.RefreshStats()
}

func (p *Panel) gateChanged() {
	bound := p.gate.IsBound()
	if bound && !p.lastBound {
		p.log.Info("identity bound, loading claim state")
		p.Poller.Refresh()
	}
	p.lastBound = bound
	p.changed()
}

// pollerChanged re-seeds the countdown only for a fresh user-info result.
func (p *Panel) pollerChanged(s Snapshot) {
	if s.UserVersion != p.seeded {
		p.seeded = s.UserVersion
		switch {
		case s.User == nil:
			p.Countdown.Stop()
		case s.User.IsEligibleNow:
			p.Countdown.Seed(0)
		default:
			p.Countdown.Seed(s.User.SecondsUntilEligible)
		}
	}
	if b := p.gate.IsBound(); b != p.lastBound {
		p.gateChanged()
		return
	}
	p.changed()
}

func (p *Panel) state() PanelState {
	if _, ok := p.wallet.Address(); !ok {
		return PanelNotConnected
	}
	if !ContractConfigured(p.opts.FaucetAddress) {
		return PanelContractUnconfigured
	}
	if !p.gate.IsBound() {
		return PanelIdentityNotBound
	}
	return PanelReady
}

func (p *Panel) View() View {
	snap := p.Poller.Snapshot()
	cur := p.Orchestrator.Current()
	v := View{
		State:  p.state(),
		Symbol: p.opts.Symbol,
		Ticket: cur,
		Busy:   cur.Status.Busy(),
	}
	if addr, ok := p.wallet.Address(); ok {
		v.Address = addr.Hex()
	}
	if last, ok := p.Orchestrator.Last(); ok {
		v.LastTicket = &last
	}
	if v.Busy {
		v.BusyLabel = p.msg.WaitingConfirmation
		if cur.Status == StatusSubmitted {
			v.BusyLabel = p.msg.PendingSignature
		}
	}
	if snap.Stats != nil {
		v.Stats = StatsView{
			Loaded:       true,
			Balance:      ToDisplayAmount(snap.Stats.Balance),
			TotalClaimed: ToDisplayAmount(snap.Stats.TotalClaimed),
			UniqueUsers:  "0",
		}
		if snap.Stats.UniqueClaimants != nil {
			v.Stats.UniqueUsers = snap.Stats.UniqueClaimants.String()
		}
	}
	v.ClaimAmount = "0"
	if snap.Params != nil {
		v.ClaimAmount = ToDisplayAmount(snap.Params.ClaimAmount)
		v.Cooldown = FormatCountdown(snap.Params.CooldownSeconds, p.opts.Locale)
	}
	in := p.Donation.Input()
	v.Donation = DonationView{
		Open:        p.Donation.IsOpen(),
		Closable:    !(v.Busy && cur.Kind == KindDonate),
		Text:        in.RawText,
		Valid:       in.IsValid,
		CanSubmit:   p.Donation.CanSubmit(),
		SubmitLabel: p.Donation.SubmitLabel(),
		Hint:        p.Donation.RangeHint(),
		Presets:     p.Donation.Presets(),
	}

	switch v.State {
	case PanelNotConnected:
		v.Message = p.msg.ConnectWallet
		return v
	case PanelContractUnconfigured:
		v.Message = p.msg.ContractMissing
		return v
	case PanelIdentityNotBound:
		v.Message = p.msg.BindTitle + "\n" + p.msg.BindBody
		return v
	}

	if snap.User == nil {
		v.Loading = true
		v.Message = p.msg.Loading
		return v
	}
	v.Handle = snap.User.BoundHandle
	v.LastClaim = FormatTimestamp(snap.User.LastClaimTimestamp)
	v.Eligible = snap.Eligible()
	v.Remaining = p.Countdown.Remaining()
	switch {
	case v.Eligible:
		v.Remaining = 0
		v.Countdown = p.msg.ClaimableNow
	case v.Remaining > 0:
		v.Countdown = FormatCountdown(v.Remaining, p.opts.Locale)
	}
	// zero remaining while not eligible: the refresh is in flight, show nothing

	switch {
	case v.Busy && cur.Kind == KindClaim:
		v.ClaimLabel = v.BusyLabel
	case v.Eligible:
		v.ClaimLabel = p.msg.claimLabel(v.ClaimAmount, p.opts.Symbol)
	default:
		v.ClaimLabel = p.msg.WaitCooldown
	}
	v.ClaimEnabled = v.Eligible && !v.Busy
	return v
}

func (p *Panel) changed() {
	if p.closed || len(p.listeners) == 0 {
		return
	}
	v := p.View()
	for _, fn := range p.listeners {
		fn(v)
	}
}

// Claim submits claimTokens when the panel offers it.
func (p *Panel) Claim() (Ticket, error) {
	switch p.state() {
	case PanelNotConnected:
		return Ticket{}, ErrNoWallet
	case PanelContractUnconfigured:
		return Ticket{}, ErrContractUnconfigured
	case PanelIdentityNotBound:
		return Ticket{}, ErrNotEligible
	}
	if p.Orchestrator.Busy() {
		return p.Orchestrator.Current(), ErrBusy
	}
	snap := p.Poller.Snapshot()
	if !snap.Eligible() {
		return Ticket{}, ErrNotEligible
	}
	var expected *big.Int
	if snap.Params != nil {
		expected = snap.Params.ClaimAmount
	}
	return p.Orchestrator.Submit(ClaimAction(expected))
}

func (p *Panel) OpenDonation() {
	p.Donation.Open()
	p.changed()
}

// CloseDonation reports false when the dialog must stay open.
func (p *Panel) CloseDonation() bool {
	ok := p.Donation.Close()
	p.changed()
	return ok
}

func (p *Panel) SetDonationText(s string) DonationInput {
	in := p.Donation.SetText(s)
	p.changed()
	return in
}

func (p *Panel) DonationPreset(i int) (DonationInput, error) {
	in, err := p.Donation.Preset(i)
	p.changed()
	return in, err
}

func (p *Panel) Donate() (Ticket, error) {
	t, err := p.Donation.Submit()
	if errors.Is(err, ErrInvalidAmount) && p.sinks.Notifier != nil {
		p.sinks.Notifier.Notify(p.msg.InvalidTitle, p.msg.InvalidBody, SeverityError)
	}
	p.changed()
	return t, err
}
