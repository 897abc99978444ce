package faucetcore

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Kind of on-chain action.
type Kind int

const (
	KindClaim Kind = iota
	KindDonate
)

func (k Kind) String() string {
	if k == KindDonate {
		return "donate"
	}
	return "claim"
}

// Status of a ticket. Submitted is the dispatch phase: the request is with
// the wallet and Hash stays zero until the wallet accepts it and hands back
// a transaction hash. Confirming starts with that hash and lasts until the
// receipt is seen.
type Status int

const (
	StatusIdle Status = iota
	StatusSubmitted
	StatusConfirming
	StatusConfirmed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSubmitted:
		return "submitted"
	case StatusConfirming:
		return "confirming"
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	}
	return "idle"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "claim":
		*k = KindClaim
	case "donate":
		*k = KindDonate
	default:
		return fmt.Errorf("unknown kind %q", b)
	}
	return nil
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	for st := StatusIdle; st <= StatusFailed; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

func (s Status) Busy() bool     { return s == StatusSubmitted || s == StatusConfirming }
func (s Status) Terminal() bool { return s == StatusConfirmed || s == StatusFailed }

// Ticket tracks one transaction from dispatch to its terminal state.
type Ticket struct {
	ID      string      `json:"id"`
	Kind    Kind        `json:"kind"`
	Amount  *big.Int    `json:"amount,omitempty"`
	Wallet  string      `json:"wallet"`
	Hash    common.Hash `json:"hash"`
	Status  Status      `json:"status"`
	Block   uint64      `json:"block,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Err     error       `json:"-"`
	Created time.Time   `json:"created"`
	Updated time.Time   `json:"updated"`
}

// Action is what the user asked for. Amount is the value sent for a
// donation and the expected payout for a claim (display only).
type Action struct {
	Kind   Kind
	Amount *big.Int
}

func ClaimAction(expected *big.Int) Action { return Action{Kind: KindClaim, Amount: expected} }
func DonateAction(amount *big.Int) Action  { return Action{Kind: KindDonate, Amount: amount} }

// Refresher is the part of the poller the orchestrator drives.
type Refresher interface {
	Refresh()
	RefreshStats()
}

// Sinks are the optional side-effect collaborators.
type Sinks struct {
	Notifier Notifier
	Journal  Journal
	Recorder Recorder
}

// Orchestrator submits one transaction at a time and fires the terminal
// side effects exactly once per ticket.
type Orchestrator struct {
	sched     Scheduler
	wallet    Wallet
	refresher Refresher
	sinks     Sinks
	opts      Options
	msg       Messages
	log       *logrus.Entry
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	cur    Ticket
	last   *Ticket
	settle []Cancel
	closed bool

	onChange    []func(Ticket)
	onConfirmed []func(Ticket)
	onFailed    []func(Ticket)
}

func NewOrchestrator(sched Scheduler, wallet Wallet, refresher Refresher, sinks Sinks, opts Options, log *logrus.Entry) *Orchestrator {
	if sinks.Recorder == nil {
		sinks.Recorder = nopRecorder{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		sched:     sched,
		wallet:    wallet,
		refresher: refresher,
		sinks:     sinks,
		opts:      opts,
		msg:       MessagesFor(opts.Locale),
		log:       log.WithField("component", "orchestrator"),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (o *Orchestrator) OnChange(fn func(Ticket))    { o.onChange = append(o.onChange, fn) }
func (o *Orchestrator) OnConfirmed(fn func(Ticket)) { o.onConfirmed = append(o.onConfirmed, fn) }
func (o *Orchestrator) OnFailed(fn func(Ticket))    { o.onFailed = append(o.onFailed, fn) }

func (o *Orchestrator) Busy() bool      { return o.cur.Status.Busy() }
func (o *Orchestrator) Current() Ticket { return o.cur }

// Last returns the most recent terminal ticket.
func (o *Orchestrator) Last() (Ticket, bool) {
	if o.last == nil {
		return Ticket{}, false
	}
	return *o.last, true
}

// Submit dispatches a to the wallet. While a ticket is in flight it
// returns that ticket and ErrBusy.
func (o *Orchestrator) Submit(a Action) (Ticket, error) {
	if o.closed {
		return Ticket{}, errors.New("orchestrator closed")
	}
	if o.Busy() {
		return o.cur, ErrBusy
	}
	from, ok := o.wallet.Address()
	if !ok {
		return Ticket{}, ErrNoWallet
	}
	if !ContractConfigured(o.opts.FaucetAddress) {
		return Ticket{}, ErrContractUnconfigured
	}
	call := Call{Contract: o.opts.FaucetAddress, Method: "claimTokens"}
	if a.Kind == KindDonate {
		if a.Amount == nil || a.Amount.Sign() <= 0 {
			return Ticket{}, &InputError{Input: ToDisplayAmount(a.Amount), Err: ErrInvalidAmount}
		}
		call.Method = "fundFaucet"
		call.Value = new(big.Int).Set(a.Amount)
	}

	now := o.now()
	o.cur = Ticket{
		ID:      uuid.NewString(),
		Kind:    a.Kind,
		Amount:  cloneBig(a.Amount),
		Wallet:  from.Hex(),
		Status:  StatusSubmitted,
		Created: now,
		Updated: now,
	}
	id := o.cur.ID
	o.log.WithFields(logrus.Fields{"ticket": id, "kind": a.Kind, "method": call.Method}).Info("submitting")
	o.changed()

	parent, timeout := o.ctx, o.opts.TxTimeout
	o.sched.Go(func() func() {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		hash, err := o.wallet.SubmitTransaction(ctx, call)
		return func() { o.submitted(id, hash, err) }
	})
	return o.cur, nil
}

func (o *Orchestrator) submitted(id string, hash common.Hash, err error) {
	if o.closed || o.cur.ID != id || o.cur.Status != StatusSubmitted {
		return
	}
	if err != nil {
		o.finish(id, StatusFailed, 0, &SubmissionError{Kind: o.cur.Kind, Err: err})
		return
	}
	o.cur.Hash = hash
	o.cur.Status = StatusConfirming
	o.cur.Updated = o.now()
	o.log.WithFields(logrus.Fields{"ticket": id, "tx": hash.Hex()}).Info("sent, waiting for receipt")
	o.changed()
	o.watch(id, hash)
}

func (o *Orchestrator) watch(id string, hash common.Hash) {
	parent, timeout := o.ctx, o.opts.TxTimeout
	o.sched.Go(func() func() {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		terminal := false
		for st := range o.wallet.WatchTransaction(ctx, hash) {
			st := st
			terminal = terminal || st.Terminal()
			o.sched.Post(func() { o.observe(id, st) })
		}
		if terminal {
			return nil
		}
		err := ctx.Err()
		if err == nil {
			err = errors.New("receipt stream closed without result")
		}
		return func() { o.observe(id, TxStatus{Hash: hash, Phase: TxError, Err: err}) }
	})
}

// Observe feeds a watch status for the ticket with the given id. Statuses
// for anything but the in-flight ticket, including repeats of an already
// handled terminal status, are ignored.
func (o *Orchestrator) Observe(id string, st TxStatus) { o.observe(id, st) }

func (o *Orchestrator) observe(id string, st TxStatus) {
	if o.closed || o.cur.ID != id || !o.cur.Status.Busy() {
		o.log.WithFields(logrus.Fields{"ticket": id, "phase": st.Phase}).Debug("status for settled ticket ignored")
		return
	}
	switch st.Phase {
	case TxPending:
		o.log.WithField("tx", st.Hash.Hex()).Debug("still pending")
	case TxMined:
		o.finish(id, StatusConfirmed, st.BlockNumber, nil)
	case TxReverted:
		o.finish(id, StatusFailed, st.BlockNumber, &ConfirmationError{Hash: o.cur.Hash, Reason: st.Reason, Err: ErrReverted})
	default:
		err := st.Err
		if err == nil {
			err = ErrProviderError
		}
		o.finish(id, StatusFailed, st.BlockNumber, &ConfirmationError{Hash: o.cur.Hash, Reason: st.Reason, Err: err})
	}
}

func (o *Orchestrator) finish(id string, status Status, block uint64, err error) {
	t := o.cur
	t.Status = status
	t.Block = block
	t.Err = err
	t.Reason = HumanReason(err)
	t.Updated = o.now()
	o.last = &t
	o.cur = Ticket{}

	fields := logrus.Fields{"ticket": id, "kind": t.Kind, "tx": t.Hash.Hex(), "status": status}
	outcome := "confirmed"
	if err != nil {
		outcome = "failed"
		if errors.Is(err, ErrUserRejected) {
			outcome = "rejected"
		}
		o.log.WithFields(fields).WithError(err).Error("transaction failed")
	} else {
		o.log.WithFields(fields).WithField("block", block).Info("transaction confirmed")
	}
	o.sinks.Recorder.TxDone(t.Kind.String(), outcome)
	if o.sinks.Journal != nil {
		if jerr := o.sinks.Journal.Append(t); jerr != nil {
			o.log.WithError(jerr).Warn("journal append failed")
		}
	}
	o.notifyTerminal(t)

	if status == StatusConfirmed {
		if o.refresher != nil {
			o.refresher.Refresh()
			if t.Kind == KindDonate {
				o.settle = append(o.settle, o.sched.After(o.opts.StatsSettle, o.refresher.RefreshStats))
			}
		}
		for _, fn := range o.onConfirmed {
			fn(t)
		}
	} else {
		for _, fn := range o.onFailed {
			fn(t)
		}
	}
	o.changed()
}

func (o *Orchestrator) notifyTerminal(t Ticket) {
	if o.sinks.Notifier == nil {
		return
	}
	amount := ToDisplayAmount(t.Amount)
	if t.Status == StatusConfirmed {
		if t.Kind == KindDonate {
			o.sinks.Notifier.Notify(o.msg.DonateOKTitle, fmt.Sprintf(o.msg.DonateOKFmt, amount, o.opts.Symbol), SeveritySuccess)
		} else {
			o.sinks.Notifier.Notify(o.msg.ClaimOKTitle, fmt.Sprintf(o.msg.ClaimOKFmt, amount, o.opts.Symbol), SeveritySuccess)
		}
		return
	}
	title, body := o.msg.ClaimFailTitle, o.msg.ClaimFailMsg
	var se *SubmissionError
	switch {
	case t.Kind == KindDonate:
		title, body = o.msg.DonateFailTitle, o.msg.DonateFail
	case errors.As(t.Err, &se):
		title, body = o.msg.TxFailTitle, o.msg.TxFailMsg
	}
	if errors.Is(t.Err, ErrUserRejected) {
		body = o.msg.Rejected
	} else if t.Reason != "" {
		body += ": " + t.Reason
	}
	o.sinks.Notifier.Notify(title, body, SeverityError)
}

func (o *Orchestrator) changed() {
	for _, fn := range o.onChange {
		fn(o.cur)
	}
}

// Close abandons the in-flight ticket and cancels the delayed stats refresh.
func (o *Orchestrator) Close() {
	if o.closed {
		return
	}
	o.closed = true
	for _, c := range o.settle {
		c()
	}
	o.settle = nil
	o.cancel()
}
