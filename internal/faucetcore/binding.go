package faucetcore

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// BindingWatcher polls isWalletBound on the registry contract and serves
// as the panel's IdentityGate. An unset registry address means unbound.
type BindingWatcher struct {
	sched  Scheduler
	reader ContractReader
	wallet Wallet
	opts   Options
	log    *logrus.Entry
	rec    Recorder

	ctx    context.Context
	cancel context.CancelFunc

	addr     common.Address
	bound    bool
	seq      seqState
	stop     Cancel
	onChange []func(bool)
	closed   bool
}

func NewBindingWatcher(sched Scheduler, reader ContractReader, wallet Wallet, opts Options, log *logrus.Entry, rec Recorder) *BindingWatcher {
	if rec == nil {
		rec = nopRecorder{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BindingWatcher{
		sched:  sched,
		reader: reader,
		wallet: wallet,
		opts:   opts.withDefaults(),
		log:    log.WithField("component", "binding"),
		rec:    rec,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (b *BindingWatcher) IsBound() bool { return b.bound }

// OnChange fires when the bound flag flips.
func (b *BindingWatcher) OnChange(fn func(bool)) { b.onChange = append(b.onChange, fn) }

func (b *BindingWatcher) Start() {
	if b.stop != nil || b.closed {
		return
	}
	if !ContractConfigured(b.opts.BindingAddress) {
		b.log.Warn("binding registry address not set, identity stays unbound")
	}
	b.stop = b.sched.Every(b.opts.BindingEvery, b.poll)
	b.poll()
}

func (b *BindingWatcher) Close() {
	if b.closed {
		return
	}
	b.closed = true
	if b.stop != nil {
		b.stop()
	}
	b.cancel()
}

func (b *BindingWatcher) set(v bool) {
	if v == b.bound {
		return
	}
	b.bound = v
	b.log.WithFields(logrus.Fields{"wallet": b.addr.Hex(), "bound": v}).Info("binding changed")
	for _, fn := range b.onChange {
		fn(v)
	}
}

func (b *BindingWatcher) poll() {
	if b.closed {
		return
	}
	addr, ok := b.wallet.Address()
	if !ok {
		addr = common.Address{}
	}
	if addr != b.addr {
		b.addr = addr
		b.seq.floor = b.seq.issued + 1
		b.set(false)
	}
	if !ok || !ContractConfigured(b.opts.FaucetAddress) || !ContractConfigured(b.opts.BindingAddress) {
		return
	}
	b.seq.issued++
	seq := b.seq.issued
	parent, timeout := b.ctx, b.opts.QueryTimeout
	b.sched.Go(func() func() {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		bound, err := b.reader.IsWalletBound(ctx, addr)
		return func() {
			if b.closed {
				return
			}
			b.rec.PollDone(SourceBinding, err)
			if err != nil {
				b.log.WithError(&QueryError{Source: SourceBinding, Err: err}).Warn("binding check failed")
				return
			}
			if seq <= b.seq.applied || seq < b.seq.floor || addr != b.addr {
				return
			}
			b.seq.applied = seq
			b.set(bound)
		}
	})
}
