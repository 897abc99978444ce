package faucetcore

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

const (
	SourceEligibility = "eligibility"
	SourceUserInfo    = "userinfo"
	SourceStats       = "stats"
	SourceParams      = "params"
	SourceBinding     = "binding"
)

// Snapshot is a copy of everything the poller knows. Nil pointers mean
// "not loaded yet".
type Snapshot struct {
	Address   common.Address
	Connected bool

	CanClaim      bool
	CanClaimKnown bool
	User          *UserClaimState
	UserVersion   uint64 // bumped on every applied user-info response and on wallet change
	Stats         *PoolStats
	Params        *ClaimParameters
}

// Eligible combines both per-user sources. When they disagree the poller
// is already re-querying, so the conservative answer is shown meanwhile.
func (s Snapshot) Eligible() bool {
	if s.User == nil {
		return false
	}
	if s.CanClaimKnown {
		return s.User.IsEligibleNow && s.CanClaim
	}
	return s.User.IsEligibleNow
}

// seqState versions the responses of one source. A response applies only
// if it is newer than the last applied one and not older than floor, which
// Refresh raises past everything already in flight.
type seqState struct {
	issued   uint64
	applied  uint64
	floor    uint64
	inflight int
}

// Poller keeps UserClaimState, PoolStats and ClaimParameters fresh.
type Poller struct {
	sched  Scheduler
	reader ContractReader
	wallet Wallet
	gate   IdentityGate
	opts   Options
	log    *logrus.Entry
	rec    Recorder

	ctx    context.Context
	cancel context.CancelFunc

	seq       map[string]*seqState
	addr      common.Address
	connected bool

	canClaim      bool
	canClaimKnown bool
	user          *UserClaimState
	userVersion   uint64
	stats         *PoolStats
	params        *ClaimParameters

	timers    []Cancel
	listeners []func(Snapshot)
	started   bool
	closed    bool
}

func NewPoller(sched Scheduler, reader ContractReader, wallet Wallet, gate IdentityGate, opts Options, log *logrus.Entry, rec Recorder) *Poller {
	if rec == nil {
		rec = nopRecorder{}
	}
	if gate == nil {
		gate = StaticGate(true)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		sched:  sched,
		reader: reader,
		wallet: wallet,
		gate:   gate,
		opts:   opts.withDefaults(),
		log:    log.WithField("component", "poller"),
		rec:    rec,
		ctx:    ctx,
		cancel: cancel,
		seq:    map[string]*seqState{},
	}
	for _, s := range []string{SourceEligibility, SourceUserInfo, SourceStats, SourceParams} {
		p.seq[s] = &seqState{}
	}
	return p
}

// OnChange registers fn to run after every applied response or reset.
func (p *Poller) OnChange(fn func(Snapshot)) { p.listeners = append(p.listeners, fn) }

// Start arms the three cadences and issues a first round immediately.
func (p *Poller) Start() {
	if p.started || p.closed {
		return
	}
	p.started = true
	p.timers = append(p.timers,
		p.sched.Every(p.opts.EligibilityEvery, p.pollEligibility),
		p.sched.Every(p.opts.UserInfoEvery, p.pollUserInfo),
		p.sched.Every(p.opts.StatsEvery, p.pollStats),
	)
	p.pollEligibility()
	p.pollUserInfo()
	p.pollStats()
}

// Close cancels timers and in-flight queries. Late responses are dropped.
func (p *Poller) Close() {
	if p.closed {
		return
	}
	p.closed = true
	for _, c := range p.timers {
		c()
	}
	p.timers = nil
	p.cancel()
}

// Refresh re-queries the per-user sources now. Anything already in flight
// is superseded.
func (p *Poller) Refresh() {
	if p.closed {
		return
	}
	p.log.Debug("forced refresh")
	for _, s := range []string{SourceEligibility, SourceUserInfo} {
		st := p.seq[s]
		st.floor = st.issued + 1
	}
	p.pollEligibility()
	p.pollUserInfo()
}

// RefreshStats re-queries pool statistics now.
func (p *Poller) RefreshStats() {
	if p.closed {
		return
	}
	st := p.seq[SourceStats]
	st.floor = st.issued + 1
	p.pollStats()
}

func (p *Poller) Snapshot() Snapshot {
	s := Snapshot{
		Address:       p.addr,
		Connected:     p.connected,
		CanClaim:      p.canClaim,
		CanClaimKnown: p.canClaimKnown,
		UserVersion:   p.userVersion,
	}
	if p.user != nil {
		u := *p.user
		s.User = &u
	}
	if p.stats != nil {
		st := p.stats.clone()
		s.Stats = &st
	}
	if p.params != nil {
		s.Params = &ClaimParameters{ClaimAmount: cloneBig(p.params.ClaimAmount), CooldownSeconds: p.params.CooldownSeconds}
	}
	return s
}

// syncWallet picks up runtime wallet changes. A new address drops all
// per-user data and supersedes in-flight user queries.
func (p *Poller) syncWallet() {
	addr, ok := p.wallet.Address()
	if !ok {
		addr = common.Address{}
	}
	if ok == p.connected && addr == p.addr {
		return
	}
	p.log.WithFields(logrus.Fields{"from": p.addr.Hex(), "to": addr.Hex(), "connected": ok}).Info("wallet changed")
	p.addr, p.connected = addr, ok
	p.user = nil
	p.canClaim, p.canClaimKnown = false, false
	p.userVersion++
	for _, s := range []string{SourceEligibility, SourceUserInfo} {
		st := p.seq[s]
		st.floor = st.issued + 1
	}
	p.notify()
}

// active is checked before every query, not only at Start.
func (p *Poller) active() bool {
	if p.closed {
		return false
	}
	p.syncWallet()
	return p.connected && ContractConfigured(p.opts.FaucetAddress)
}

func (p *Poller) userActive() bool {
	return p.active() && p.gate.IsBound()
}

func (p *Poller) pollEligibility() {
	if !p.userActive() {
		return
	}
	addr := p.addr
	p.query(SourceEligibility, addr, func(ctx context.Context) (func(), error) {
		ok, err := p.reader.CanClaim(ctx, addr)
		if err != nil {
			return nil, err
		}
		return func() {
			p.canClaim, p.canClaimKnown = ok, true
			p.reconcile()
		}, nil
	})
}

func (p *Poller) pollUserInfo() {
	if !p.userActive() {
		return
	}
	addr := p.addr
	p.query(SourceUserInfo, addr, func(ctx context.Context) (func(), error) {
		u, err := p.reader.UserInfo(ctx, addr)
		if err != nil {
			return nil, err
		}
		u.Address = addr
		if u.SecondsUntilEligible < 0 {
			u.SecondsUntilEligible = 0
		}
		return func() {
			p.user = &u
			p.userVersion++
		}, nil
	})
}

func (p *Poller) pollStats() {
	if !p.active() {
		return
	}
	p.query(SourceStats, common.Address{}, func(ctx context.Context) (func(), error) {
		st, err := p.reader.FaucetStats(ctx)
		if err != nil {
			return nil, err
		}
		return func() { p.stats = &st }, nil
	})
	if p.params == nil && p.seq[SourceParams].inflight == 0 {
		p.query(SourceParams, common.Address{}, func(ctx context.Context) (func(), error) {
			cp, err := p.reader.ClaimParameters(ctx)
			if err != nil {
				return nil, err
			}
			return func() { p.params = &cp }, nil
		})
	}
}

// reconcile re-reads user info when the fast canClaim answer contradicts it.
func (p *Poller) reconcile() {
	if p.user == nil || p.user.IsEligibleNow == p.canClaim {
		return
	}
	if p.seq[SourceUserInfo].inflight > 0 {
		return
	}
	p.log.WithFields(logrus.Fields{"canClaim": p.canClaim, "userinfo": p.user.IsEligibleNow}).Debug("eligibility disagrees, re-reading user info")
	p.pollUserInfo()
}

// query runs fetch off the scheduler. addr is the wallet the query was
// issued for, zero for global sources.
func (p *Poller) query(source string, addr common.Address, fetch func(ctx context.Context) (func(), error)) {
	st := p.seq[source]
	st.issued++
	seq := st.issued
	st.inflight++
	parent := p.ctx
	timeout := p.opts.QueryTimeout
	p.log.WithFields(logrus.Fields{"source": source, "seq": seq}).Debug("poll")
	p.sched.Go(func() func() {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		apply, err := fetch(ctx)
		return func() {
			st.inflight--
			if p.closed {
				return
			}
			p.rec.PollDone(source, err)
			if err != nil {
				p.log.WithError(&QueryError{Source: source, Err: err}).Warn("poll failed, keeping last value")
				return
			}
			if seq <= st.applied || seq < st.floor {
				p.log.WithFields(logrus.Fields{"source": source, "seq": seq, "applied": st.applied, "floor": st.floor}).Debug("stale response dropped")
				return
			}
			if addr != (common.Address{}) && addr != p.addr {
				p.log.WithField("source", source).Debug("response for previous wallet dropped")
				return
			}
			st.applied = seq
			apply()
			p.notify()
		}
	})
}

func (p *Poller) notify() {
	if len(p.listeners) == 0 {
		return
	}
	snap := p.Snapshot()
	for _, fn := range p.listeners {
		fn(snap)
	}
}
