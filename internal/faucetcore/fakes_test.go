package faucetcore

import (
	"context"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// manualSched is a deterministic Scheduler: virtual time, explicit release
// of off-loop work.
type manualSched struct {
	now     time.Duration
	posted  []func()
	timers  []*manualTimer
	pending []func() func()
	nextID  int
}

type manualTimer struct {
	id        int
	at        time.Duration
	every     time.Duration
	fn        func()
	cancelled bool
}

func newManualSched() *manualSched { return &manualSched{} }

func (s *manualSched) Post(fn func()) { s.posted = append(s.posted, fn) }

func (s *manualSched) add(d, every time.Duration, fn func()) Cancel {
	s.nextID++
	t := &manualTimer{id: s.nextID, at: s.now + d, every: every, fn: fn}
	s.timers = append(s.timers, t)
	return func() { t.cancelled = true }
}

func (s *manualSched) After(d time.Duration, fn func()) Cancel { return s.add(d, 0, fn) }
func (s *manualSched) Every(d time.Duration, fn func()) Cancel { return s.add(d, d, fn) }
func (s *manualSched) Go(work func() func())                 { s.pending = append(s.pending, work) }

// Flush runs posted callbacks until none are left.
func (s *manualSched) Flush() {
	for len(s.posted) > 0 {
		fn := s.posted[0]
		s.posted = s.posted[1:]
		fn()
	}
}

// Take removes the queued off-loop work without running it.
func (s *manualSched) Take() []func() func() {
	w := s.pending
	s.pending = nil
	return w
}

// Settle runs all off-loop work and its continuations to quiescence.
func (s *manualSched) Settle() {
	s.Flush()
	for len(s.pending) > 0 {
		for _, work := range s.Take() {
			if next := work(); next != nil {
				s.Post(next)
			}
		}
		s.Flush()
	}
}

// Advance moves the clock, firing due timers in order. Off-loop work they
// start stays queued until Settle.
func (s *manualSched) Advance(d time.Duration) {
	target := s.now + d
	for {
		s.compact()
		sort.SliceStable(s.timers, func(i, j int) bool { return s.timers[i].at < s.timers[j].at })
		if len(s.timers) == 0 || s.timers[0].at > target {
			break
		}
		t := s.timers[0]
		s.now = t.at
		if t.every > 0 {
			t.at += t.every
		} else {
			t.cancelled = true
		}
		t.fn()
		s.Flush()
	}
	s.now = target
}

// AdvanceSettled advances one second at a time, settling after each step.
func (s *manualSched) AdvanceSettled(d time.Duration) {
	for step := time.Duration(0); step < d; step += time.Second {
		s.Advance(time.Second)
		s.Settle()
	}
}

func (s *manualSched) compact() {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	s.timers = live
}

func (s *manualSched) ActiveTimers() int {
	s.compact()
	return len(s.timers)
}

type fakeReader struct {
	canClaim bool
	user     UserClaimState
	stats    PoolStats
	params   ClaimParameters
	bound    bool
	errs     map[string]error
	calls    map[string]int
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		errs:  map[string]error{},
		calls: map[string]int{},
		stats: PoolStats{
			Balance:         eth(500),
			TotalClaimed:    eth(42),
			UniqueClaimants: big.NewInt(7),
		},
		params: ClaimParameters{ClaimAmount: eth(1), CooldownSeconds: 86400},
	}
}

func (r *fakeReader) CanClaim(_ context.Context, _ common.Address) (bool, error) {
	r.calls[SourceEligibility]++
	return r.canClaim, r.errs[SourceEligibility]
}

func (r *fakeReader) UserInfo(_ context.Context, _ common.Address) (UserClaimState, error) {
	r.calls[SourceUserInfo]++
	return r.user, r.errs[SourceUserInfo]
}

func (r *fakeReader) FaucetStats(context.Context) (PoolStats, error) {
	r.calls[SourceStats]++
	return r.stats.clone(), r.errs[SourceStats]
}

func (r *fakeReader) ClaimParameters(context.Context) (ClaimParameters, error) {
	r.calls[SourceParams]++
	return r.params, r.errs[SourceParams]
}

func (r *fakeReader) IsWalletBound(_ context.Context, _ common.Address) (bool, error) {
	r.calls[SourceBinding]++
	return r.bound, r.errs[SourceBinding]
}

type fakeWallet struct {
	addr      common.Address
	connected bool
	hash      common.Hash
	submitErr error
	statuses  []TxStatus
	submits   []Call
	watches   int
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{
		addr:      common.HexToAddress("0x00000000000000000000000000000000000000a1"),
		connected: true,
		hash:      common.HexToHash("0xbeef"),
	}
}

func (w *fakeWallet) Address() (common.Address, bool) { return w.addr, w.connected }

func (w *fakeWallet) SubmitTransaction(_ context.Context, call Call) (common.Hash, error) {
	w.submits = append(w.submits, call)
	if w.submitErr != nil {
		return common.Hash{}, w.submitErr
	}
	return w.hash, nil
}

func (w *fakeWallet) WatchTransaction(_ context.Context, hash common.Hash) <-chan TxStatus {
	w.watches++
	ch := make(chan TxStatus, len(w.statuses))
	for _, st := range w.statuses {
		st.Hash = hash
		ch <- st
	}
	close(ch)
	return ch
}

type note struct {
	title, body string
	sev         Severity
}

type fakeNotifier struct{ notes []note }

func (n *fakeNotifier) Notify(title, body string, sev Severity) {
	n.notes = append(n.notes, note{title, body, sev})
}

type fakeJournal struct{ tickets []Ticket }

func (j *fakeJournal) Append(t Ticket) error {
	j.tickets = append(j.tickets, t)
	return nil
}

type fakeRefresher struct{ refresh, stats int }

func (r *fakeRefresher) Refresh()      { r.refresh++ }
func (r *fakeRefresher) RefreshStats() { r.stats++ }

func testLog() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

var testFaucet = common.HexToAddress("0x00000000000000000000000000000000000000f1")
var testRegistry = common.HexToAddress("0x00000000000000000000000000000000000000b1")

func testOptions() Options {
	return Options{FaucetAddress: testFaucet, BindingAddress: testRegistry}
}
