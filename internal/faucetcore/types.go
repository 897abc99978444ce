package faucetcore

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// UserClaimState is the per-user view returned by getUserInfo.
// It is always replaced wholesale, never patched.
type UserClaimState struct {
	Address              common.Address
	BoundHandle          string // "" when the contract has no handle for the wallet
	LastClaimTimestamp   int64  // unix seconds, 0 = never
	IsEligibleNow        bool
	SecondsUntilEligible int64
}

// PoolStats is the global faucet state.
type PoolStats struct {
	Balance         *big.Int
	TotalClaimed    *big.Int
	UniqueClaimants *big.Int
	Registry        common.Address
}

func (p PoolStats) clone() PoolStats {
	return PoolStats{
		Balance:         cloneBig(p.Balance),
		TotalClaimed:    cloneBig(p.TotalClaimed),
		UniqueClaimants: cloneBig(p.UniqueClaimants),
		Registry:        p.Registry,
	}
}

// ClaimParameters are fetched once per session.
type ClaimParameters struct {
	ClaimAmount     *big.Int
	CooldownSeconds int64
}

func cloneBig(x *big.Int) *big.Int {
	if x == nil {
		return nil
	}
	return new(big.Int).Set(x)
}

// ContractReader executes the read-only faucet and binding registry queries.
type ContractReader interface {
	CanClaim(ctx context.Context, user common.Address) (bool, error)
	UserInfo(ctx context.Context, user common.Address) (UserClaimState, error)
	FaucetStats(ctx context.Context) (PoolStats, error)
	ClaimParameters(ctx context.Context) (ClaimParameters, error)
	IsWalletBound(ctx context.Context, wallet common.Address) (bool, error)
}

// Call is a state-changing contract invocation handed to the wallet.
type Call struct {
	Contract common.Address
	Method   string // ABI method name: claimTokens, fundFaucet
	Args     []any
	Value    *big.Int
}

// TxPhase is the phase reported by a transaction watch stream.
type TxPhase int

const (
	TxPending TxPhase = iota
	TxMined
	TxReverted
	TxError
)

func (p TxPhase) String() string {
	switch p {
	case TxPending:
		return "pending"
	case TxMined:
		return "mined"
	case TxReverted:
		return "reverted"
	case TxError:
		return "error"
	}
	return "unknown"
}

// TxStatus is one element of a watch stream. Reason carries the provider's
// revert text when known.
type TxStatus struct {
	Hash        common.Hash
	Phase       TxPhase
	BlockNumber uint64
	Reason      string
	Err         error
}

// Terminal reports whether no further updates follow.
func (s TxStatus) Terminal() bool { return s.Phase != TxPending }

// Wallet is the wallet provider: connected address, submission, receipts.
// WatchTransaction streams statuses until a terminal one and then closes the channel.
type Wallet interface {
	Address() (common.Address, bool)
	SubmitTransaction(ctx context.Context, call Call) (common.Hash, error)
	WatchTransaction(ctx context.Context, hash common.Hash) <-chan TxStatus
}

// NoWallet is a permanently disconnected wallet, for read-only sessions.
var NoWallet Wallet = noWallet{}

type noWallet struct{}

func (noWallet) Address() (common.Address, bool) { return common.Address{}, false }

func (noWallet) SubmitTransaction(context.Context, Call) (common.Hash, error) {
	return common.Hash{}, ErrNoWallet
}

func (noWallet) WatchTransaction(context.Context, common.Hash) <-chan TxStatus {
	ch := make(chan TxStatus)
	close(ch)
	return ch
}

// Severity of a user-facing notification.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityError:
		return "error"
	}
	return "info"
}

// Notifier is fire-and-forget; delivery failures are the sink's business.
type Notifier interface {
	Notify(title, body string, sev Severity)
}

// Journal records terminal tickets.
type Journal interface {
	Append(t Ticket) error
}

// Recorder receives operational counters.
type Recorder interface {
	PollDone(source string, err error)
	TxDone(kind string, outcome string)
	Countdown(seconds int64)
}

type nopRecorder struct{}

func (nopRecorder) PollDone(string, error) {}
func (nopRecorder) TxDone(string, string)  {}
func (nopRecorder) Countdown(int64)        {}

// IdentityGate reports whether the connected wallet has a bound identity.
type IdentityGate interface {
	IsBound() bool
}

// StaticGate is an IdentityGate with a fixed answer.
type StaticGate bool

func (g StaticGate) IsBound() bool { return bool(g) }

// ContractConfigured reports whether addr is a usable contract address.
// The zero address stands for an unset or placeholder value.
func ContractConfigured(addr common.Address) bool {
	return addr != (common.Address{})
}

// ParseContractAddress turns an env value into an address; placeholders
// ("", "0x...", malformed) map to the zero address.
func ParseContractAddress(s string) common.Address {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, "...") || !common.IsHexAddress(s) {
		return common.Address{}
	}
	return common.HexToAddress(s)
}

// Options configures the core components. Zero values fall back to defaults.
type Options struct {
	FaucetAddress  common.Address
	BindingAddress common.Address

	EligibilityEvery time.Duration
	UserInfoEvery    time.Duration
	StatsEvery       time.Duration
	BindingEvery     time.Duration
	StatsSettle      time.Duration
	QueryTimeout     time.Duration
	TxTimeout        time.Duration

	DonationMin decimal.Decimal
	DonationMax decimal.Decimal
	Presets     []string

	Symbol string
	Locale Locale
}

func (o Options) withDefaults() Options {
	if o.EligibilityEvery <= 0 {
		o.EligibilityEvery = 5 * time.Second
	}
	if o.UserInfoEvery <= 0 {
		o.UserInfoEvery = 5 * time.Second
	}
	if o.StatsEvery <= 0 {
		o.StatsEvery = 10 * time.Second
	}
	if o.BindingEvery <= 0 {
		o.BindingEvery = 3 * time.Second
	}
	if o.StatsSettle <= 0 {
		o.StatsSettle = 2 * time.Second
	}
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = 15 * time.Second
	}
	if o.TxTimeout <= 0 {
		o.TxTimeout = 5 * time.Minute
	}
	if o.DonationMin.Sign() <= 0 {
		o.DonationMin = decimal.New(1, -3)
	}
	if o.DonationMax.Sign() <= 0 {
		o.DonationMax = decimal.NewFromInt(1000)
	}
	if o.Presets == nil {
		o.Presets = []string{"1", "5", "10", "20", "100"}
	}
	if o.Symbol == "" {
		o.Symbol = "MON"
	}
	if o.Locale == "" {
		o.Locale = LocaleZH
	}
	return o
}
