package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ligun0805/x-faucet/internal/chain"
	"github.com/ligun0805/x-faucet/internal/faucetcore"
)

// Settings keeps all configuration options.
// Contract addresses stay raw so placeholders like "0x..." can be reported.
type Settings struct {
	RPCURL          string
	ChainID         int64 // 0 = ask the node
	FaucetAddress   string
	BindingAddress  string
	WalletKeyHex    string
	EligibilityMS   int64
	UserInfoMS      int64
	StatsMS         int64
	BindingMS       int64
	StatsSettleMS   int64
	ReceiptPollMS   int64
	ReceiptTimeoutS int64
	TipGwei         int64
	BasefeeMul      int64
	BufferPct       int64
	DonationMin     string
	DonationMax     string
	DonationPresets []string
	TokenSymbol     string
	Locale          string
	JournalPath     string
	MetricsAddr     string
	AlertWebhookURL string
	InfoWebhookURL  string
	LogLevel        string
	LogFormat       string
}

// Load reads settings from environment supporting both UPPER_CASE and lower_case keys.
func Load() Settings {
	get := func(keys []string, def string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				return v
			}
		}
		return def
	}
	getInt64 := func(keys []string, def int64) int64 {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return n
		}
		return def
	}
	splitCSV := func(s string) []string {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	st := Settings{}
	st.RPCURL = get([]string{"rpc_url", "RPC_URL"}, "https://testnet-rpc.monad.xyz")
	st.ChainID = getInt64([]string{"chain_id", "CHAIN_ID"}, 0)
	st.FaucetAddress = get([]string{"faucet_contract_address", "FAUCET_CONTRACT_ADDRESS"}, "0x...")
	st.BindingAddress = get([]string{"binding_contract_address", "BINDING_CONTRACT_ADDRESS"}, "0x...")
	st.WalletKeyHex = get([]string{"wallet_private_key", "WALLET_PRIVATE_KEY"}, "")

	st.EligibilityMS = getInt64([]string{"eligibility_poll_ms", "ELIGIBILITY_POLL_MS"}, 5000)
	st.UserInfoMS = getInt64([]string{"userinfo_poll_ms", "USERINFO_POLL_MS"}, 5000)
	st.StatsMS = getInt64([]string{"stats_poll_ms", "STATS_POLL_MS"}, 10000)
	st.BindingMS = getInt64([]string{"binding_poll_ms", "BINDING_POLL_MS"}, 3000)
	st.StatsSettleMS = getInt64([]string{"stats_settle_ms", "STATS_SETTLE_MS"}, 2000)
	st.ReceiptPollMS = getInt64([]string{"receipt_poll_ms", "RECEIPT_POLL_MS"}, 1500)
	st.ReceiptTimeoutS = getInt64([]string{"receipt_timeout_s", "RECEIPT_TIMEOUT_S"}, 180)

	st.TipGwei = getInt64([]string{"tip_gwei", "TIP_GWEI"}, 2)
	st.BasefeeMul = getInt64([]string{"basefee_mul", "BASEFEE_MUL"}, 2)
	st.BufferPct = getInt64([]string{"gas_buffer_pct", "GAS_BUFFER_PCT"}, 20)

	st.DonationMin = get([]string{"donation_min", "DONATION_MIN"}, "0.001")
	st.DonationMax = get([]string{"donation_max", "DONATION_MAX"}, "1000")
	st.DonationPresets = splitCSV(get([]string{"donation_presets", "DONATION_PRESETS"}, "1,5,10,20,100"))
	st.TokenSymbol = get([]string{"token_symbol", "TOKEN_SYMBOL"}, "MON")
	st.Locale = get([]string{"locale", "LOCALE"}, "zh")

	st.JournalPath = get([]string{"journal_path", "JOURNAL_PATH"}, "db/faucet-journal")
	st.MetricsAddr = get([]string{"metrics_addr", "METRICS_ADDR"}, "")
	st.AlertWebhookURL = get([]string{"alert_webhook_url", "ALERT_WEBHOOK_URL"}, "")
	st.InfoWebhookURL = get([]string{"info_webhook_url", "INFO_WEBHOOK_URL"}, "")
	st.LogLevel = get([]string{"log_level", "LOG_LEVEL"}, "info")
	st.LogFormat = get([]string{"log_format", "LOG_FORMAT"}, "text")

	return st
}

// Validate reports settings the client cannot run with. Unconfigured
// contracts are not errors; see Placeholders.
func (s Settings) Validate() error {
	var errs []error
	if s.RPCURL == "" {
		errs = append(errs, errors.New("RPC_URL is empty"))
	}
	if s.ChainID < 0 {
		errs = append(errs, fmt.Errorf("CHAIN_ID %d is negative", s.ChainID))
	}
	lo, errLo := decimal.NewFromString(s.DonationMin)
	hi, errHi := decimal.NewFromString(s.DonationMax)
	switch {
	case errLo != nil:
		errs = append(errs, fmt.Errorf("DONATION_MIN %q: %w", s.DonationMin, errLo))
	case errHi != nil:
		errs = append(errs, fmt.Errorf("DONATION_MAX %q: %w", s.DonationMax, errHi))
	case lo.Sign() <= 0 || hi.LessThan(lo):
		errs = append(errs, fmt.Errorf("donation bounds [%s, %s] are not a positive range", s.DonationMin, s.DonationMax))
	}
	for _, p := range s.DonationPresets {
		if _, err := faucetcore.ParseAmount(p); err != nil {
			errs = append(errs, fmt.Errorf("DONATION_PRESETS %q: %w", p, err))
		}
	}
	for name, v := range map[string]int64{
		"ELIGIBILITY_POLL_MS": s.EligibilityMS, "USERINFO_POLL_MS": s.UserInfoMS,
		"STATS_POLL_MS": s.StatsMS, "BINDING_POLL_MS": s.BindingMS, "RECEIPT_POLL_MS": s.ReceiptPollMS,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	if _, err := logrus.ParseLevel(s.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	return errors.Join(errs...)
}

// Placeholders lists contract settings still pointing nowhere.
func (s Settings) Placeholders() []string {
	var out []string
	if !faucetcore.ContractConfigured(faucetcore.ParseContractAddress(s.FaucetAddress)) {
		out = append(out, "FAUCET_CONTRACT_ADDRESS")
	}
	if !faucetcore.ContractConfigured(faucetcore.ParseContractAddress(s.BindingAddress)) {
		out = append(out, "BINDING_CONTRACT_ADDRESS")
	}
	return out
}

func ms(n int64) time.Duration { return time.Duration(n) * time.Millisecond }

// CoreOptions maps settings onto the claim panel options.
func (s Settings) CoreOptions() faucetcore.Options {
	lo, _ := decimal.NewFromString(s.DonationMin)
	hi, _ := decimal.NewFromString(s.DonationMax)
	return faucetcore.Options{
		FaucetAddress:    faucetcore.ParseContractAddress(s.FaucetAddress),
		BindingAddress:   faucetcore.ParseContractAddress(s.BindingAddress),
		EligibilityEvery: ms(s.EligibilityMS),
		UserInfoEvery:    ms(s.UserInfoMS),
		StatsEvery:       ms(s.StatsMS),
		BindingEvery:     ms(s.BindingMS),
		StatsSettle:      ms(s.StatsSettleMS),
		TxTimeout:        time.Duration(s.ReceiptTimeoutS) * time.Second,
		DonationMin:      lo,
		DonationMax:      hi,
		Presets:          s.DonationPresets,
		Symbol:           s.TokenSymbol,
		Locale:           faucetcore.ParseLocale(s.Locale),
	}
}

// WalletOptions maps fee and receipt settings onto the key wallet.
func (s Settings) WalletOptions(log *logrus.Entry) chain.WalletOptions {
	o := chain.WalletOptions{
		TipGwei:      s.TipGwei,
		BasefeeMul:   s.BasefeeMul,
		BufferPct:    s.BufferPct,
		ReceiptEvery: ms(s.ReceiptPollMS),
		Log:          log,
	}
	if s.ChainID > 0 {
		o.ChainID = big.NewInt(s.ChainID)
	}
	return o
}

// Logger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (s Settings) Logger() *logrus.Logger {
	l := logrus.New()
	if lvl, err := logrus.ParseLevel(s.LogLevel); err == nil {
		l.SetLevel(lvl)
	}
	if strings.EqualFold(s.LogFormat, "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05"})
	}
	return l
}

// MaskKey keeps the 0x prefix plus a few chars on each end.
func MaskKey(h string) string {
	h = strings.TrimSpace(h)
	if len(h) <= 10 {
		return "***"
	}
	return h[:6] + "…" + h[len(h)-4:]
}
