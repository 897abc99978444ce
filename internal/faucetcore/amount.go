package faucetcore

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Decimals is the fixed-point scale of the faucet token.
const Decimals = 18

// ToDisplayAmount renders a smallest-unit amount with 3 decimals, truncated.
// nil and zero render as "0".
func ToDisplayAmount(raw *big.Int) string {
	if raw == nil || raw.Sign() == 0 {
		return "0"
	}
	return decimal.NewFromBigInt(raw, -Decimals).Truncate(3).StringFixed(3)
}

// ParseAmount converts decimal text into smallest units. More than 18
// fractional digits, exponents and signs are rejected.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount: %w", ErrInvalidAmount)
	}
	if strings.ContainsAny(s, "eE+-") {
		return nil, fmt.Errorf("unsupported notation %q: %w", s, ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", s, ErrInvalidAmount)
	}
	if -d.Exponent() > Decimals {
		return nil, fmt.Errorf("too many decimals in %q: %w", s, ErrInvalidAmount)
	}
	return d.Shift(Decimals).BigInt(), nil
}

// FormatCountdown renders the two largest non-zero units of a positive
// duration ("1天 1小时", "2分钟 5秒", "1天 5秒", "45秒").
func FormatCountdown(seconds int64, l Locale) string {
	m := MessagesFor(l)
	if seconds <= 0 {
		return m.ClaimableNow
	}
	parts := []struct {
		n    int64
		unit string
	}{
		{seconds / 86400, m.Day},
		{seconds % 86400 / 3600, m.Hour},
		{seconds % 3600 / 60, m.Minute},
		{seconds % 60, m.Sec},
	}
	var out []string
	for _, p := range parts {
		if p.n == 0 {
			continue
		}
		out = append(out, fmt.Sprintf("%d%s", p.n, p.unit))
		if len(out) == 2 {
			break
		}
	}
	return strings.Join(out, " ")
}

// FormatTimestamp renders a unix time in local time, "" for never.
func FormatTimestamp(unix int64) string {
	if unix <= 0 {
		return ""
	}
	return time.Unix(unix, 0).Local().Format("2006-01-02 15:04:05")
}
