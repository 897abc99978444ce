package faucetcore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrBusy                 = errors.New("a transaction is already in flight")
	ErrUserRejected         = errors.New("user rejected the request")
	ErrProviderError        = errors.New("wallet provider error")
	ErrReverted             = errors.New("transaction reverted")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrNoWallet             = errors.New("no wallet connected")
	ErrContractUnconfigured = errors.New("faucet contract not configured")
	ErrNotEligible          = errors.New("not eligible to claim yet")
)

// QueryError is a single failed poll. It never reaches the user.
type QueryError struct {
	Source string
	Err    error
}

func (e *QueryError) Error() string { return fmt.Sprintf("query %s: %v", e.Source, e.Err) }
func (e *QueryError) Unwrap() error { return e.Err }

// SubmissionError is returned when the wallet did not accept the transaction.
type SubmissionError struct {
	Kind Kind
	Err  error
}

func (e *SubmissionError) Error() string { return fmt.Sprintf("submit %s: %v", e.Kind, e.Err) }
func (e *SubmissionError) Unwrap() error { return e.Err }

// ConfirmationError is a transaction that was sent but did not succeed.
type ConfirmationError struct {
	Hash   common.Hash
	Reason string
	Err    error
}

func (e *ConfirmationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("tx %s: %s", e.Hash.Hex(), e.Reason)
	}
	return fmt.Sprintf("tx %s: %v", e.Hash.Hex(), e.Err)
}
func (e *ConfirmationError) Unwrap() error { return e.Err }

// InputError rejects donation text before anything is submitted.
type InputError struct {
	Input string
	Err   error
}

func (e *InputError) Error() string { return fmt.Sprintf("amount %q: %v", e.Input, e.Err) }
func (e *InputError) Unwrap() error { return e.Err }

// HumanReason picks the provider text worth showing to a user, or "" when
// only a generic message fits.
func HumanReason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrUserRejected) {
		return ""
	}
	var ce *ConfirmationError
	if errors.As(err, &ce) && ce.Reason != "" {
		return ce.Reason
	}
	s := providerText(err)
	if i := strings.Index(s, "execution reverted"); i >= 0 {
		return s[i:]
	}
	return s
}

// providerText unwraps the core's own wrappers and drops a leading
// sentinel ("wallet provider error: send: x" -> "send: x").
func providerText(err error) string {
	for {
		var next error
		switch e := err.(type) {
		case *SubmissionError:
			next = e.Err
		case *ConfirmationError:
			next = e.Err
		}
		if next == nil {
			break
		}
		err = next
	}
	s := err.Error()
	for _, sentinel := range []error{ErrProviderError, ErrReverted} {
		if s == sentinel.Error() {
			return ""
		}
		s = strings.TrimPrefix(s, sentinel.Error()+": ")
	}
	return strings.TrimSpace(s)
}
