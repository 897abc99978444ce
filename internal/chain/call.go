package chain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

// --- small RPC helpers (retry + backoff) ---
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "Too Many Requests") || strings.Contains(s, "-32005")
}

func isRevert(err error) bool {
	return err != nil && strings.Contains(err.Error(), "execution reverted")
}

// withRetry runs fn up to 3 times with a small backoff that doubles on
// rate limits. Reverts are final and returned at once.
func withRetry[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	const maxAttempts = 3
	backoff := 200 * time.Millisecond
	var zero T
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if isRevert(err) || attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}
		if isRateLimitError(err) {
			backoff *= 2
		}
	}
	return zero, lastErr
}

// revertReason extracts "execution reverted: ..." from a node error. When the
// node returned ABI-encoded Error(string) data it is decoded.
func revertReason(e error) string {
	if e == nil {
		return ""
	}
	var de rpc.DataError
	if errors.As(e, &de) {
		if hexData, ok := de.ErrorData().(string); ok {
			if reason, err := abi.UnpackRevert(common.FromHex(hexData)); err == nil && reason != "" {
				return "execution reverted: " + reason
			}
		}
	}
	s := e.Error()
	if i := strings.Index(s, "execution reverted"); i >= 0 {
		return s[i:]
	}
	return s
}
