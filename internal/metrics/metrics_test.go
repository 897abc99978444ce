package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	m := New("")
	m.PollDone("eligibility", nil)
	m.PollDone("eligibility", errors.New("timeout"))
	m.PollDone("stats", nil)
	m.TxDone("claim", "confirmed")
	m.TxDone("donate", "failed")
	m.TxDone("donate", "failed")
	m.Countdown(125)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Polls.WithLabelValues("eligibility")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollErrors.WithLabelValues("eligibility")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PollErrors.WithLabelValues("stats")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transactions.WithLabelValues("claim", "confirmed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transactions.WithLabelValues("donate", "failed")))
	assert.Equal(t, 125.0, testutil.ToFloat64(m.CountdownSec))
}

func TestHandlerServesNamespacedNames(t *testing.T) {
	m := New("faucet")
	m.PollDone("userinfo", nil)
	m.Countdown(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `faucet_polls_total{source="userinfo"} 1`)
	assert.Contains(t, string(body), "faucet_countdown_seconds 3")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestSeparateRegistries(t *testing.T) {
	// two instances must not collide on registration
	a, b := New("faucet"), New("faucet")
	assert.NotSame(t, a.Registry(), b.Registry())
	a.TxDone("claim", "rejected")

	n, err := testutil.GatherAndCount(a.Registry(), "faucet_transactions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = testutil.GatherAndCount(b.Registry(), "faucet_transactions_total")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
