// Package metrics exposes faucet client counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ligun0805/x-faucet/internal/faucetcore"
)

// Metrics implements faucetcore.Recorder on its own registry.
type Metrics struct {
	reg *prometheus.Registry

	Polls        *prometheus.CounterVec
	PollErrors   *prometheus.CounterVec
	Transactions *prometheus.CounterVec
	CountdownSec prometheus.Gauge
}

var _ faucetcore.Recorder = (*Metrics)(nil)

func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "faucet"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		Polls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Contract read queries completed, by source",
		}, []string{"source"}),
		PollErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_errors_total",
			Help:      "Contract read queries that failed, by source",
		}, []string{"source"}),
		Transactions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Finished claim and donation transactions, by outcome",
		}, []string{"kind", "outcome"}),
		CountdownSec: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "countdown_seconds",
			Help:      "Seconds until the connected wallet may claim again",
		}),
	}
}

func (m *Metrics) PollDone(source string, err error) {
	m.Polls.WithLabelValues(source).Inc()
	if err != nil {
		m.PollErrors.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) TxDone(kind, outcome string) {
	m.Transactions.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Countdown(seconds int64) { m.CountdownSec.Set(float64(seconds)) }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry is the gatherer behind Handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }
