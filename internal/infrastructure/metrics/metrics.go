// Package metrics exposes delivery pipeline measurements to Prometheus.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-band-notify/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records delivery cycles. It satisfies delivery.Recorder.
type Metrics struct {
	cyclesTotal   prometheus.Counter
	cycleDuration prometheus.Histogram
	claimedTotal  prometheus.Counter
	sentTotal     prometheus.Counter
	dispatchTotal *prometheus.CounterVec
	prunedTotal   prometheus.Counter
	pending       prometheus.Gauge
}

// New creates the pipeline metrics and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_cycles_total",
			Help: "Delivery cycles run",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notify_cycle_duration_seconds",
			Help:    "Wall time of one delivery cycle",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		claimedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_notifications_claimed_total",
			Help: "Notifications claimed by delivery cycles",
		}),
		sentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_notifications_sent_total",
			Help: "Notifications marked sent",
		}),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_dispatch_total",
			Help: "Per-token push results by outcome",
		}, []string{"outcome"}),
		prunedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_tokens_pruned_total",
			Help: "Device tokens removed after an invalid-token response",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notify_pending_notifications",
			Help: "Notifications not yet marked sent, sampled after each cycle",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.cyclesTotal, m.cycleDuration, m.claimedTotal, m.sentTotal,
		m.dispatchTotal, m.prunedTotal, m.pending,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register notify metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) ObserveCycle(processed, sent, pruned int, elapsed time.Duration) {
	m.cyclesTotal.Inc()
	m.cycleDuration.Observe(elapsed.Seconds())
	m.claimedTotal.Add(float64(processed))
	m.sentTotal.Add(float64(sent))
	m.prunedTotal.Add(float64(pruned))
}

func (m *Metrics) ObserveDispatch(outcome domain.PushOutcome, n int) {
	m.dispatchTotal.WithLabelValues(string(outcome)).Add(float64(n))
}

func (m *Metrics) SetPending(n int) {
	m.pending.Set(float64(n))
}

// Handler serves the exposition format for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
