package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/aretw0/chains/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "chains"

// Metrics records chain lifecycle events as Prometheus collectors.
// Its hooks must run on the goroutine that drives the registry; scraping is safe
// from any goroutine.
type Metrics struct {
	started   *prometheus.CounterVec
	finished  *prometheus.CounterVec
	stopped   *prometheus.CounterVec
	replaced  prometheus.Counter
	activated *prometheus.CounterVec
	running   prometheus.Gauge
	duration  *prometheus.HistogramVec

	startedAt map[string]time.Time
	now       func() time.Time
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg means prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "started_total",
			Help:      "Total number of chain starts",
		}, []string{"mode"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "finished_total",
			Help:      "Total number of chains that completed naturally",
		}, []string{"mode"}),
		stopped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "stopped_total",
			Help:      "Total number of chains stopped before completing",
		}, []string{"forced"}),
		replaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "replaced_total",
			Help:      "Total number of chains evicted by a new chain with the same id",
		}),
		activated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "steps_activated_total",
			Help:      "Total number of step activations",
		}, []string{"mode"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "running",
			Help:      "Number of chains started and not yet finished",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "duration_seconds",
			Help:      "Time from chain start to completion or stop",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
		startedAt: make(map[string]time.Time),
		now:       time.Now,
	}

	for _, c := range []prometheus.Collector{m.started, m.finished, m.stopped, m.replaced, m.activated, m.running, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnChainStart: func(_ context.Context, e *domain.ChainEvent) {
			m.started.WithLabelValues(string(e.Mode)).Inc()
			if _, ok := m.startedAt[e.ChainID]; !ok {
				m.running.Inc()
			}
			m.startedAt[e.ChainID] = e.Timestamp
		},
		OnStepActivate: func(_ context.Context, e *domain.ChainEvent) {
			m.activated.WithLabelValues(string(e.Mode)).Inc()
		},
		OnChainFinish: func(_ context.Context, e *domain.ChainEvent) {
			m.finished.WithLabelValues(string(e.Mode)).Inc()
			m.done(e, "finished")
		},
		OnChainStop: func(_ context.Context, e *domain.ChainEvent) {
			m.stopped.WithLabelValues(strconv.FormatBool(e.Forced)).Inc()
			m.done(e, "stopped")
		},
		OnChainReplaced: func(_ context.Context, _ *domain.ChainEvent) {
			m.replaced.Inc()
		},
	}
}

func (m *Metrics) done(e *domain.ChainEvent, outcome string) {
	start, ok := m.startedAt[e.ChainID]
	if !ok {
		return
	}
	delete(m.startedAt, e.ChainID)
	m.running.Dec()

	end := e.Timestamp
	if end.IsZero() {
		end = m.now()
	}
	m.duration.WithLabelValues(outcome).Observe(end.Sub(start).Seconds())
}
