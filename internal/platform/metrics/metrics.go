package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	Allocations       *prometheus.CounterVec
	AllocationsDenied *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	ReleaseToggles    *prometheus.CounterVec
	BallotsFinalized  *prometheus.CounterVec
	Tabulations       *prometheus.CounterVec
	TabulateLatency   prometheus.Histogram
	OutboxPublished   prometheus.Counter
	OutboxFailures    prometheus.Counter
	RequestLatency    *prometheus.HistogramVec
}

// New registers every collector with the default registry. Call it once per
// process.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers collectors on reg; tests pass a fresh registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Allocations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tabrela_allocation_changes_total",
			Help: "Committed allocation changes by action",
		}, []string{"action"}),
		AllocationsDenied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tabrela_allocation_rejections_total",
			Help: "Allocation requests rejected by error code",
		}, []string{"code"}),
		StatusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tabrela_match_status_transitions_total",
			Help: "Match status transitions by target status",
		}, []string{"status"}),
		ReleaseToggles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tabrela_match_release_total",
			Help: "Release gates opened by gate",
		}, []string{"gate"}),
		BallotsFinalized: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tabrela_ballots_finalized_total",
			Help: "Ballots finalized by kind",
		}, []string{"kind"}),
		Tabulations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tabrela_tabulations_total",
			Help: "Tabulation runs by outcome",
		}, []string{"outcome"}),
		TabulateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tabrela_tabulation_duration_seconds",
			Help:    "Duration of a tabulation run including ballot loading",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		OutboxPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "tabrela_outbox_published_total",
			Help: "Outbound events delivered to the broker",
		}),
		OutboxFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "tabrela_outbox_publish_failures_total",
			Help: "Failed outbox relay batches",
		}),
		RequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tabrela_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

func (m *Metrics) IncrementAllocation(action string) {
	if m != nil {
		m.Allocations.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) IncrementAllocationDenied(code string) {
	if m != nil {
		m.AllocationsDenied.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) IncrementTransition(status string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncrementRelease(gate string) {
	if m != nil {
		m.ReleaseToggles.WithLabelValues(gate).Inc()
	}
}

func (m *Metrics) IncrementBallotFinalized(kind string) {
	if m != nil {
		m.BallotsFinalized.WithLabelValues(kind).Inc()
	}
}

// ObserveTabulation records a tabulation outcome and its duration.
func (m *Metrics) ObserveTabulation(outcome string, d time.Duration) {
	if m != nil {
		m.Tabulations.WithLabelValues(outcome).Inc()
		m.TabulateLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) AddOutboxPublished(n int) {
	if m != nil {
		m.OutboxPublished.Add(float64(n))
	}
}

func (m *Metrics) IncrementOutboxFailure() {
	if m != nil {
		m.OutboxFailures.Inc()
	}
}

func (m *Metrics) ObserveRequest(route, method, status string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, method, status).Observe(d.Seconds())
	}
}
