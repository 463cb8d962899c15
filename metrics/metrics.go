// Package metrics holds the Prometheus collectors of the query pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// Retrieval paths
const (
	RetrievalFiltered   = "filtered"
	RetrievalUnfiltered = "unfiltered"
	RetrievalDegraded   = "degraded"
)

// Metrics is safe to use when nil or disabled; every Record call is then a no-op.
type Metrics struct {
	enabled   bool
	namespace string
	reg       prometheus.Registerer

	QueriesTotal      *prometheus.CounterVec
	QueryDuration     prometheus.Histogram
	CandidatesScanned prometheus.Histogram
	Matches           prometheus.Histogram
	DecryptFailures   prometheus.Counter
	Retrievals        *prometheus.CounterVec
	PointsInserted    *prometheus.CounterVec
	QueryLogFailures  prometheus.Counter
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		enabled:   true,
		namespace: namespace,
		reg:       reg,

		QueriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Range queries executed, by outcome",
			},
			[]string{"outcome"},
		),

		QueryDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "End to end range query latency",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),

		CandidatesScanned: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_candidates",
				Help:      "Candidates scanned per query",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),

		Matches: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_matches",
				Help:      "Matching points per query before truncation",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),

		DecryptFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "point_decrypt_failures_total",
				Help:      "Candidates skipped because they failed to decrypt",
			},
		),

		Retrievals: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candidate_retrievals_total",
				Help:      "Candidate retrievals, by path taken",
			},
			[]string{"path"},
		),

		PointsInserted: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "points_inserted_total",
				Help:      "Point insertions, by status",
			},
			[]string{"status"},
		),

		QueryLogFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_log_failures_total",
				Help:      "Query log entries the sink rejected",
			},
		),
	}
}

// Disabled returns a Metrics that records nothing
func Disabled() *Metrics {
	return &Metrics{}
}

func (m *Metrics) on() bool {
	return m != nil && m.enabled
}

// RecordQuery records one finished query
func (m *Metrics) RecordQuery(outcome string, d time.Duration, scanned, matched int) {
	if !m.on() {
		return
	}
	m.QueriesTotal.WithLabelValues(outcome).Inc()
	m.QueryDuration.Observe(d.Seconds())
	if outcome == OutcomeSuccess {
		m.CandidatesScanned.Observe(float64(scanned))
		m.Matches.Observe(float64(matched))
	}
}

func (m *Metrics) RecordDecryptFailures(n int) {
	if !m.on() || n <= 0 {
		return
	}
	m.DecryptFailures.Add(float64(n))
}

func (m *Metrics) RecordRetrieval(path string) {
	if !m.on() {
		return
	}
	m.Retrievals.WithLabelValues(path).Inc()
}

func (m *Metrics) RecordInsert(success bool) {
	if !m.on() {
		return
	}
	status := "failed"
	if success {
		status = "success"
	}
	m.PointsInserted.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordQueryLogFailure() {
	if !m.on() {
		return
	}
	m.QueryLogFailures.Inc()
}

// PoolStats is a snapshot of a store connection pool
type PoolStats struct {
	Open  int
	Idle  int
	InUse int
}

// RegisterPool exports the connection counts of the named pool as gauges
// read from stats at scrape time.
func (m *Metrics) RegisterPool(name string, stats func() PoolStats) error {
	if !m.on() {
		return nil
	}

	gauges := []struct {
		name, help string
		value      func(PoolStats) int
	}{
		{"pool_open_connections", "Open connections of a store pool", func(s PoolStats) int { return s.Open }},
		{"pool_idle_connections", "Idle connections of a store pool", func(s PoolStats) int { return s.Idle }},
		{"pool_in_use_connections", "Busy connections of a store pool", func(s PoolStats) int { return s.InUse }},
	}
	for _, g := range gauges {
		err := m.reg.Register(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace:   m.namespace,
				Name:        g.name,
				Help:        g.help,
				ConstLabels: prometheus.Labels{"pool": name},
			},
			func() float64 { return float64(g.value(stats())) },
		))
		if err != nil {
			return err
		}
	}
	return nil
}
