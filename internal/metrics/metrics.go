package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Feed bundles the Prometheus collectors of the feed daemon.
// A nil *Feed is valid and records nothing.
type Feed struct {
	fetches      *prometheus.CounterVec
	readFailures *prometheus.CounterVec
	bubbles      *prometheus.CounterVec
	watches      *prometheus.CounterVec
	ingested     *prometheus.CounterVec
	rpcDuration  *prometheus.HistogramVec
	gatherer     prometheus.Gatherer
}

// New registers the feed collectors on reg. When reg is also a Gatherer it
// backs Handler; otherwise the default gatherer is used.
func New(reg prometheus.Registerer) *Feed {
	m := &Feed{
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guestfeed_fetch_total",
				Help: "Message windows fetched, by retrieval path.",
			},
			[]string{"path"},
		),
		readFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guestfeed_read_failures_total",
				Help: "Message store read failures collapsed to an empty result.",
			},
			[]string{"op"},
		),
		bubbles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guestfeed_bubble_total",
				Help: "Conversation bubbling outcomes.",
			},
			[]string{"outcome"},
		),
		watches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guestfeed_watch_total",
				Help: "Change-watch evaluations, by result.",
			},
			[]string{"result"},
		),
		ingested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guestfeed_ingested_messages_total",
				Help: "Inbound messages processed by the ingestion engine.",
			},
			[]string{"result"},
		),
		rpcDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "guestfeed_rpc_duration_seconds",
				Help:    "Histogram of feed API call durations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "code"},
		),
	}

	reg.MustRegister(m.fetches, m.readFailures, m.bubbles, m.watches, m.ingested, m.rpcDuration)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// Fetch counts one window fetch on path ("filtered" or "latest").
func (m *Feed) Fetch(path string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(path).Inc()
}

// ReadFailure counts a store failure hidden from the caller.
func (m *Feed) ReadFailure(op string) {
	if m == nil {
		return
	}
	m.readFailures.WithLabelValues(op).Inc()
}

// Bubble counts a bubbling outcome: found, fetched, missing, unsupported, failed.
func (m *Feed) Bubble(outcome string) {
	if m == nil {
		return
	}
	m.bubbles.WithLabelValues(outcome).Inc()
}

// Watch counts a change-watch evaluation.
func (m *Feed) Watch(changed bool) {
	if m == nil {
		return
	}
	result := "unchanged"
	if changed {
		result = "changed"
	}
	m.watches.WithLabelValues(result).Inc()
}

// Ingested counts an inbound message by result: inserted, duplicate, failed.
func (m *Feed) Ingested(result string) {
	if m == nil {
		return
	}
	m.ingested.WithLabelValues(result).Inc()
}

// ObserveRPC records the duration of one API call.
func (m *Feed) ObserveRPC(method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(method, code).Observe(d.Seconds())
}

// Handler exposes the registered collectors.
func (m *Feed) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
