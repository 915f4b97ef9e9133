package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records the hot-path signals of the checkout pipeline:
// quote cache effectiveness, upstream latency, and submission outcomes.
type CheckoutMetrics struct {
	quoteCacheHits   prometheus.Counter
	quoteCacheMisses prometheus.Counter
	upstreamDuration *prometheus.HistogramVec
	submissions      *prometheus.CounterVec
	validationFails  *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	quoteCacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "delivery_quote_cache_hits",
		Help: "Delivery quote requests served from the short-lived quote cache.",
	})
	quoteCacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "delivery_quote_cache_misses",
		Help: "Delivery quote requests that went to the upstream pricing API.",
	})
	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of upstream commerce API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_submissions_total",
		Help: "Order submission attempts partitioned by outcome.",
	}, []string{"outcome"})
	validationFails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_validation_failures_total",
		Help: "Checkout validation failures partitioned by check.",
	}, []string{"check"})
	reg.MustRegister(quoteCacheHits, quoteCacheMisses, upstreamDuration, submissions, validationFails)
	return &CheckoutMetrics{
		quoteCacheHits:   quoteCacheHits,
		quoteCacheMisses: quoteCacheMisses,
		upstreamDuration: upstreamDuration,
		submissions:      submissions,
		validationFails:  validationFails,
	}
}

// IncQuoteCacheHit counts a quote served without an upstream call.
func (m *CheckoutMetrics) IncQuoteCacheHit() {
	if m == nil || m.quoteCacheHits == nil {
		return
	}
	m.quoteCacheHits.Inc()
}

// IncQuoteCacheMiss counts a quote that required the upstream pricing API.
func (m *CheckoutMetrics) IncQuoteCacheMiss() {
	if m == nil || m.quoteCacheMisses == nil {
		return
	}
	m.quoteCacheMisses.Inc()
}

// ObserveUpstream records the duration of the named upstream operation.
func (m *CheckoutMetrics) ObserveUpstream(operation string, duration time.Duration) {
	if m == nil || m.upstreamDuration == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncSubmission counts an order submission with the given outcome.
func (m *CheckoutMetrics) IncSubmission(outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncValidationFailure counts a failed checkout validation check.
func (m *CheckoutMetrics) IncValidationFailure(check string) {
	if m == nil || m.validationFails == nil {
		return
	}
	m.validationFails.WithLabelValues(normalizeLabel(check)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
