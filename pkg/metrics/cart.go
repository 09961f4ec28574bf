package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart store and submission activity.
type CartMetrics struct {
	mutations          *prometheus.CounterVec
	persistFailures    prometheus.Counter
	loadFailures       *prometheus.CounterVec
	submissions        *prometheus.CounterVec
	submissionDuration *prometheus.HistogramVec
	expiredEntries     prometheus.Counter
}

// NewCartMetrics registers the cart metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_cart_mutations_total",
		Help: "Cart mutations applied, by operation.",
	}, []string{"op"})
	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quote_cart_persist_failures_total",
		Help: "Cart states that could not be written to storage.",
	})
	loadFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_cart_load_failures_total",
		Help: "Persisted carts discarded at load time, by reason.",
	}, []string{"reason"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_cart_submissions_total",
		Help: "Cart submissions by kind and outcome.",
	}, []string{"kind", "outcome"})
	submissionDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quote_cart_submission_duration_seconds",
		Help:    "Time spent handing a submission to the downstream collaborator.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	expiredEntries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quote_cart_expired_entries_total",
		Help: "Expired cart entries removed from SQL storage by the sweeper.",
	})
	reg.MustRegister(mutations, persistFailures, loadFailures, submissions, submissionDuration, expiredEntries)
	return &CartMetrics{
		mutations:          mutations,
		persistFailures:    persistFailures,
		loadFailures:       loadFailures,
		submissions:        submissions,
		submissionDuration: submissionDuration,
		expiredEntries:     expiredEntries,
	}
}

func (c *CartMetrics) IncMutation(op string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

func (c *CartMetrics) IncPersistFailure() {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.Inc()
}

func (c *CartMetrics) IncLoadFailure(reason string) {
	if c == nil || c.loadFailures == nil {
		return
	}
	c.loadFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveSubmission records the outcome and latency of one submission attempt.
func (c *CartMetrics) ObserveSubmission(kind, outcome string, duration time.Duration) {
	if c == nil || c.submissions == nil {
		return
	}
	kind = normalizeLabel(kind)
	c.submissions.WithLabelValues(kind, normalizeLabel(outcome)).Inc()
	c.submissionDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (c *CartMetrics) AddExpired(n int64) {
	if c == nil || c.expiredEntries == nil || n <= 0 {
		return
	}
	c.expiredEntries.Add(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
