package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records the order-placement and cart-sync counters.
type CheckoutMetrics struct {
	commitDuration prometheus.Histogram
	commitSuccess  prometheus.Counter
	commitFailure  prometheus.Counter
	cartSyncs      *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	commitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_commit_duration_seconds",
		Help:    "Duration of upstream order commits in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	commitSuccess := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_commit_success",
		Help: "Successful order placements.",
	})
	commitFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_commit_failure",
		Help: "Failed order placements.",
	})
	cartSyncs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_sync_total",
		Help: "Coalesced cart synchronization flushes by result.",
	}, []string{"result"})
	reg.MustRegister(commitDuration, commitSuccess, commitFailure, cartSyncs)
	return &CheckoutMetrics{
		commitDuration: commitDuration,
		commitSuccess:  commitSuccess,
		commitFailure:  commitFailure,
		cartSyncs:      cartSyncs,
	}
}

// ObserveCommitDuration records the duration of one upstream commit.
func (c *CheckoutMetrics) ObserveCommitDuration(duration time.Duration) {
	if c == nil || c.commitDuration == nil {
		return
	}
	c.commitDuration.Observe(duration.Seconds())
}

// IncCommitSuccess increments the successful placement counter.
func (c *CheckoutMetrics) IncCommitSuccess() {
	if c == nil || c.commitSuccess == nil {
		return
	}
	c.commitSuccess.Inc()
}

// IncCommitFailure increments the failed placement counter.
func (c *CheckoutMetrics) IncCommitFailure() {
	if c == nil || c.commitFailure == nil {
		return
	}
	c.commitFailure.Inc()
}

// IncCartSync increments the cart sync counter for the given result label.
func (c *CheckoutMetrics) IncCartSync(result string) {
	if c == nil || c.cartSyncs == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	c.cartSyncs.WithLabelValues(result).Inc()
}
