package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records outcomes of walk-in checkouts and transaction
// deletions.
type CheckoutMetrics struct {
	checkouts *prometheus.CounterVec
	failures  *prometheus.CounterVec
	records   prometheus.Counter
	reversals prometheus.Counter
	duration  *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "Completed checkouts by split strategy.",
	}, []string{"strategy"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failure_total",
		Help: "Failed checkouts by reason.",
	}, []string{"reason"})
	records := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_records_total",
		Help: "Transaction records persisted by checkouts.",
	})
	reversals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "booking_payment_reversal_total",
		Help: "Booking payment statuses cleared by transaction deletion.",
	})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout persistence in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})
	reg.MustRegister(checkouts, failures, records, reversals, duration)
	return &CheckoutMetrics{
		checkouts: checkouts,
		failures:  failures,
		records:   records,
		reversals: reversals,
		duration:  duration,
	}
}

// IncCheckout increments the checkout counter for the given strategy.
func (c *CheckoutMetrics) IncCheckout(strategy string) {
	if c == nil || c.checkouts == nil {
		return
	}
	c.checkouts.WithLabelValues(normalizeLabel(strategy)).Inc()
}

// IncFailure increments the failure counter for the given reason.
func (c *CheckoutMetrics) IncFailure(reason string) {
	if c == nil || c.failures == nil {
		return
	}
	c.failures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// AddRecords adds the number of records persisted by one checkout.
func (c *CheckoutMetrics) AddRecords(n int) {
	if c == nil || c.records == nil || n <= 0 {
		return
	}
	c.records.Add(float64(n))
}

// IncReversal increments the booking payment reversal counter.
func (c *CheckoutMetrics) IncReversal() {
	if c == nil || c.reversals == nil {
		return
	}
	c.reversals.Inc()
}

// ObserveDuration records the persistence duration for the given strategy.
func (c *CheckoutMetrics) ObserveDuration(strategy string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(strategy)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
