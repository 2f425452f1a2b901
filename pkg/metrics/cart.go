package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// CartMetrics counts cart operations by name and outcome.
type CartMetrics struct {
	operations *prometheus.CounterVec
	expired    prometheus.Counter
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart operations partitioned by operation and outcome.",
	}, []string{"operation", "outcome"})
	expired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_expired_deleted_total",
		Help: "Carts removed by the expiry janitor.",
	})
	reg.MustRegister(operations, expired)
	return &CartMetrics{operations: operations, expired: expired}
}

// Observe records one operation with an outcome derived from err.
func (c *CartMetrics) Observe(operation string, err error) {
	if c == nil || c.operations == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	c.operations.WithLabelValues(normalizeLabel(operation), outcome).Inc()
}

// AddExpired adds n to the expired-cart counter.
func (c *CartMetrics) AddExpired(n int) {
	if c == nil || c.expired == nil || n <= 0 {
		return
	}
	c.expired.Add(float64(n))
}
