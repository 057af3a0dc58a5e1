package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultNoop  = "noop"
)

// CartMetrics counts cart operations and persistence failures.
type CartMetrics struct {
	operations      *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	hydrated        prometheus.Counter
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_operations_total",
		Help: "Cart operations by name and result.",
	}, []string{"op", "result"})
	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_persistence_failures_total",
		Help: "Cart storage failures by direction (read/write).",
	}, []string{"direction"})
	hydrated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cart_hydrations_total",
		Help: "Carts loaded from durable storage.",
	})
	reg.MustRegister(operations, persistFailures, hydrated)
	return &CartMetrics{
		operations:      operations,
		persistFailures: persistFailures,
		hydrated:        hydrated,
	}
}

func (c *CartMetrics) IncOperation(op, result string) {
	if c == nil || c.operations == nil {
		return
	}
	c.operations.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
}

func (c *CartMetrics) IncPersistenceFailure(direction string) {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.WithLabelValues(normalizeLabel(direction)).Inc()
}

func (c *CartMetrics) IncHydrated() {
	if c == nil || c.hydrated == nil {
		return
	}
	c.hydrated.Inc()
}
