package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Cart mutations by op (add, adjust, remove, clear)
	CartOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_operations_total",
			Help: "Cart mutations by operation",
		},
		[]string{"op"},
	)

	// Order commit outcomes
	OrdersPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders committed",
	})
	OrderItemsPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_items_placed_total",
		Help: "Order lines committed",
	})
	OrderFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_failures_total",
			Help: "Order commits that failed, by stage",
		},
		[]string{"stage"},
	)

	// Catalog writes by entity and op
	CatalogOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_operations_total",
			Help: "Category and product writes",
		},
		[]string{"entity", "op"},
	)
)

var (
	once     sync.Once
	registry *prometheus.Registry
)

// Registry registers every collector on first use under namespace and returns it.
// Later calls return the same registry whatever the namespace.
func Registry(namespace string) *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		reg := prometheus.WrapRegistererWithPrefix(namespace+"_", registry)
		reg.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			CartOperations,
			OrdersPlaced,
			OrderItemsPlaced,
			OrderFailures,
			CatalogOperations,
		)
	})
	return registry
}
