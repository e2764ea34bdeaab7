package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Store records storefront activity. A nil *Store is a no-op.
type Store struct {
	fetchDuration *prometheus.HistogramVec
	fetches       *prometheus.CounterVec
	cartOps       *prometheus.CounterVec
	orders        *prometheus.CounterVec
}

// New registers the storefront metrics on the provided registerer.
func New(reg prometheus.Registerer) *Store {
	if reg == nil {
		return &Store{}
	}
	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_fetch_duration_seconds",
		Help:    "Duration of spreadsheet fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fetch_total",
		Help: "Spreadsheet fetches by source and result.",
	}, []string{"source", "result"})
	cartOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_submitted_total",
		Help: "Order submissions by result.",
	}, []string{"result"})
	reg.MustRegister(fetchDuration, fetches, cartOps, orders)
	return &Store{
		fetchDuration: fetchDuration,
		fetches:       fetches,
		cartOps:       cartOps,
		orders:        orders,
	}
}

// CatalogFetch records one fetch of the "categories" or "products" source.
func (s *Store) CatalogFetch(source string, d time.Duration, err error) {
	if s == nil || s.fetches == nil {
		return
	}
	source = normalizeLabel(source)
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.fetchDuration.WithLabelValues(source).Observe(d.Seconds())
	s.fetches.WithLabelValues(source, result).Inc()
}

func (s *Store) CartOp(op string) {
	if s == nil || s.cartOps == nil {
		return
	}
	s.cartOps.WithLabelValues(normalizeLabel(op)).Inc()
}

// OrderSubmitted counts results such as "ok", "empty_cart", "invalid" or "sink_error".
func (s *Store) OrderSubmitted(result string) {
	if s == nil || s.orders == nil {
		return
	}
	s.orders.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
