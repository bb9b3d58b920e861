package metrics

import "github.com/prometheus/client_golang/prometheus"

// CartMetrics counts cart mutations and cache effectiveness.
type CartMetrics struct {
	mutations *prometheus.CounterVec
	cache     *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and outcome.",
	}, []string{"operation", "outcome"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_cache_lookups_total",
		Help: "Cart read cache lookups by result.",
	}, []string{"result"})
	reg.MustRegister(mutations, cache)
	return &CartMetrics{mutations: mutations, cache: cache}
}

// ObserveMutation records the outcome of a cart mutation.
func (c *CartMetrics) ObserveMutation(operation string, err error) {
	if c == nil || c.mutations == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.mutations.WithLabelValues(normalizeLabel(operation), outcome).Inc()
}

// CacheHit records a cache hit.
func (c *CartMetrics) CacheHit() {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.WithLabelValues("hit").Inc()
}

// CacheMiss records a cache miss.
func (c *CartMetrics) CacheMiss() {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.WithLabelValues("miss").Inc()
}
