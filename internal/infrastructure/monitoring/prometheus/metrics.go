// Package prometheus provides the service metrics registry.  All metrics are
// registered on a private registry so tests can construct isolated instances
// without hitting the global default registerer.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultHTTPDurationBuckets covers the expected latency range of the
// dashboard API: cached responses land in the low buckets, cold aggregations
// in the higher ones.
var DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

// Metrics holds every application metric.  Construct with NewMetrics and
// inject where needed; the struct is safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP layer
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Dataset pipeline
	DatasetLoadsTotal   *prometheus.CounterVec
	DatasetLoadDuration *prometheus.HistogramVec

	// View cache
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Exports
	ExportsTotal *prometheus.CounterVec
}

// Options tunes metric registration.
type Options struct {
	// Namespace prefixes every metric name; defaults to "indiaml".
	Namespace string

	// EnableRuntimeMetrics additionally registers the standard Go runtime
	// and process collectors.
	EnableRuntimeMetrics bool
}

// NewMetrics registers all application metrics on a fresh registry.
func NewMetrics(opts Options) *Metrics {
	if opts.Namespace == "" {
		opts.Namespace = "indiaml"
	}

	reg := prometheus.NewRegistry()
	if opts.EnableRuntimeMetrics {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	factory := func(name, help string, labels ...string) *prometheus.CounterVec {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace,
			Name:      name,
			Help:      help,
		}, labels)
		reg.MustRegister(c)
		return c
	}

	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = factory("http_requests_total",
		"Total HTTP requests.", "method", "path", "status")
	m.DatasetLoadsTotal = factory("dataset_loads_total",
		"Dataset loads from the backing store.", "conference", "status")
	m.CacheHitsTotal = factory("view_cache_hits_total",
		"Derived-view cache hits.", "view")
	m.CacheMissesTotal = factory("view_cache_misses_total",
		"Derived-view cache misses.", "view")
	m.ExportsTotal = factory("exports_total",
		"CSV exports produced.", "kind", "status")

	m.HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: opts.Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration.",
		Buckets:   DefaultHTTPDurationBuckets,
	}, []string{"method", "path"})
	reg.MustRegister(m.HTTPRequestDuration)

	m.DatasetLoadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: opts.Namespace,
		Name:      "dataset_load_duration_seconds",
		Help:      "Time to load and decode a dataset from the store.",
		Buckets:   DefaultHTTPDurationBuckets,
	}, []string{"conference"})
	reg.MustRegister(m.DatasetLoadDuration)

	return m
}

// Handler returns the /metrics HTTP handler for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
