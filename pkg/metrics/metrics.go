package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Crash kinds.
const (
	CrashUncaughtException  = "uncaught_exception"
	CrashUnhandledRejection = "unhandled_rejection"
)

// Metrics holds the collectors of one application.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
	crashes  *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "anvil"
	}
	f := promauto.With(reg)

	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of dispatched HTTP requests.",
		}, []string{"controller", "action", "method", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"controller", "action"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests being served.",
		}),
		crashes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "process_crashes_total",
			Help:      "Uncaught exceptions and unhandled rejections seen by the worker.",
		}, []string{"kind"}),
	}
}

// Begin marks a request in flight and returns the function that ends it.
func (m *Metrics) Begin() func() {
	m.inFlight.Inc()
	return m.inFlight.Dec
}

// ObserveRequest records one served request. Unresolved requests use "-"
// as controller and action.
func (m *Metrics) ObserveRequest(controller, action, method string, status int, d time.Duration) {
	if controller == "" {
		controller = "-"
	}
	if action == "" {
		action = "-"
	}
	m.requests.WithLabelValues(controller, action, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(controller, action).Observe(d.Seconds())
}

// Crash counts one crash of the given kind.
func (m *Metrics) Crash(kind string) {
	m.crashes.WithLabelValues(kind).Inc()
}

// Handler serves the metrics gathered by g. A nil g uses the default gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
