// Package metrics collects Prometheus metrics for view-model stores, the
// REST client, the live server and the reference API.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "foodit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry receives the collectors and backs Handler.
	// Default: the global Prometheus registry.
	Registry *prometheus.Registry
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry registers the collectors on registry instead of the global one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "foodit",
		Buckets:   prometheus.DefBuckets,
	}
}

// Metrics holds every FoodIt collector. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer

	// stores
	eventsDispatched *prometheus.CounterVec
	eventsDropped    *prometheus.CounterVec
	reduceDuration   *prometheus.HistogramVec
	effectsTotal     *prometheus.CounterVec
	effectDuration   *prometheus.HistogramVec

	// REST client
	apiRequests *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec

	// live server
	activeSessions   prometheus.Gauge
	detachedSessions prometheus.Gauge
	reconnectsTotal  prometheus.Counter
	framesTotal      *prometheus.CounterVec
	toastsDelivered  prometheus.Counter
	wsErrors         *prometheus.CounterVec

	// reference API
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates and registers the collectors.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	m := &Metrics{
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
	}
	if config.Registry != nil {
		m.registerer = config.Registry
		m.gatherer = config.Registry
	}
	factory := promauto.With(m.registerer)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}
	histogram := func(name, help string, labels ...string) *prometheus.HistogramVec {
		return factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, labels)
	}

	m.eventsDispatched = counter("store_events_dispatched_total", "Events queued on view-model stores", "store")
	m.eventsDropped = counter("store_events_dropped_total", "Events dropped because a store queue was full", "store")
	m.reduceDuration = histogram("store_reduce_duration_seconds", "Time spent in reducers", "store")
	m.effectsTotal = counter("store_effects_total", "Effects finished by outcome", "store", "outcome")
	m.effectDuration = histogram("store_effect_duration_seconds", "Effect run time", "store")

	m.apiRequests = counter("api_requests_total", "REST client calls by operation and outcome", "operation", "outcome")
	m.apiDuration = histogram("api_request_duration_seconds", "REST client call duration", "operation")

	m.activeSessions = factory.NewGauge(prometheus.GaugeOpts{
		Namespace:   config.Namespace,
		Subsystem:   config.Subsystem,
		Name:        "live_active_sessions",
		Help:        "Number of connected live sessions",
		ConstLabels: config.ConstLabels,
	})
	m.detachedSessions = factory.NewGauge(prometheus.GaugeOpts{
		Namespace:   config.Namespace,
		Subsystem:   config.Subsystem,
		Name:        "live_detached_sessions",
		Help:        "Number of disconnected but resumable live sessions",
		ConstLabels: config.ConstLabels,
	})
	m.reconnectsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Subsystem:   config.Subsystem,
		Name:        "live_reconnects_total",
		Help:        "Total number of resumed live sessions",
		ConstLabels: config.ConstLabels,
	})
	m.framesTotal = counter("live_frames_total", "Live frames by direction and type", "direction", "type")
	m.toastsDelivered = factory.NewCounter(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Subsystem:   config.Subsystem,
		Name:        "live_toasts_delivered_total",
		Help:        "Notifications written to live clients",
		ConstLabels: config.ConstLabels,
	})
	m.wsErrors = counter("live_websocket_errors_total", "WebSocket errors by type", "type")

	m.httpRequests = counter("http_requests_total", "Reference API requests", "route", "method", "status")
	m.httpDuration = histogram("http_request_duration_seconds", "Reference API request duration", "route", "method")

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// EventDispatched implements store.Observer.
func (m *Metrics) EventDispatched(store string) {
	if m == nil {
		return
	}
	m.eventsDispatched.WithLabelValues(store).Inc()
}

// EventDropped implements store.Observer.
func (m *Metrics) EventDropped(store string) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(store).Inc()
}

// EventReduced implements store.Observer.
func (m *Metrics) EventReduced(store string, d time.Duration) {
	if m == nil {
		return
	}
	m.reduceDuration.WithLabelValues(store).Observe(d.Seconds())
}

// EffectFinished implements store.Observer.
func (m *Metrics) EffectFinished(store string, d time.Duration, panicked bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if panicked {
		outcome = "panic"
	}
	m.effectsTotal.WithLabelValues(store, outcome).Inc()
	m.effectDuration.WithLabelValues(store).Observe(d.Seconds())
}

// RecordAPICall records one REST client call. outcome is "success" or
// "failure".
func (m *Metrics) RecordAPICall(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(operation, outcome).Inc()
	m.apiDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordSessionCreate records a new live session.
func (m *Metrics) RecordSessionCreate() {
	if m != nil {
		m.activeSessions.Inc()
	}
}

// RecordSessionDestroy records a live session ending for good.
func (m *Metrics) RecordSessionDestroy(wasDetached bool) {
	if m == nil {
		return
	}
	if wasDetached {
		m.detachedSessions.Dec()
	} else {
		m.activeSessions.Dec()
	}
}

// RecordSessionDetach records a session losing its connection.
func (m *Metrics) RecordSessionDetach() {
	if m != nil {
		m.activeSessions.Dec()
		m.detachedSessions.Inc()
	}
}

// RecordSessionReattach records a detached session being resumed.
func (m *Metrics) RecordSessionReattach() {
	if m != nil {
		m.activeSessions.Inc()
		m.detachedSessions.Dec()
		m.reconnectsTotal.Inc()
	}
}

// RecordFrame records a frame read ("in") or written ("out").
func (m *Metrics) RecordFrame(direction, frameType string) {
	if m != nil {
		m.framesTotal.WithLabelValues(direction, frameType).Inc()
	}
}

// RecordToast records a notification delivered to a client.
func (m *Metrics) RecordToast() {
	if m != nil {
		m.toastsDelivered.Inc()
	}
}

// RecordWebSocketError records a WebSocket error.
func (m *Metrics) RecordWebSocketError(errorType string) {
	if m != nil {
		m.wsErrors.WithLabelValues(errorType).Inc()
	}
}

// Middleware records request counts and durations labelled by the chi
// route pattern, which keeps label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Hijack lets websocket upgrades through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("metrics: %T does not support hijacking", w.ResponseWriter)
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
