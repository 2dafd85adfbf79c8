package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk konsol.
type Metrics struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	statusTransitions *prometheus.CounterVec
	pricingRuns       *prometheus.CounterVec
	draftOps          *prometheus.CounterVec
	orderEvents       *prometheus.CounterVec
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_http_requests_total",
		Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_http_request_duration_seconds",
		Help:    "Durasi permintaan HTTP per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_status_transitions_total",
		Help: "Transisi status pesanan berdasarkan dimensi, asal, tujuan dan hasil.",
	}, []string{"dimension", "from", "to", "result"})
	pricing := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_pricing_computations_total",
		Help: "Jumlah perhitungan harga berdasarkan jenis pajak.",
	}, []string{"tax_type"})
	drafts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_drafts_total",
		Help: "Operasi draf pesanan berdasarkan aksi.",
	}, []string{"action"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_order_events_total",
		Help: "Event pesanan yang diteruskan ke antrean berdasarkan jenis dan hasil.",
	}, []string{"type", "result"})
	registry.MustRegister(requests, duration, transitions, pricing, drafts, events)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		statusTransitions: transitions,
		pricingRuns:       pricing,
		draftOps:          drafts,
		orderEvents:       events,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveTransition mencatat percobaan transisi status.
func (m *Metrics) ObserveTransition(dimension, from, to string, accepted bool) {
	if m == nil {
		return
	}
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	m.statusTransitions.WithLabelValues(dimension, from, to, result).Inc()
}

// ObservePricing mencatat satu perhitungan harga.
func (m *Metrics) ObservePricing(taxType string) {
	if m == nil {
		return
	}
	if taxType == "" {
		taxType = "none"
	}
	m.pricingRuns.WithLabelValues(taxType).Inc()
}

// ObserveDraft mencatat operasi draf (save, delete, submit, expired).
func (m *Metrics) ObserveDraft(action string) {
	if m == nil {
		return
	}
	m.draftOps.WithLabelValues(action).Inc()
}

// ObserveEvent mencatat hasil publikasi event pesanan.
func (m *Metrics) ObserveEvent(eventType string, ok bool) {
	if m == nil {
		return
	}
	result := "published"
	if !ok {
		result = "failed"
	}
	m.orderEvents.WithLabelValues(eventType, result).Inc()
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
