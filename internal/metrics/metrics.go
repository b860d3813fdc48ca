package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics — счётчики конвейера импорта. Все методы безопасны для nil-получателя,
// поэтому компоненты принимают *Metrics как необязательную зависимость.
type Metrics struct {
	registry *prometheus.Registry

	extractions   *prometheus.CounterVec
	extractionDur prometheus.Histogram
	relayAttempts *prometheus.CounterVec
	imageUploads  *prometheus.CounterVec
	imports       *prometheus.CounterVec
	scrapeJobs    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.extractions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "events_importer",
		Name:      "extractions_total",
		Help:      "Number of handled extraction messages by action and result",
	}, []string{"action", "result"})
	m.extractionDur = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "events_importer",
		Name:      "extraction_duration_seconds",
		Help:      "Time spent in the extraction pipeline",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15},
	})
	m.relayAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "events_importer",
		Name:      "image_relay_total",
		Help:      "Image relay outcomes",
	}, []string{"status"})
	m.imageUploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "events_importer",
		Name:      "image_uploads_total",
		Help:      "Image host uploads by service and status",
	}, []string{"service", "status"})
	m.imports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "events_importer",
		Name:      "imports_total",
		Help:      "Imported events by result",
	}, []string{"result"})
	m.scrapeJobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "events_importer",
		Name:      "scrape_jobs_total",
		Help:      "Batch scrape jobs by result",
	}, []string{"result"})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.extractions, m.extractionDur, m.relayAttempts,
		m.imageUploads, m.imports, m.scrapeJobs,
	)

	return m
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveExtraction(action string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(action, resultLabel(success)).Inc()
	m.extractionDur.Observe(d.Seconds())
}

func (m *Metrics) RelayAttempt(status string) {
	if m == nil {
		return
	}
	m.relayAttempts.WithLabelValues(status).Inc()
}

func (m *Metrics) ImageUpload(service string, success bool) {
	if m == nil {
		return
	}
	m.imageUploads.WithLabelValues(service, resultLabel(success)).Inc()
}

// Import учитывает результат импорта: created, duplicate или error.
func (m *Metrics) Import(result string) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(result).Inc()
}

func (m *Metrics) ScrapeJob(success bool) {
	if m == nil {
		return
	}
	m.scrapeJobs.WithLabelValues(resultLabel(success)).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "ok"
	}
	return "error"
}
