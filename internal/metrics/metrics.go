// Package metrics holds the Prometheus collectors of the generation pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	generations    *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	synthesis      *prometheus.CounterVec
	assemblies     *prometheus.CounterVec
	staleReclaimed prometheus.Counter
	documents      prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry
// together with the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studycast_generations_total",
			Help: "Podcast generation runs by final status.",
		}, []string{"status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studycast_stage_duration_seconds",
			Help:    "Wall time of each generation stage.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"stage"}),
		synthesis: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studycast_synthesis_items_total",
			Help: "Synthesized segments and answers by provider and outcome.",
		}, []string{"provider", "outcome"}),
		assemblies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studycast_assemblies_total",
			Help: "Audio downloads by format and outcome.",
		}, []string{"format", "outcome"}),
		staleReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "studycast_stale_generations_total",
			Help: "Generating records marked as error by the watchdog.",
		}),
		documents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "studycast_documents_imported_total",
			Help: "Documents created through the API or the inbox.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.generations, m.stageDuration, m.synthesis, m.assemblies, m.staleReclaimed, m.documents,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// GenerationFinished counts a run ending in status.
func (m *Metrics) GenerationFinished(status string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(status).Inc()
}

// ObserveStage records the duration of a stage that started at start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// SynthesisItem counts one synthesized item; ok is false for a failure.
func (m *Metrics) SynthesisItem(provider string, ok bool) {
	if m == nil {
		return
	}
	m.synthesis.WithLabelValues(provider, outcome(ok)).Inc()
}

// Assembly counts one download build.
func (m *Metrics) Assembly(format string, ok bool) {
	if m == nil {
		return
	}
	m.assemblies.WithLabelValues(format, outcome(ok)).Inc()
}

// StaleReclaimed counts records marked as error by the watchdog.
func (m *Metrics) StaleReclaimed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.staleReclaimed.Add(float64(n))
}

// DocumentImported counts one stored document.
func (m *Metrics) DocumentImported() {
	if m == nil {
		return
	}
	m.documents.Inc()
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
