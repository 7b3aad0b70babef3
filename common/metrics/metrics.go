package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lyzr/compressor/common/models"
)

// Prom records compression and artifact metrics on a private registry
type Prom struct {
	registry          *prometheus.Registry
	jobs              *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
	encoderAttempts   *prometheus.CounterVec
	artifactsStored   *prometheus.CounterVec
	artifactsRedeemed *prometheus.CounterVec
}

// NewProm creates the collectors under namespace and registers them together
// with the Go runtime and process collectors.
func NewProm(namespace string) *Prom {
	p := &Prom{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Compression jobs by category and outcome",
		}, []string{"category", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of compression jobs by category",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"category"}),
		encoderAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encoder_attempts_total",
			Help:      "Encoder invocations made by search strategies",
		}, []string{"category"}),
		artifactsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_stored_total",
			Help:      "Compressed artifacts stored by category",
		}, []string{"category"}),
		artifactsRedeemed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_redeemed_total",
			Help:      "Artifact downloads by category",
		}, []string{"category"}),
	}

	p.registry.MustRegister(
		p.jobs,
		p.jobDuration,
		p.encoderAttempts,
		p.artifactsStored,
		p.artifactsRedeemed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prom) ObserveAttempt(category models.Category) {
	p.encoderAttempts.WithLabelValues(category.String()).Inc()
}

func (p *Prom) ObserveJob(category models.Category, outcome string, seconds float64) {
	p.jobs.WithLabelValues(category.String(), outcome).Inc()
	p.jobDuration.WithLabelValues(category.String()).Observe(seconds)
}

func (p *Prom) IncArtifactStored(category models.Category) {
	p.artifactsStored.WithLabelValues(category.String()).Inc()
}

func (p *Prom) IncArtifactRedeemed(category models.Category) {
	p.artifactsRedeemed.WithLabelValues(category.String()).Inc()
}

// Registry exposes the underlying registry for tests and extra collectors
func (p *Prom) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Noop discards everything
type Noop struct{}

func (Noop) ObserveAttempt(models.Category)              {}
func (Noop) ObserveJob(models.Category, string, float64) {}
func (Noop) IncArtifactStored(models.Category)           {}
func (Noop) IncArtifactRedeemed(models.Category)         {}
