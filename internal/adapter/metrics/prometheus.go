package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"interpinfo/internal/domain"
)

// Prometheus implements domain.Recorder on a private registry.
type Prometheus struct {
	lookups       *prometheus.CounterVec
	stale         *prometheus.CounterVec
	interrogation *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewPrometheus creates a recorder whose metric names start with namespace.
func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = "interpinfo"
	}

	p := &Prometheus{registry: prometheus.NewRegistry()}

	p.lookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Interpreter lookups by the tier that answered them",
		},
		[]string{"tier"},
	)
	p.stale = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_entries_total",
			Help:      "Durable cache entries discarded as stale",
		},
		[]string{"reason"},
	)
	p.interrogation = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "interrogation_duration_seconds",
			Help:      "Wall time spent running the bootstrap script",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"result"},
	)

	p.registry.MustRegister(p.lookups, p.stale, p.interrogation)
	return p
}

// Registry exposes the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Lookup counts a lookup answered by tier.
func (p *Prometheus) Lookup(tier domain.Tier) {
	p.lookups.WithLabelValues(string(tier)).Inc()
}

// StaleEntry counts a discarded durable entry.
func (p *Prometheus) StaleEntry(reason string) {
	p.stale.WithLabelValues(reason).Inc()
}

// Interrogation observes one child run.
func (p *Prometheus) Interrogation(d time.Duration, err error) {
	p.interrogation.WithLabelValues(resultLabel(err)).Observe(d.Seconds())
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (p *Prometheus) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var ie *domain.InterrogationError
	if errors.As(err, &ie) {
		if ie.Kind == domain.SpawnFailure {
			return "spawn_failure"
		}
		return "nonzero_exit"
	}
	var de *domain.DecodeError
	if errors.As(err, &de) {
		return "decode_error"
	}
	return "error"
}

// Nop discards every event.
type Nop struct{}

func (Nop) Lookup(domain.Tier)                 {}
func (Nop) StaleEntry(string)                  {}
func (Nop) Interrogation(time.Duration, error) {}
