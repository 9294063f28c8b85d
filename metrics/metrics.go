package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"particlesphere/simulation"
)

const namespace = "particlesphere"

// Recorder holds the sphere's Prometheus collectors. It implements
// simulation.Observer.
type Recorder struct {
	registry *prometheus.Registry

	// FrameSeconds tracks the duration of one pipeline tick
	FrameSeconds prometheus.Histogram
	// Particles is the vertex count of the current particle set
	Particles prometheus.Gauge
	// Density is the current tessellation density
	Density prometheus.Gauge
	// Hover is 1 while the pointer is over the sphere
	Hover prometheus.Gauge
	// PointerEvents counts consumed pointer events by kind
	PointerEvents *prometheus.CounterVec
	// Rebuilds counts particle set reconstructions
	Rebuilds prometheus.Counter
	// ConfigUpdates counts applied configuration changes by source
	ConfigUpdates *prometheus.CounterVec
	// Clients is the number of connected control clients
	Clients prometheus.Gauge
}

var _ simulation.Observer = (*Recorder)(nil)

// NewRecorder registers the collectors on reg. A nil reg gets a fresh
// registry with the Go and process collectors.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		FrameSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_seconds",
			Help:      "Pipeline tick duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 10),
		}),
		Particles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "particles",
			Help:      "Number of particles in the current set",
		}),
		Density: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "density",
			Help:      "Current tessellation density",
		}),
		Hover: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hover",
			Help:      "Pointer hover intensity",
		}),
		PointerEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pointer_events_total",
			Help:      "Pointer events consumed by the pipeline",
		}, []string{"kind"}),
		Rebuilds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Particle set reconstructions",
		}),
		ConfigUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_updates_total",
			Help:      "Applied configuration changes by source",
		}, []string{"source"}),
		Clients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "control_clients",
			Help:      "Connected control clients",
		}),
	}
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) ObserveTick(d time.Duration, particles int, hover float32) {
	r.FrameSeconds.Observe(d.Seconds())
	r.Particles.Set(float64(particles))
	r.Hover.Set(float64(hover))
}

func (r *Recorder) ObservePointer(kind simulation.PointerKind) {
	r.PointerEvents.WithLabelValues(kind.String()).Inc()
}

func (r *Recorder) ObserveRebuild(density int) {
	r.Rebuilds.Inc()
	r.Density.Set(float64(density))
}

// ObserveConfigUpdate records a configuration change from source, such as
// "file" or "websocket"
func (r *Recorder) ObserveConfigUpdate(source string) {
	r.ConfigUpdates.WithLabelValues(source).Inc()
}
