// Package metrics exposes stress run metrics in the Prometheus exposition format.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stress"

var errNilIterationSource = errors.New("metrics: iteration source is nil")

// Exporter records pool lifecycle events and host CPU observations. It
// satisfies stress.Sink so it can be attached to a pool directly.
type Exporter struct {
	registry *prometheus.Registry
	handler  http.Handler

	configured prometheus.Gauge
	live       prometheus.Gauge
	spawned    prometheus.Counter
	shutdowns  prometheus.Counter
	elapsed    prometheus.Gauge
	finished   *prometheus.CounterVec
	hostCPU    prometheus.Gauge
}

// NewExporter constructs an Exporter backed by its own registry.
func NewExporter() *Exporter {
	exporter := &Exporter{
		registry: prometheus.NewRegistry(),
		configured: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_configured",
			Help:      "Number of workers requested for the run.",
		}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_live",
			Help:      "Worker threads currently running.",
		}),
		spawned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workers_spawned_total",
			Help:      "Worker threads spawned.",
		}),
		shutdowns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workers_shutdown_total",
			Help:      "Worker threads that observed shutdown and exited.",
		}),
		elapsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "load_elapsed_ticks",
			Help:      "Progress ticks elapsed in the current load phase (one tick per second unless the pool tick is overridden).",
		}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_finished_total",
			Help:      "Load phases finished, by outcome.",
		}, []string{"outcome"}),
		hostCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_cpu_ratio",
			Help:      "Last observed host CPU utilisation ratio.",
		}),
	}

	exporter.registry.MustRegister(
		exporter.configured,
		exporter.live,
		exporter.spawned,
		exporter.shutdowns,
		exporter.elapsed,
		exporter.finished,
		exporter.hostCPU,
	)
	exporter.handler = promhttp.HandlerFor(exporter.registry, promhttp.HandlerOpts{})

	return exporter
}

// Registry exposes the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// TrackIterations publishes the value returned by source as the benchmark
// iteration counter. It may be called once per exporter.
func (e *Exporter) TrackIterations(source func() uint64) error {
	if source == nil {
		return errNilIterationSource
	}

	counter := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "benchmark_iterations_total",
		Help:      "Completed tarai benchmark evaluations across all workers.",
	}, func() float64 {
		return float64(source())
	})

	err := e.registry.Register(counter)
	if err != nil {
		return fmt.Errorf("register iteration counter: %w", err)
	}

	return nil
}

// ObserveHostCPU records the latest host CPU utilisation ratio, clamped to [0,1].
func (e *Exporter) ObserveHostCPU(ratio float64) {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		ratio = 0
	}

	e.hostCPU.Set(math.Max(0, math.Min(1, ratio)))
}

func (e *Exporter) Initializing(workers int) {
	e.configured.Set(float64(workers))
}

func (e *Exporter) WorkerSpawned(int, int) {
	e.spawned.Inc()
	e.live.Inc()
}

func (e *Exporter) WorkerShutdown(int, int) {
	e.shutdowns.Inc()
	e.live.Dec()
}

func (e *Exporter) LoadStarted(int) {
	e.elapsed.Set(0)
}

func (e *Exporter) LoadTick(elapsed int) {
	e.elapsed.Set(float64(elapsed))
}

func (e *Exporter) LoadFinished(completed bool) {
	outcome := "completed"
	if !completed {
		outcome = "interrupted"
	}

	e.finished.WithLabelValues(outcome).Inc()
}

// ServeHTTP implements http.Handler for the metrics exporter.
func (e *Exporter) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	e.handler.ServeHTTP(writer, request)
}
