// Package metrics exposes Prometheus instrumentation for the heater daemon.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the daemon's instruments behind a private registry.
type Metrics struct {
	registry *prometheus.Registry

	inletTemp          prometheus.Gauge
	firing             prometheus.Gauge
	tripped            prometheus.Gauge
	firingCyclesTotal  prometheus.Counter
	tripsTotal         prometheus.Counter
	sensorFaultsTotal  prometheus.Counter
	firingSecondsTotal prometheus.Counter

	lastFiring  bool
	lastTripped bool
}

// New creates the instruments on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.inletTemp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "heater",
		Name:      "inlet_temperature_kelvin",
		Help:      "Sensed inlet temperature",
	})
	m.firing = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "heater",
		Name:      "firing_binary",
		Help:      "Registers when the burner is commanded on",
	})
	m.tripped = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "heater",
		Name:      "high_limit_tripped_binary",
		Help:      "Registers when the high-limit trip condition is active",
	})
	m.firingCyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "heater",
		Name:      "firing_cycles_total",
		Help:      "Increases when a new firing cycle starts",
	})
	m.tripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "heater",
		Name:      "trips_total",
		Help:      "Increases when the high-limit trip asserts",
	})
	m.sensorFaultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "heater",
		Name:      "sensor_faults_total",
		Help:      "Increases when an inlet temperature sample is rejected",
	})
	m.firingSecondsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "heater",
		Name:      "firing_seconds_total",
		Help:      "Accumulated burner run time",
	})

	m.registry.MustRegister(
		m.inletTemp, m.firing, m.tripped,
		m.firingCyclesTotal, m.tripsTotal, m.sensorFaultsTotal,
		m.firingSecondsTotal,
	)
	return m
}

func boolToGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ObserveTick updates the instruments from one controller tick.
func (m *Metrics) ObserveTick(firing, tripped bool, inletTemp, dtSeconds float64) {
	m.inletTemp.Set(inletTemp)
	m.firing.Set(boolToGauge(firing))
	m.tripped.Set(boolToGauge(tripped))

	if firing && !m.lastFiring {
		m.firingCyclesTotal.Inc()
	}
	if tripped && !m.lastTripped {
		m.tripsTotal.Inc()
	}
	if firing {
		m.firingSecondsTotal.Add(dtSeconds)
	}

	m.lastFiring = firing
	m.lastTripped = tripped
}

// ObserveSensorFault counts a rejected temperature sample.
func (m *Metrics) ObserveSensorFault() {
	m.sensorFaultsTotal.Inc()
}

// Handler returns the scrape endpoint for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
