// Package metrics counts what the framework does. Collection is passive:
// counters are updated inline and only exported when the host asks for a
// gather, the framework never serves an endpoint of its own.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type Metrics struct {
	registry *prometheus.Registry

	PluginsDiscovered prometheus.Gauge
	Loads             prometheus.Counter
	LoadFailures      prometheus.Counter
	Unloads           prometheus.Counter
	Acquires          prometheus.Counter
	Releases          prometheus.Counter
	Panics            prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PluginsDiscovered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gpf", Name: "plugins_discovered",
			Help: "Plugins found during the last enumeration.",
		}),
		Loads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gpf", Name: "plugin_loads_total",
			Help: "Successful plugin registrations.",
		}),
		LoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gpf", Name: "plugin_load_failures_total",
			Help: "Failed plugin registrations.",
		}),
		Unloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gpf", Name: "plugin_unloads_total",
			Help: "Plugins unloaded.",
		}),
		Acquires: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gpf", Name: "interface_acquires_total",
			Help: "Interface handles handed out.",
		}),
		Releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gpf", Name: "interface_releases_total",
			Help: "Interface handles released.",
		}),
		Panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gpf", Name: "panics_recovered_total",
			Help: "Panics converted to error results at the framework boundary.",
		}),
	}
	m.registry.MustRegister(
		m.PluginsDiscovered, m.Loads, m.LoadFailures,
		m.Unloads, m.Acquires, m.Releases, m.Panics,
	)
	return m
}

// Gather snapshots all counters for the host to render or export.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	return m.registry.Gather()
}
