package metrics

import "testing"

func TestGather(t *testing.T) {
	m := New()
	m.PluginsDiscovered.Set(3)
	m.Loads.Inc()
	m.Loads.Inc()
	m.Acquires.Inc()

	families, err := m.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	got := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			if metric.GetCounter() != nil {
				got[f.GetName()] = metric.GetCounter().GetValue()
			}
			if metric.GetGauge() != nil {
				got[f.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}

	if got["gpf_plugins_discovered"] != 3 {
		t.Errorf("plugins_discovered = %v, want 3", got["gpf_plugins_discovered"])
	}
	if got["gpf_plugin_loads_total"] != 2 {
		t.Errorf("plugin_loads_total = %v, want 2", got["gpf_plugin_loads_total"])
	}
	if got["gpf_interface_acquires_total"] != 1 {
		t.Errorf("interface_acquires_total = %v, want 1", got["gpf_interface_acquires_total"])
	}
}

func TestIndependentInstances(t *testing.T) {
	a, b := New(), New()
	a.Loads.Inc()

	families, err := b.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range families {
		if f.GetName() == "gpf_plugin_loads_total" {
			if v := f.GetMetric()[0].GetCounter().GetValue(); v != 0 {
				t.Errorf("fresh instance already counted %v loads", v)
			}
		}
	}
}
