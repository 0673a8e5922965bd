// Package ui renders framework reports for terminal consumption.
package ui

import (
	"fmt"
	"io"
	"strings"

	dto "github.com/prometheus/client_model/go"

	"github.com/example/grpc-plugin-framework/pkg/api"
)

// DisplayReport prints the system half of the report followed by one block
// per discovered plugin.
func DisplayReport(w io.Writer, report *api.PluginAndSystemInformation) {
	fmt.Fprintf(w, "System:\n")
	fmt.Fprintf(w, "  SDK Version: %s\n", report.SDKVersion)
	fmt.Fprintf(w, "  API Version: %s\n", report.APIVersion)
	fmt.Fprintf(w, "  OS Version: %s\n", report.OSVersion)
	if report.DriverVersion != "" {
		fmt.Fprintf(w, "  Driver Version: %s\n", report.DriverVersion)
	}
	fmt.Fprintf(w, "  HW Scheduling: %v\n", report.HWSchedulingEnabled())

	if len(report.Adapters) == 0 {
		fmt.Fprintf(w, "  Adapters: none detected\n")
	}
	for i, a := range report.Adapters {
		fmt.Fprintf(w, "  Adapter %d:\n", i)
		fmt.Fprintf(w, "    Vendor: %s\n", a.Vendor)
		fmt.Fprintf(w, "    Device: 0x%04x\n", a.DeviceID)
		fmt.Fprintf(w, "    Architecture: 0x%x\n", a.Architecture)
		fmt.Fprintf(w, "    Driver: %s\n", a.DriverVersion)
		if a.DedicatedMB > 0 {
			fmt.Fprintf(w, "    Dedicated Memory: %d MB\n", a.DedicatedMB)
		}
	}

	fmt.Fprintf(w, "\nPlugins (%d):\n", len(report.Plugins))
	for _, p := range report.Plugins {
		DisplayPluginSpec(w, p)
	}
}

// DisplayPluginSpec prints everything discovery recorded about one plugin.
func DisplayPluginSpec(w io.Writer, spec *api.PluginSpec) {
	fmt.Fprintf(w, "  %s:\n", spec.Name)
	fmt.Fprintf(w, "    ID: %s\n", spec.ID)
	fmt.Fprintf(w, "    Path: %s\n", spec.Path)
	fmt.Fprintf(w, "    Version: %s (api %s)\n", spec.Version, spec.API)
	fmt.Fprintf(w, "    Status: %s\n", spec.Status)

	var reqs []string
	if spec.RequiredVendor != api.VendorNone {
		reqs = append(reqs, fmt.Sprintf("vendor %s", spec.RequiredVendor))
	}
	if spec.MinGPUArch != 0 {
		reqs = append(reqs, fmt.Sprintf("arch >= 0x%x", spec.MinGPUArch))
	}
	if spec.MinDriver != "" {
		reqs = append(reqs, fmt.Sprintf("driver >= %s", spec.MinDriver))
	}
	if spec.MinOS != "" {
		reqs = append(reqs, fmt.Sprintf("os >= %s", spec.MinOS))
	}
	if len(reqs) > 0 {
		fmt.Fprintf(w, "    Requires: %s\n", strings.Join(reqs, ", "))
	}

	for _, i := range spec.Interfaces {
		if len(i.Functions) > 0 {
			fmt.Fprintf(w, "    Interface %s v%d: %s\n", i.Type, i.Version, strings.Join(i.Functions, ", "))
		} else {
			fmt.Fprintf(w, "    Interface %s v%d\n", i.Type, i.Version)
		}
	}
}

// DisplayMetrics prints gathered counter families, one line per sample.
func DisplayMetrics(w io.Writer, families []*dto.MetricFamily) {
	fmt.Fprintf(w, "Metrics:\n")
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			default:
				continue
			}
			fmt.Fprintf(w, "  %s: %g\n", fam.GetName(), value)
		}
	}
}
