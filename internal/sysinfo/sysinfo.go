// Package sysinfo probes the host once at startup: OS version, display
// adapters and their drivers. The snapshot feeds minimum-spec validation and
// the system report, and is also published to plugins as a singleton.
package sysinfo

import (
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/example/grpc-plugin-framework/pkg/api"
)

// SystemCaps is the immutable capability snapshot taken during Init.
type SystemCaps struct {
	OSVersion     api.Version        `json:"osVersion"`
	DriverVersion api.Version        `json:"driverVersion"`
	Flags         api.SystemFlags    `json:"flags"`
	Adapters      []*api.AdapterSpec `json:"adapters"`
}

// BestAdapter returns the adapter of the given vendor with the highest
// architecture, or nil.
func (c *SystemCaps) BestAdapter(vendor api.VendorID) *api.AdapterSpec {
	var best *api.AdapterSpec
	for _, a := range c.Adapters {
		if vendor != api.VendorAny && a.Vendor != vendor {
			continue
		}
		if best == nil || a.Architecture > best.Architecture {
			best = a
		}
	}
	return best
}

// ProbeOptions override what the probe would detect, for testing plugins on
// hardware they would otherwise reject. ForceNoAdapters simulates a machine
// with no display adapters at all and wins over a forced vendor.
type ProbeOptions struct {
	ForceVendor       api.VendorID
	ForceArchitecture uint32
	ForceNoAdapters   bool
}

// Probe inspects the host. Probing never fails: a machine without adapters
// (or without the vendor tools installed) yields an empty adapter list, which
// minimum-spec checks then interpret.
func Probe(opts ProbeOptions, log *logrus.Logger) *SystemCaps {
	caps := &SystemCaps{OSVersion: osVersion()}

	if out, err := exec.Command(
		"nvidia-smi",
		"--query-gpu=name,pci.device_id,driver_version,memory.total",
		"--format=csv,noheader,nounits",
	).Output(); err == nil {
		caps.Adapters = parseSMIQuery(string(out), log)
	} else {
		log.WithError(err).Debug("nvidia-smi not available, no NVIDIA adapters detected")
	}

	for _, a := range caps.Adapters {
		if a.DriverVersion.Compare(caps.DriverVersion) > 0 {
			caps.DriverVersion = a.DriverVersion
		}
	}

	if opts.ForceNoAdapters {
		log.Warn("adapter detection overridden, simulating a machine without adapters")
		caps.Adapters = nil
	} else if opts.ForceVendor != api.VendorAny || opts.ForceArchitecture != 0 {
		forced := &api.AdapterSpec{
			Vendor:        opts.ForceVendor,
			Architecture:  opts.ForceArchitecture,
			DriverVersion: caps.DriverVersion,
		}
		if forced.Vendor == api.VendorAny {
			forced.Vendor = api.VendorNVDA
		}
		log.WithFields(logrus.Fields{
			"vendor":       forced.Vendor,
			"architecture": forced.Architecture,
		}).Warn("adapter detection overridden")
		caps.Adapters = []*api.AdapterSpec{forced}
	}

	fields := logrus.Fields{
		"os":       caps.OSVersion,
		"driver":   caps.DriverVersion,
		"adapters": len(caps.Adapters),
	}
	for _, a := range caps.Adapters {
		log.WithFields(logrus.Fields{
			"vendor":       a.Vendor,
			"device":       a.DeviceID,
			"architecture": a.Architecture,
			"dedicatedMB":  a.DedicatedMB,
		}).Debug("adapter")
	}
	log.WithFields(fields).Info("system capabilities probed")
	return caps
}

// numericPrefix keeps the leading dotted-digits run of s, so a kernel
// release like "6.8.0-45-generic" reduces to "6.8.0".
func numericPrefix(s string) string {
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	return strings.TrimSuffix(s[:end], ".")
}

// trimmedLines splits s into non-empty trimmed lines.
func trimmedLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
