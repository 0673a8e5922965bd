package sysinfo

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/example/grpc-plugin-framework/pkg/api"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestParseSMIQuery(t *testing.T) {
	out := "NVIDIA GeForce RTX 4090, 0x268410DE, 550.54.14, 24564\n" +
		"NVIDIA GeForce RTX 3080, 0x220610DE, 550.54.14, 10240\n"

	adapters := parseSMIQuery(out, discardLogger())
	if len(adapters) != 2 {
		t.Fatalf("got %d adapters, want 2", len(adapters))
	}

	first := adapters[0]
	if first.Vendor != api.VendorNVDA {
		t.Errorf("vendor = %s, want nvidia", first.Vendor)
	}
	if first.Architecture != ArchAda {
		t.Errorf("architecture = %#x, want %#x", first.Architecture, ArchAda)
	}
	if first.DeviceID != 0x2684 {
		t.Errorf("device id = %#x, want 0x2684", first.DeviceID)
	}
	if first.DriverVersion != "550.54.14" {
		t.Errorf("driver = %q", first.DriverVersion)
	}
	if first.DedicatedMB != 24564 {
		t.Errorf("dedicated = %d", first.DedicatedMB)
	}

	if adapters[1].Architecture != ArchAmpere {
		t.Errorf("second architecture = %#x, want %#x", adapters[1].Architecture, ArchAmpere)
	}
}

func TestParseSMIQuerySkipsMalformedLines(t *testing.T) {
	out := "garbage line\nTesla T4, 0x1EB810DE, 535.104.05, 15360\n"

	adapters := parseSMIQuery(out, discardLogger())
	if len(adapters) != 1 {
		t.Fatalf("got %d adapters, want 1", len(adapters))
	}
	if adapters[0].Architecture != ArchTuring {
		t.Errorf("architecture = %#x, want %#x", adapters[0].Architecture, ArchTuring)
	}
}

func TestArchForName(t *testing.T) {
	tests := []struct {
		name string
		want uint32
	}{
		{"NVIDIA GeForce RTX 4070 Ti", ArchAda},
		{"NVIDIA A100-SXM4-80GB", ArchAmpere},
		{"NVIDIA GeForce GTX 1660", ArchTuring},
		{"Some Unknown GPU", 0},
	}
	for _, tt := range tests {
		if got := archForName(tt.name); got != tt.want {
			t.Errorf("archForName(%q) = %#x, want %#x", tt.name, got, tt.want)
		}
	}
}

func TestBestAdapter(t *testing.T) {
	caps := &SystemCaps{Adapters: []*api.AdapterSpec{
		{Vendor: api.VendorNVDA, Architecture: ArchTuring},
		{Vendor: api.VendorNVDA, Architecture: ArchAda},
		{Vendor: api.VendorAMD, Architecture: 0x99999},
	}}

	if got := caps.BestAdapter(api.VendorNVDA); got.Architecture != ArchAda {
		t.Errorf("BestAdapter(nvidia) picked architecture %#x", got.Architecture)
	}
	if got := caps.BestAdapter(api.VendorAny); got.Architecture != 0x99999 {
		t.Errorf("BestAdapter(any) picked architecture %#x", got.Architecture)
	}
	if got := caps.BestAdapter(api.VendorIntel); got != nil {
		t.Errorf("BestAdapter(intel) = %+v, want nil", got)
	}
}

func TestProbeForcedAdapter(t *testing.T) {
	caps := Probe(ProbeOptions{ForceVendor: api.VendorAMD, ForceArchitecture: 0x44}, discardLogger())
	if len(caps.Adapters) != 1 {
		t.Fatalf("forced probe reported %d adapters, want 1", len(caps.Adapters))
	}
	a := caps.Adapters[0]
	if a.Vendor != api.VendorAMD || a.Architecture != 0x44 {
		t.Errorf("forced adapter = %s/%#x", a.Vendor, a.Architecture)
	}
}

func TestProbeForcedNoAdapters(t *testing.T) {
	// Simulating an adapterless machine wins over any forced adapter.
	caps := Probe(ProbeOptions{
		ForceNoAdapters:   true,
		ForceVendor:       api.VendorNVDA,
		ForceArchitecture: ArchAda,
	}, discardLogger())
	if len(caps.Adapters) != 0 {
		t.Errorf("forced adapterless probe reported %d adapters", len(caps.Adapters))
	}
}

func TestNumericPrefix(t *testing.T) {
	tests := []struct{ in, want string }{
		{"6.8.0-45-generic", "6.8.0"},
		{"5.15.0", "5.15.0"},
		{"abc", ""},
		{"10.", "10"},
	}
	for _, tt := range tests {
		if got := numericPrefix(tt.in); got != tt.want {
			t.Errorf("numericPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
