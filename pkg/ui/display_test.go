package ui

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/example/grpc-plugin-framework/pkg/api"
)

func TestDisplayReport(t *testing.T) {
	report := &api.PluginAndSystemInformation{
		SDKVersion:    "1.1.1",
		APIVersion:    "0.0.1",
		OSVersion:     "6.8.0",
		DriverVersion: "555.12",
		Adapters: []*api.AdapterSpec{
			{Vendor: api.VendorNVDA, DeviceID: 0x2684, Architecture: 0x190, DriverVersion: "555.12", DedicatedMB: 24564},
		},
		Plugins: []*api.PluginSpec{
			{
				Name:           "gpf-plugin-echo",
				Path:           "/opt/plugins/gpf-plugin-echo",
				ID:             api.MustPluginID("3f2c9a1e-7b64-4d08-9c5a-2e81f0d6b437"),
				Version:        "1.0.0",
				API:            "0.0.1",
				RequiredVendor: api.VendorNone,
				Interfaces: []api.InterfaceInfo{
					{Type: uuid.MustParse("6e1f3b82-4c07-4a59-8db2-91c5e7a0f364"), Version: 1, Functions: []string{"echo", "upper"}},
				},
				Status: api.ResultOk,
			},
			{
				Name:           "gpf-plugin-cuda",
				ID:             api.MustPluginID("9d4b7e20-1a5f-4c93-b6d8-05e3a2c7f918"),
				Version:        "2.1.0",
				API:            "0.0.1",
				RequiredVendor: api.VendorNVDA,
				MinGPUArch:     0x170,
				MinDriver:      "550.0.0",
				Status:         api.ResultNoSupportedHardwareFound,
			},
		},
	}

	var sb strings.Builder
	DisplayReport(&sb, report)
	out := sb.String()

	assert.Contains(t, out, "SDK Version: 1.1.1")
	assert.Contains(t, out, "Vendor: nvidia")
	assert.Contains(t, out, "Plugins (2):")
	assert.Contains(t, out, "gpf-plugin-echo")
	assert.Contains(t, out, "echo, upper")
	assert.Contains(t, out, "vendor nvidia, arch >= 0x170, driver >= 550.0.0")
	assert.Contains(t, out, api.ResultNoSupportedHardwareFound.String())
}

func TestDisplayReportWithoutAdapters(t *testing.T) {
	var sb strings.Builder
	DisplayReport(&sb, &api.PluginAndSystemInformation{OSVersion: "6.8.0"})
	assert.Contains(t, sb.String(), "Adapters: none detected")
}
