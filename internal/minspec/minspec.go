// Package minspec decides whether a plugin's declared requirements are met by
// the host. The checks run in a fixed order so the reported status is always
// the first unmet requirement, not an arbitrary one.
package minspec

import (
	"github.com/example/grpc-plugin-framework/internal/sysinfo"
	"github.com/example/grpc-plugin-framework/pkg/api"
)

// Check validates info against the host snapshot. hostAPI is the descriptor
// protocol version the framework itself implements.
func Check(info *api.PluginInfo, caps *sysinfo.SystemCaps, hostAPI api.Version) api.Result {
	if info.MinDriver != "" && caps.DriverVersion.Compare(info.MinDriver) < 0 {
		return api.ResultDriverOutOfDate
	}

	if info.MinOS != "" && caps.OSVersion.Compare(info.MinOS) < 0 {
		return api.ResultOSOutOfDate
	}

	// A plugin built against a newer protocol than the framework speaks may
	// register interfaces the framework cannot represent.
	if info.API.Compare(hostAPI) > 0 {
		return api.ResultInvalidState
	}

	switch info.RequiredVendor {
	case api.VendorNone:
		return api.ResultOk
	case api.VendorAny:
		if len(caps.Adapters) == 0 {
			return api.ResultNoSupportedHardwareFound
		}
		return api.ResultOk
	default:
		for _, a := range caps.Adapters {
			if a.Vendor == info.RequiredVendor && a.Architecture >= info.MinGPUArch {
				return api.ResultOk
			}
		}
		return api.ResultNoSupportedHardwareFound
	}
}
