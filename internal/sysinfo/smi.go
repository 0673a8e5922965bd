package sysinfo

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/example/grpc-plugin-framework/pkg/api"
)

// NVIDIA architecture identifiers, matching the values drivers report.
const (
	ArchTuring uint32 = 0x160
	ArchAmpere uint32 = 0x170
	ArchAda    uint32 = 0x190
)

// archForName maps a marketing name to an architecture identifier. Unknown
// names map to 0, which fails any plugin with an architecture floor.
func archForName(name string) uint32 {
	n := strings.ToUpper(name)
	switch {
	case strings.Contains(n, "RTX 40"), strings.Contains(n, "ADA"):
		return ArchAda
	case strings.Contains(n, "RTX 30"), strings.Contains(n, "A100"), strings.Contains(n, "A10"):
		return ArchAmpere
	case strings.Contains(n, "RTX 20"), strings.Contains(n, "GTX 16"), strings.Contains(n, "T4"):
		return ArchTuring
	}
	return 0
}

// parseSMIQuery decodes the csv,noheader,nounits output of
// nvidia-smi --query-gpu=name,pci.device_id,driver_version,memory.total.
func parseSMIQuery(out string, log *logrus.Logger) []*api.AdapterSpec {
	var adapters []*api.AdapterSpec
	for _, line := range trimmedLines(out) {
		fields := strings.Split(line, ",")
		if len(fields) != 4 {
			log.WithField("line", line).Warn("unexpected nvidia-smi output")
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		a := &api.AdapterSpec{
			Vendor:        api.VendorNVDA,
			Architecture:  archForName(fields[0]),
			DriverVersion: api.Version(fields[2]),
		}
		if dev, vendor, ok := parsePCIDeviceID(fields[1]); ok {
			a.DeviceID = dev
			a.Vendor = api.VendorID(vendor)
		}
		if mb, err := strconv.ParseUint(fields[3], 10, 64); err == nil {
			a.DedicatedMB = mb
		}
		adapters = append(adapters, a)
	}
	return adapters
}

// parsePCIDeviceID decodes the "0x2684 10DE" style token, device id in the
// high 16 bits, vendor in the low.
func parsePCIDeviceID(s string) (device, vendor uint32, ok bool) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, false
	}
	return uint32(v >> 16), uint32(v & 0xffff), true
}
