package api

// SystemFlags carry boolean facts about the host worth surfacing alongside
// the adapter list.
type SystemFlags uint32

const (
	// SystemFlagHWSchedulingEnabled is set when the OS reports GPU hardware
	// scheduling turned on.
	SystemFlagHWSchedulingEnabled SystemFlags = 1 << iota
)

// AdapterSpec describes one display adapter found during Init.
type AdapterSpec struct {
	Vendor        VendorID `json:"vendor"`
	DeviceID      uint32   `json:"deviceId"`
	Architecture  uint32   `json:"architecture"`
	DriverVersion Version  `json:"driverVersion"`
	DedicatedMB   uint64   `json:"dedicatedMB"`
}

// PluginSpec records everything discovery learned about one plugin file.
// Status holds the validation outcome; a plugin with a failed status is
// listed for diagnostics but can never be loaded.
type PluginSpec struct {
	// Name is the file basename the plugin was found under.
	Name string   `json:"name"`
	Path string   `json:"path"`
	ID   PluginID `json:"id"`

	Version Version `json:"version"`
	API     Version `json:"api"`

	Interfaces []InterfaceInfo `json:"interfaces,omitempty"`

	RequiredVendor VendorID `json:"requiredVendor"`
	MinGPUArch     uint32   `json:"minGPUArch,omitempty"`
	MinDriver      Version  `json:"minDriver,omitempty"`
	MinOS          Version  `json:"minOS,omitempty"`

	Status Result `json:"status"`
}

// Supported reports whether the plugin passed validation.
func (p *PluginSpec) Supported() bool { return p.Status == ResultOk }

// PluginAndSystemInformation is the report returned by Init. The framework
// owns it; it stays valid until Shutdown.
type PluginAndSystemInformation struct {
	SDKVersion Version `json:"sdkVersion"`
	APIVersion Version `json:"apiVersion"`

	OSVersion     Version     `json:"osVersion"`
	DriverVersion Version     `json:"driverVersion"`
	Flags         SystemFlags `json:"flags"`

	Adapters []*AdapterSpec `json:"adapters"`
	Plugins  []*PluginSpec  `json:"plugins"`
}

// FindPlugin returns the spec recorded for id, or nil when discovery never
// saw it.
func (r *PluginAndSystemInformation) FindPlugin(id PluginID) *PluginSpec {
	for _, p := range r.Plugins {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PluginStatus returns the validation outcome for id, or ResultNoPluginsFound
// for an unknown identity.
func (r *PluginAndSystemInformation) PluginStatus(id PluginID) Result {
	if p := r.FindPlugin(id); p != nil {
		return p.Status
	}
	return ResultNoPluginsFound
}

// HWSchedulingEnabled reports the OS hardware scheduling flag.
func (r *PluginAndSystemInformation) HWSchedulingEnabled() bool {
	return r.Flags&SystemFlagHWSchedulingEnabled != 0
}
