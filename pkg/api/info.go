package api

// InterfaceInfo describes one interface a plugin exports, before the plugin
// is asked to register it.
type InterfaceInfo struct {
	Type    InterfaceType `json:"type"`
	Version uint32        `json:"version"`
	// Functions lists the callable names the interface answers to.
	Functions []string `json:"functions,omitempty"`
}

// PluginInfo is the static self-description every plugin must return before
// it is allowed to register. It drives discovery, minimum-spec validation and
// the system report.
type PluginInfo struct {
	ID      PluginID `json:"id"`
	Name    string   `json:"name"`
	Version Version  `json:"version"`
	// API is the descriptor protocol version the plugin was built against.
	API Version `json:"api"`

	Interfaces []InterfaceInfo `json:"interfaces"`

	// RequiredVendor, together with MinGPUArch, gates the plugin on the host
	// adapters. VendorNone means no GPU requirement, VendorAny means any
	// adapter will do.
	RequiredVendor VendorID `json:"requiredVendor"`
	MinGPUArch     uint32   `json:"minGPUArch,omitempty"`
	MinDriver      Version  `json:"minDriver,omitempty"`
	MinOS          Version  `json:"minOS,omitempty"`

	// SharedLibraries lists library basenames the plugin loads from the
	// dependencies path at startup.
	SharedLibraries []string `json:"sharedLibraries,omitempty"`
}

// Exports reports whether the plugin advertises the given interface at the
// requested version or newer.
func (p *PluginInfo) Exports(t InterfaceType, minVersion uint32) bool {
	for _, i := range p.Interfaces {
		if i.Type == t && i.Version >= minVersion {
			return true
		}
	}
	return false
}
