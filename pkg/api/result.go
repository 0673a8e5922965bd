package api

// Result is the only error channel that crosses the plugin boundary. The
// framework and every plugin are compiled independently, so Go errors are never
// exchanged between them directly; they are flattened to a code at the edge.
type Result uint32

const (
	ResultOk                               Result = 0
	ResultDriverOutOfDate                  Result = 1 << 24
	ResultOSOutOfDate                      Result = 2 << 24
	ResultNoPluginsFound                   Result = 3 << 24
	ResultInvalidParameter                 Result = 4 << 24
	ResultNoSupportedHardwareFound         Result = 5 << 24
	ResultMissingInterface                 Result = 6 << 24
	ResultMissingDynamicLibraryDependency  Result = 7 << 24
	ResultInvalidState                     Result = 8 << 24
	ResultException                        Result = 9 << 24
	ResultPluginOutOfDate                  Result = 14 << 24
	ResultDuplicatedPluginId               Result = 15 << 24
)

// Failed reports whether r is anything other than ResultOk.
func (r Result) Failed() bool { return r != ResultOk }

func (r Result) String() string {
	switch r {
	case ResultOk:
		return "Ok"
	case ResultDriverOutOfDate:
		return "DriverOutOfDate"
	case ResultOSOutOfDate:
		return "OSOutOfDate"
	case ResultNoPluginsFound:
		return "NoPluginsFound"
	case ResultInvalidParameter:
		return "InvalidParameter"
	case ResultNoSupportedHardwareFound:
		return "NoSupportedHardwareFound"
	case ResultMissingInterface:
		return "MissingInterface"
	case ResultMissingDynamicLibraryDependency:
		return "MissingDynamicLibraryDependency"
	case ResultInvalidState:
		return "InvalidState"
	case ResultException:
		return "Exception"
	case ResultPluginOutOfDate:
		return "PluginOutOfDate"
	case ResultDuplicatedPluginId:
		return "DuplicatedPluginId"
	}
	return "Unknown"
}
