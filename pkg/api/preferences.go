package api

// LogLevel selects how chatty the framework log sink is.
type LogLevel int

const (
	LogLevelOff LogLevel = iota
	LogLevelDefault
	LogLevelVerbose
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelOff:
		return "off"
	case LogLevelDefault:
		return "default"
	case LogLevelVerbose:
		return "verbose"
	}
	return "unknown"
}

// PreferenceFlags toggle optional Init behaviors.
type PreferenceFlags uint64

const (
	// PreferenceShowConsole mirrors log output to the console.
	PreferenceShowConsole PreferenceFlags = 1 << iota
	// PreferenceDisableLogFile suppresses the log file even when a data path
	// is configured.
	PreferenceDisableLogFile
	// PreferenceEagerLoad registers every discovered plugin during Init
	// instead of on first interface request.
	PreferenceEagerLoad
	// PreferenceDisablePrivilegeDowngrade keeps elevated credentials instead
	// of dropping them before plugin processes are spawned.
	PreferenceDisablePrivilegeDowngrade
	// PreferenceDisableTimerResolution skips the timer resolution change on
	// platforms that have one. No effect on Linux.
	PreferenceDisableTimerResolution
	// PreferenceAllowOTA permits over-the-air plugin delivery. Reserved;
	// nothing ships OTA payloads yet.
	PreferenceAllowOTA
)

// LogCallback receives every log record when the host wants to own log
// presentation. Setting it disables the framework's console output.
type LogCallback func(level LogLevel, component, message string)

// Preferences is the host-supplied configuration for Init. The framework
// copies what it needs; the host keeps ownership of the struct.
type Preferences struct {
	// PathsToPlugins lists directories searched for plugin executables.
	// Duplicates are tolerated, invalid paths fail Init.
	PathsToPlugins []string

	// PathToLogsAndData, when set, receives the log file and crash snapshots.
	PathToLogsAndData string

	// PathToDependencies points at the shared runtime payload plugins load
	// their libraries from. Must exist when set.
	PathToDependencies string

	LogLevel LogLevel
	Flags    PreferenceFlags

	// Logger, when non-nil, receives all log records and console output is
	// suppressed.
	Logger LogCallback
}
