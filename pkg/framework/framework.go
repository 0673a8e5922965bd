// Package framework is the host-facing core: it discovers plugins, validates
// them against the machine it is running on, and manages the lifetime of
// every interface handed out. Hosts interact through four operations: Init,
// LoadInterface, UnloadInterface and Shutdown.
package framework

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc"

	"github.com/example/grpc-plugin-framework/internal/crashdump"
	"github.com/example/grpc-plugin-framework/internal/loader"
	"github.com/example/grpc-plugin-framework/internal/membuf"
	"github.com/example/grpc-plugin-framework/internal/metrics"
	"github.com/example/grpc-plugin-framework/internal/override"
	"github.com/example/grpc-plugin-framework/internal/registry"
	"github.com/example/grpc-plugin-framework/internal/sysinfo"
	"github.com/example/grpc-plugin-framework/pkg/api"
)

// Framework and protocol versions.
const (
	SDKVersion = api.Version("1.1.1")
	APIVersion = api.Version("0.0.1")
)

// State is the framework lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting down"
	}
	return "unknown"
}

// moduleRecord tracks one discovered plugin. handle is nil while the plugin
// is unlinked; spec points into the report and carries the discovery outcome.
type moduleRecord struct {
	id     api.PluginID
	path   string
	info   *api.PluginInfo
	spec   *api.PluginSpec
	handle loader.Handle
	token  string
}

// Framework is one initialized instance. Create it with Init.
type Framework struct {
	log     *logrus.Logger
	logFile *os.File
	ldr     loader.Loader
	reg     *registry.Registry
	crash   *crashdump.Writer
	caps    *sysinfo.SystemCaps
	met     *metrics.Metrics
	pool    *membuf.Pool

	mu         sync.Mutex
	state      State
	modules    map[api.PluginID]*moduleRecord
	report     *api.PluginAndSystemInformation
	searchDirs []string
	depsPath   string

	// registering breaks the cycle of a plugin requesting an interface from
	// itself mid-registration; group collapses concurrent first requests for
	// the same plugin into one registration.
	registering  map[api.PluginID]bool
	group        singleflight.Group
	validateLibs bool

	hostLis net.Listener
	hostSrv *grpc.Server

	tokensMu sync.Mutex
	tokens   map[string]api.PluginID
}

// Options tune an instance beyond what Preferences express. The zero value
// is production behavior.
type Options struct {
	// Loader replaces process management, for tests.
	Loader loader.Loader
}

// Init brings a framework instance up: logging, system probe, plugin
// discovery and validation. On success the instance is Ready and its report
// is available; on failure the returned result says what went wrong and no
// instance exists.
func Init(prefs api.Preferences, sdkToken uint64, opts Options) (*Framework, api.Result) {
	f := &Framework{
		state:       StateInitializing,
		modules:     make(map[api.PluginID]*moduleRecord),
		registering: make(map[api.PluginID]bool),
		tokens:      make(map[string]api.PluginID),
		pool:        membuf.New(),
		met:         metrics.New(),
	}

	log, logFile, err := configureLogging(&prefs)
	if err != nil {
		return nil, api.ResultInvalidParameter
	}
	f.log, f.logFile = log, logFile

	// Child processes inherit our credentials; never pass elevation on.
	if prefs.Flags&api.PreferenceDisablePrivilegeDowngrade == 0 {
		sysinfo.DowngradePrivileges(log)
	}

	ov := override.Load(log)
	applyOverridesToPrefs(ov, &prefs, log)

	dumpDir := prefs.PathToLogsAndData
	if ov != nil && ov.DumpPath != "" {
		dumpDir = ov.DumpPath
	}
	f.crash = crashdump.NewWriter(dumpDir, log)
	f.crash.OnPanic = f.met.Panics.Inc

	res := f.crash.Guard("init", func() api.Result { return f.init(&prefs, sdkToken, ov, opts) })
	if res.Failed() {
		f.teardown()
		return nil, res
	}

	f.mu.Lock()
	f.state = StateReady
	f.mu.Unlock()
	return f, api.ResultOk
}

func (f *Framework) init(prefs *api.Preferences, sdkToken uint64, ov *override.Settings, opts Options) api.Result {
	hostSDK, ok := api.UnpackSDKVersion(sdkToken)
	if !ok {
		f.log.Error("SDK version token is malformed; pass the packed version constant")
		return api.ResultInvalidParameter
	}
	hostMajor, _, _ := hostSDK.Parts()
	if fwMajor, _, _ := SDKVersion.Parts(); hostMajor != fwMajor {
		f.log.WithFields(logrus.Fields{
			"host":      hostSDK,
			"framework": SDKVersion,
		}).Warn("host was built against a different major SDK version")
	}

	probe := sysinfo.ProbeOptions{}
	if ov != nil {
		if ov.ForceAdapter != "" {
			if v, ok := vendorByName(ov.ForceAdapter); ok {
				probe.ForceVendor = v
			} else {
				f.log.WithField("adapter", ov.ForceAdapter).Warn("ignoring unknown adapter name in overrides")
			}
		}
		probe.ForceArchitecture = ov.ForceArchitecture
		if ov.ForceNoAdapters != nil {
			probe.ForceNoAdapters = *ov.ForceNoAdapters
		}
	}
	f.caps = sysinfo.Probe(probe, f.log)

	if prefs.PathToDependencies != "" {
		deps, err := normalizeDir(prefs.PathToDependencies)
		if err != nil {
			f.log.WithError(err).Error("dependencies path is not a usable directory")
			return api.ResultInvalidParameter
		}
		f.depsPath = deps
	}

	dirs, res := normalizeSearchDirs(prefs.PathsToPlugins, f.log)
	if res.Failed() {
		return res
	}
	f.searchDirs = dirs

	if opts.Loader != nil {
		f.ldr = opts.Loader
	} else {
		ldr, err := loader.New(loader.Config{
			DepsPath:       f.depsPath,
			ProbeCacheSize: 64,
			Log:            f.log,
		})
		if err != nil {
			f.log.WithError(err).Error("cannot create plugin loader")
			return api.ResultInvalidState
		}
		f.ldr = ldr
	}

	f.validateLibs = true
	if ov != nil && ov.ValidateLibraries != nil {
		f.validateLibs = *ov.ValidateLibraries
	}

	// The same library basename in two search directories makes load order
	// configuration-dependent; refuse to guess. The dependencies directory
	// participates because plugins resolve libraries from it too.
	libDirs := f.searchDirs
	if f.depsPath != "" {
		libDirs = append(append([]string{}, f.searchDirs...), f.depsPath)
	}
	if dupes := loader.DuplicateLibraries(libDirs, f.ldr.SharedLibraries); len(dupes) > 0 {
		for lib, where := range dupes {
			f.log.WithFields(logrus.Fields{"library": lib, "directories": where}).Error("duplicate shared library across search paths")
		}
		return api.ResultInvalidState
	}

	f.reg = registry.New(f.log)
	f.registerSingletons()

	if err := f.startHostService(); err != nil {
		f.log.WithError(err).Error("cannot start callback service")
		return api.ResultInvalidState
	}

	f.report = &api.PluginAndSystemInformation{
		SDKVersion:    SDKVersion,
		APIVersion:    APIVersion,
		OSVersion:     f.caps.OSVersion,
		DriverVersion: f.caps.DriverVersion,
		Flags:         f.caps.Flags,
		Adapters:      f.caps.Adapters,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	for _, dir := range f.searchDirs {
		f.enumerateDirectory(ctx, dir, nil)
	}
	f.met.PluginsDiscovered.Set(float64(len(f.modules)))

	if len(f.modules) == 0 {
		f.log.WithField("directories", f.searchDirs).Error("no plugins found")
		return api.ResultNoPluginsFound
	}

	f.warnOrphanLibraries()
	return f.eagerRegister(ctx, prefs, ov)
}

// eagerRegister links plugins the host asked for up front. Failures are
// logged but do not fail Init; the report carries the per-plugin status.
func (f *Framework) eagerRegister(ctx context.Context, prefs *api.Preferences, ov *override.Settings) api.Result {
	var ids []api.PluginID
	if prefs.Flags&api.PreferenceEagerLoad != 0 {
		for id, rec := range f.modules {
			if rec.spec.Supported() {
				ids = append(ids, id)
			}
		}
	}
	if ov != nil {
		for _, s := range ov.RegisterPlugins {
			id, err := api.ParsePluginID(s)
			if err != nil {
				f.log.WithError(err).Warn("ignoring malformed plugin id in overrides")
				continue
			}
			ids = append(ids, id)
		}
	}

	for _, id := range ids {
		if res := f.ensureRegistered(ctx, id); res.Failed() {
			f.log.WithFields(logrus.Fields{"plugin": id, "result": res}).Warn("eager registration failed")
		}
	}
	return api.ResultOk
}

// Report returns the plugin and system information gathered during Init. The
// framework owns it; it is valid until Shutdown.
func (f *Framework) Report() *api.PluginAndSystemInformation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.report
}

// Metrics exposes the instance counters for the host to export.
func (f *Framework) Metrics() *metrics.Metrics { return f.met }

// Shutdown unloads every plugin and releases all framework resources. Hosts
// that still hold counted interfaces are reported with an error result, but
// shutdown always completes and the instance always ends Uninitialized.
func (f *Framework) Shutdown() api.Result {
	return f.crash.Guard("shutdown", f.shutdown)
}

func (f *Framework) shutdown() api.Result {
	f.mu.Lock()
	if f.state != StateReady {
		state := f.state
		f.mu.Unlock()
		f.log.WithField("state", state).Error("shutdown called in wrong state")
		return api.ResultInvalidState
	}
	f.state = StateShuttingDown
	f.mu.Unlock()

	result := api.ResultOk

	// Leak sweep first, while everything is still loaded and attributable.
	for _, id := range f.reg.Identities() {
		for _, h := range f.reg.Leaks(id) {
			f.log.WithFields(logrus.Fields{
				"plugin":    id,
				"interface": h,
			}).Error("interface still referenced at shutdown")
			result = api.ResultInvalidState
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	f.mu.Lock()
	records := make([]*moduleRecord, 0, len(f.modules))
	for _, rec := range f.modules {
		records = append(records, rec)
	}
	f.mu.Unlock()

	for _, rec := range records {
		if rec.handle == nil {
			continue
		}
		if res := f.unlinkModule(ctx, rec); res.Failed() && result == api.ResultOk {
			result = res
		}
	}

	f.log.Info("framework shut down")
	f.teardown()
	return result
}

// teardown releases instance resources and resets the state machine. Safe to
// call on a partially initialized instance; failed inits come through here
// too, so the log file is closed here and nowhere else.
func (f *Framework) teardown() {
	if f.hostSrv != nil {
		f.hostSrv.Stop()
		f.hostSrv = nil
	}
	f.mu.Lock()
	f.modules = make(map[api.PluginID]*moduleRecord)
	f.report = nil
	f.state = StateUninitialized
	f.mu.Unlock()
	if f.logFile != nil {
		f.logFile.Close()
		f.logFile = nil
	}
}

// applyOverridesToPrefs folds developer overrides into the effective
// preferences before anything acts on them.
func applyOverridesToPrefs(ov *override.Settings, prefs *api.Preferences, log *logrus.Logger) {
	if ov == nil {
		return
	}
	if ov.ShowConsole != nil && *ov.ShowConsole {
		prefs.Flags |= api.PreferenceShowConsole
	}
	if ov.LogLevel != nil {
		prefs.LogLevel = api.LogLevel(*ov.LogLevel)
	}
	if ov.LogPath != "" {
		prefs.PathToLogsAndData = ov.LogPath
	}
	if len(ov.PathToPlugins) > 0 {
		prefs.PathsToPlugins = append(prefs.PathsToPlugins, ov.PathToPlugins...)
	}
	if ov.PathToDependencies != "" {
		prefs.PathToDependencies = ov.PathToDependencies
	}
	if ov.WaitForDebugger != nil && *ov.WaitForDebugger {
		log.WithField("pid", os.Getpid()).Warn("waiting 30s for a debugger to attach")
		time.Sleep(30 * time.Second)
	}
}

// normalizeSearchDirs validates and deduplicates the plugin directories.
func normalizeSearchDirs(paths []string, log *logrus.Logger) ([]string, api.Result) {
	var dirs []string
	seen := make(map[string]bool)
	for _, p := range paths {
		dir, err := normalizeDir(p)
		if err != nil {
			log.WithError(err).WithField("path", p).Error("plugin path is not a usable directory")
			return nil, api.ResultInvalidParameter
		}
		if seen[dir] {
			log.WithField("path", dir).Warn("duplicate plugin path ignored")
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	return dirs, api.ResultOk
}

func normalizeDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return filepath.Clean(abs), nil
}

func vendorByName(name string) (api.VendorID, bool) {
	switch name {
	case "nvidia":
		return api.VendorNVDA, true
	case "amd":
		return api.VendorAMD, true
	case "intel":
		return api.VendorIntel, true
	case "microsoft":
		return api.VendorMS, true
	}
	return api.VendorAny, false
}

// warnOrphanLibraries flags libraries in the dependencies directory no
// discovered plugin declares. Usually a packaging leftover.
func (f *Framework) warnOrphanLibraries() {
	if f.depsPath == "" {
		return
	}
	libs, err := f.ldr.SharedLibraries(f.depsPath)
	if err != nil {
		return
	}

	declared := make(map[string]bool)
	for _, rec := range f.modules {
		for _, lib := range rec.info.SharedLibraries {
			declared[lib] = true
		}
	}
	for _, lib := range libs {
		if !declared[lib] {
			f.log.WithField("library", lib).Warn("library in dependencies directory is not declared by any plugin")
		}
	}
}
