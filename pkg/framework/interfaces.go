package framework

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/grpc-plugin-framework/internal/minspec"
	"github.com/example/grpc-plugin-framework/pkg/api"
	"github.com/example/grpc-plugin-framework/pkg/wire"
)

// unlinkTimeout bounds the deregister round trip when an unload is triggered
// by a release rather than an explicit call with a context.
const unlinkTimeout = 30 * time.Second

// LoadInterface acquires an interface from the plugin with the given
// identity, linking the plugin first if this is its first use. minVersion is
// the version the caller was written against; an older implementation is
// still returned, so callers must check the header they got before relying
// on newer functions. extraPaths are additional directories searched if the
// plugin was not discovered during Init.
//
// Every successful call must be balanced by UnloadInterface.
func (f *Framework) LoadInterface(ctx context.Context, id api.PluginID, t api.InterfaceType, minVersion uint32, extraPaths ...string) (api.Interface, api.Result) {
	var (
		iface api.Interface
		res   api.Result
	)
	res = f.crash.Guard("loadInterface", func() api.Result {
		iface, res = f.loadInterface(ctx, id, t, minVersion, extraPaths)
		return res
	})
	if res.Failed() {
		return nil, res
	}
	return iface, api.ResultOk
}

func (f *Framework) loadInterface(ctx context.Context, id api.PluginID, t api.InterfaceType, minVersion uint32, extraPaths []string) (api.Interface, api.Result) {
	f.mu.Lock()
	state := f.state
	f.mu.Unlock()
	if state != StateReady {
		f.log.WithField("state", state).Error("loadInterface called in wrong state")
		return nil, api.ResultInvalidState
	}
	if !id.Valid() {
		f.log.WithField("id", id).Error("plugin identity failed its checksum")
		return nil, api.ResultInvalidParameter
	}

	if f.findModule(id) == nil && len(extraPaths) > 0 {
		f.discoverIn(ctx, id, extraPaths)
	}

	rec := f.findModule(id)
	if rec == nil {
		// Discovery may have seen and rejected the plugin; report why.
		f.mu.Lock()
		report := f.report
		f.mu.Unlock()
		if report != nil {
			if spec := report.FindPlugin(id); spec != nil && spec.Status.Failed() {
				return nil, spec.Status
			}
		}
		if id == CoreID {
			return f.fromRegistry(id, t, minVersion)
		}
		f.log.WithField("id", id).Error("no such plugin")
		return nil, api.ResultMissingInterface
	}

	if res := f.ensureRegistered(ctx, id); res.Failed() {
		return nil, res
	}
	return f.fromRegistry(id, t, minVersion)
}

func (f *Framework) fromRegistry(id api.PluginID, t api.InterfaceType, minVersion uint32) (api.Interface, api.Result) {
	iface := f.reg.Get(id, t)
	if iface == nil {
		f.log.WithFields(logrus.Fields{
			"plugin": id,
			"type":   t,
		}).Error("plugin does not provide the requested interface")
		return nil, api.ResultMissingInterface
	}
	if v := iface.Header().Version; v < minVersion {
		f.log.WithFields(logrus.Fields{
			"plugin":    id,
			"type":      t,
			"requested": minVersion,
			"provided":  v,
		}).Debug("serving an older interface version than requested")
	}
	f.met.Acquires.Inc()
	return iface, api.ResultOk
}

// discoverIn runs a scoped enumeration of extra search paths for one
// requested identity.
func (f *Framework) discoverIn(ctx context.Context, id api.PluginID, paths []string) {
	dirs, res := normalizeSearchDirs(paths, f.log)
	if res.Failed() {
		return
	}
	for _, dir := range dirs {
		f.enumerateDirectory(ctx, dir, &id)
		if f.findModule(id) != nil {
			f.met.PluginsDiscovered.Inc()
			return
		}
	}
}

// UnloadInterface releases an interface previously returned by
// LoadInterface. When the last counted reference of the plugin goes away the
// plugin itself is unloaded.
func (f *Framework) UnloadInterface(id api.PluginID, iface api.Interface) api.Result {
	return f.crash.Guard("unloadInterface", func() api.Result {
		if iface == nil {
			f.log.Error("unloadInterface called with a nil interface")
			return api.ResultMissingInterface
		}
		return f.releaseInterface(id, iface.Header().Type)
	})
}

func (f *Framework) releaseInterface(id api.PluginID, t api.InterfaceType) api.Result {
	f.mu.Lock()
	state := f.state
	f.mu.Unlock()
	if state != StateReady {
		f.log.WithField("state", state).Error("unloadInterface called in wrong state")
		return api.ResultInvalidState
	}

	outcome, res := f.reg.Release(id, t)
	if res.Failed() {
		return res
	}
	f.met.Releases.Inc()

	if !outcome.Unload {
		return api.ResultOk
	}

	rec := f.findModule(id)
	if rec == nil || rec.handle == nil {
		return api.ResultOk
	}
	ctx, cancel := context.WithTimeout(context.Background(), unlinkTimeout)
	defer cancel()
	return f.unlinkModule(ctx, rec)
}

// unlinkModule deregisters and stops a linked plugin, dropping everything it
// registered. A process that refuses to die is reported as InvalidState: the
// plugin is gone from the framework's view but still occupying the machine.
func (f *Framework) unlinkModule(ctx context.Context, rec *moduleRecord) api.Result {
	if res, err := rec.handle.Deregister(ctx); err != nil {
		f.log.WithError(err).WithField("plugin", rec.id).Warn("deregister call failed")
	} else if res.Failed() {
		f.log.WithFields(logrus.Fields{"plugin": rec.id, "result": res}).Warn("plugin failed to deregister")
	}

	closeErr := rec.handle.Close()

	f.revokeToken(rec.token)
	f.reg.Drop(rec.id)
	f.mu.Lock()
	rec.handle = nil
	rec.token = ""
	f.mu.Unlock()
	f.met.Unloads.Inc()

	if closeErr != nil {
		f.log.WithError(closeErr).WithField("plugin", rec.id).Error("plugin process did not unload")
		return api.ResultInvalidState
	}
	f.log.WithField("plugin", rec.id).Info("plugin unloaded")
	return api.ResultOk
}

// ensureRegistered links the plugin if it is not linked yet. Concurrent
// callers collapse into one registration; a plugin requesting an interface
// from itself during its own registration is rejected instead of deadlocking.
func (f *Framework) ensureRegistered(ctx context.Context, id api.PluginID) api.Result {
	f.mu.Lock()
	rec := f.modules[id]
	if rec == nil {
		f.mu.Unlock()
		return api.ResultMissingInterface
	}
	if rec.handle != nil {
		f.mu.Unlock()
		return api.ResultOk
	}
	if f.registering[id] {
		f.mu.Unlock()
		f.log.WithField("plugin", id).Error("plugin requested an interface from itself during registration")
		return api.ResultInvalidState
	}
	f.mu.Unlock()

	v, _, _ := f.group.Do(id.String(), func() (any, error) {
		f.mu.Lock()
		if rec.handle != nil {
			f.mu.Unlock()
			return api.ResultOk, nil
		}
		f.registering[id] = true
		f.mu.Unlock()
		defer func() {
			f.mu.Lock()
			delete(f.registering, id)
			f.mu.Unlock()
		}()
		return f.registerPlugin(ctx, rec), nil
	})
	return v.(api.Result)
}

// registerPlugin performs the full link sequence: dependency validation,
// process start, entry point checks, description re-validation and finally
// the plugin's own Register. Any failure rolls back to unlinked.
func (f *Framework) registerPlugin(ctx context.Context, rec *moduleRecord) api.Result {
	if res := f.validateDependencies(rec); res.Failed() {
		f.met.LoadFailures.Inc()
		return res
	}

	handle, err := f.ldr.Load(ctx, rec.path)
	if err != nil {
		f.log.WithError(err).WithField("plugin", rec.id).Error("cannot load plugin")
		f.met.LoadFailures.Inc()
		return api.ResultInvalidState
	}

	fail := func(res api.Result) api.Result {
		if err := handle.Close(); err != nil {
			f.log.WithError(err).WithField("plugin", rec.id).Warn("rollback unload did not finish cleanly")
		}
		f.met.LoadFailures.Inc()
		return res
	}

	for _, entry := range []string{wire.EntryGetInfo, wire.EntryRegister, wire.EntryDeregister} {
		found, err := handle.HasFunction(ctx, entry)
		if err != nil || !found {
			f.log.WithFields(logrus.Fields{"plugin": rec.id, "entry": entry}).Error("plugin is missing a required entry point")
			return fail(api.ResultInvalidState)
		}
	}

	info, res, err := handle.GetInfo(ctx)
	if err != nil || res.Failed() {
		f.log.WithError(err).WithField("plugin", rec.id).Error("plugin did not describe itself at load time")
		if res == api.ResultOk {
			res = api.ResultInvalidState
		}
		return fail(res)
	}
	if info.ID != rec.id {
		f.log.WithFields(logrus.Fields{"plugin": rec.id, "reported": info.ID}).Error("plugin identity changed since discovery")
		return fail(api.ResultInvalidState)
	}

	// The file may have been swapped since discovery; check the spec again.
	if res := f.recheckMinSpec(info); res.Failed() {
		f.log.WithFields(logrus.Fields{"plugin": rec.id, "result": res}).Error("plugin no longer meets its minimum spec")
		return fail(res)
	}

	before := f.reg.Count(rec.id)
	token := f.issueToken(rec.id)

	regRes, err := handle.Register(ctx, f.hostAddr(), token, f.depsPath)
	if err != nil {
		f.log.WithError(err).WithField("plugin", rec.id).Error("register call failed")
		f.revokeToken(token)
		return fail(api.ResultInvalidState)
	}
	if regRes.Failed() {
		f.log.WithFields(logrus.Fields{"plugin": rec.id, "result": regRes}).Error("plugin refused to register")
		f.revokeToken(token)
		return fail(regRes)
	}

	// A registration that added nothing is a broken plugin; undo it.
	if f.reg.Count(rec.id) <= before {
		f.log.WithField("plugin", rec.id).Error("plugin registered no interfaces")
		if res, err := handle.Deregister(ctx); err != nil || res.Failed() {
			f.log.WithError(err).WithField("plugin", rec.id).Warn("rollback deregister failed")
		}
		f.revokeToken(token)
		return fail(api.ResultInvalidState)
	}

	f.mu.Lock()
	rec.handle = handle
	rec.token = token
	f.mu.Unlock()
	f.met.Loads.Inc()
	f.log.WithFields(logrus.Fields{"plugin": rec.id, "path": rec.path}).Info("plugin registered")
	return api.ResultOk
}

func (f *Framework) recheckMinSpec(info *api.PluginInfo) api.Result {
	return minspec.Check(info, f.caps, APIVersion)
}

// validateDependencies checks declared shared libraries against the
// dependencies directory and, when enabled, walks the binary's own import
// table.
func (f *Framework) validateDependencies(rec *moduleRecord) api.Result {
	for _, lib := range rec.info.SharedLibraries {
		if f.depsPath == "" {
			f.log.WithFields(logrus.Fields{"plugin": rec.id, "library": lib}).Error("plugin declares libraries but no dependencies path is configured")
			return api.ResultMissingDynamicLibraryDependency
		}
		if _, err := os.Stat(filepath.Join(f.depsPath, lib)); err != nil {
			f.log.WithFields(logrus.Fields{"plugin": rec.id, "library": lib}).Error("declared library missing from dependencies directory")
			return api.ResultMissingDynamicLibraryDependency
		}
	}

	if !f.validateLibs {
		return api.ResultOk
	}
	searchDirs := []string{}
	if f.depsPath != "" {
		searchDirs = append(searchDirs, f.depsPath)
	}
	missing, err := f.ldr.MissingDependencies(rec.path, searchDirs)
	if err != nil {
		f.log.WithError(err).WithField("plugin", rec.id).Warn("dependency walk failed")
		return api.ResultOk
	}
	if len(missing) > 0 {
		f.log.WithFields(logrus.Fields{"plugin": rec.id, "missing": missing}).Error("plugin has unresolved library dependencies")
		return api.ResultMissingDynamicLibraryDependency
	}
	return api.ResultOk
}

func (f *Framework) issueToken(id api.PluginID) string {
	token := uuid.NewString()
	f.tokensMu.Lock()
	f.tokens[token] = id
	f.tokensMu.Unlock()
	return token
}

func (f *Framework) revokeToken(token string) {
	if token == "" {
		return
	}
	f.tokensMu.Lock()
	delete(f.tokens, token)
	f.tokensMu.Unlock()
}

func (f *Framework) pluginForToken(token string) (api.PluginID, bool) {
	f.tokensMu.Lock()
	defer f.tokensMu.Unlock()
	id, ok := f.tokens[token]
	return id, ok
}
