package framework

import (
	"context"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/example/grpc-plugin-framework/internal/minspec"
	"github.com/example/grpc-plugin-framework/pkg/api"
)

// enumerateDirectory probes every plugin candidate in dir and records the
// outcome in the report. Probing loads each plugin only transiently; nothing
// enumerated here ends up linked. When scope is non-nil, only a plugin with
// that identity is recorded, used for late discovery of a requested plugin
// in an extra search path.
func (f *Framework) enumerateDirectory(ctx context.Context, dir string, scope *api.PluginID) {
	paths, err := f.ldr.Scan(dir)
	if err != nil {
		f.log.WithError(err).WithField("directory", dir).Error("cannot scan plugin directory")
		return
	}

	for _, path := range paths {
		// The spec goes into the report before probing so a plugin that
		// fails description is still visible to the host.
		spec := &api.PluginSpec{
			Name:   filepath.Base(path),
			Path:   path,
			Status: api.ResultOk,
		}

		info, err := f.ldr.Probe(ctx, path)
		if err != nil {
			f.log.WithError(err).WithField("plugin", spec.Name).Error("plugin did not describe itself")
			spec.Status = api.ResultInvalidState
			f.appendSpec(spec)
			continue
		}

		spec.ID = info.ID
		spec.Version = info.Version
		spec.API = info.API
		spec.Interfaces = info.Interfaces
		spec.RequiredVendor = info.RequiredVendor
		spec.MinGPUArch = info.MinGPUArch
		spec.MinDriver = info.MinDriver
		spec.MinOS = info.MinOS

		if scope != nil && info.ID != *scope {
			continue
		}

		switch {
		case !info.ID.Valid():
			f.log.WithFields(logrus.Fields{"plugin": spec.Name, "id": info.ID}).Error("plugin identity failed its checksum")
			spec.Status = api.ResultInvalidParameter

		case f.findModule(info.ID) != nil:
			f.log.WithFields(logrus.Fields{
				"plugin":   spec.Name,
				"id":       info.ID,
				"existing": f.findModule(info.ID).path,
			}).Error("plugin identity already provided by another file")
			spec.Status = api.ResultDuplicatedPluginId

		case olderMajor(info.API, APIVersion):
			spec.Status = api.ResultPluginOutOfDate

		default:
			spec.Status = minspec.Check(info, f.caps, APIVersion)
		}

		f.appendSpec(spec)
		if spec.Status.Failed() {
			f.log.WithFields(logrus.Fields{
				"plugin": spec.Name,
				"status": spec.Status,
			}).Warn("plugin rejected during discovery")
			continue
		}

		f.mu.Lock()
		f.modules[info.ID] = &moduleRecord{id: info.ID, path: path, info: info, spec: spec}
		f.mu.Unlock()
		f.log.WithFields(logrus.Fields{
			"plugin":  spec.Name,
			"id":      info.ID,
			"version": info.Version,
		}).Info("plugin discovered")
	}
}

func (f *Framework) appendSpec(spec *api.PluginSpec) {
	f.mu.Lock()
	f.report.Plugins = append(f.report.Plugins, spec)
	f.mu.Unlock()
}

func (f *Framework) findModule(id api.PluginID) *moduleRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.modules[id]
}

// olderMajor reports whether v trails ref by at least one major version.
func olderMajor(v, ref api.Version) bool {
	vm, _, _ := v.Parts()
	rm, _, _ := ref.Parts()
	return vm < rm
}
