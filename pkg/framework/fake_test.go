package framework

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/example/grpc-plugin-framework/internal/loader"
	"github.com/example/grpc-plugin-framework/pkg/api"
	"github.com/example/grpc-plugin-framework/pkg/wire"
)

// fakePlugin scripts one plugin binary for the fake loader.
type fakePlugin struct {
	info           *api.PluginInfo
	registerResult api.Result
	missingEntry   string
	// publish lists which declared interfaces Register actually publishes;
	// nil means all of them.
	publish   []api.InterfaceType
	closeErr  error
	functions map[string]func(payload []byte) ([]byte, error)
}

// fakeLoader satisfies loader.Loader without spawning processes. Register
// callbacks are driven through the real hostService so token checks and
// declaration checks run exactly as they would over the wire.
type fakeLoader struct {
	mu      sync.Mutex
	fw      *Framework
	plugins map[string]*fakePlugin
	missing map[string][]string
	libs    map[string][]string

	loads  int
	probes int
	closes int
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		plugins: make(map[string]*fakePlugin),
		missing: make(map[string][]string),
		libs:    make(map[string][]string),
	}
}

func (l *fakeLoader) add(dir, name string, p *fakePlugin) string {
	path := filepath.Join(dir, loader.Prefix+name)
	l.plugins[path] = p
	return path
}

func (l *fakeLoader) Scan(dir string) ([]string, error) {
	var paths []string
	for path := range l.plugins {
		if filepath.Dir(path) == dir {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (l *fakeLoader) Probe(ctx context.Context, path string) (*api.PluginInfo, error) {
	l.mu.Lock()
	l.probes++
	l.mu.Unlock()
	p, ok := l.plugins[path]
	if !ok {
		return nil, fmt.Errorf("no plugin at %s", path)
	}
	return p.info, nil
}

func (l *fakeLoader) Load(ctx context.Context, path string) (loader.Handle, error) {
	p, ok := l.plugins[path]
	if !ok {
		return nil, fmt.Errorf("no plugin at %s", path)
	}
	l.mu.Lock()
	l.loads++
	l.mu.Unlock()
	return &fakeHandle{l: l, p: p, path: path}, nil
}

func (l *fakeLoader) MissingDependencies(path string, searchDirs []string) ([]string, error) {
	return l.missing[path], nil
}

func (l *fakeLoader) SharedLibraries(dir string) ([]string, error) {
	return l.libs[dir], nil
}

type fakeHandle struct {
	l    *fakeLoader
	p    *fakePlugin
	path string
}

func (h *fakeHandle) Path() string { return h.path }

func (h *fakeHandle) HasFunction(ctx context.Context, name string) (bool, error) {
	return name != h.p.missingEntry, nil
}

func (h *fakeHandle) GetInfo(ctx context.Context) (*api.PluginInfo, api.Result, error) {
	return h.p.info, api.ResultOk, nil
}

func (h *fakeHandle) Register(ctx context.Context, hostAddr, token, depsPath string) (api.Result, error) {
	if h.p.registerResult.Failed() {
		return h.p.registerResult, nil
	}

	svc := &hostService{fw: h.l.fw}
	types := h.p.publish
	if types == nil {
		for _, i := range h.p.info.Interfaces {
			types = append(types, i.Type)
		}
	}
	for _, t := range types {
		version := uint32(1)
		for _, i := range h.p.info.Interfaces {
			if i.Type == t {
				version = i.Version
			}
		}
		resp, err := svc.AddInterface(ctx, &wire.AddInterfaceRequest{
			Token:   token,
			Type:    t,
			Version: version,
		})
		if err != nil {
			return api.ResultInvalidState, err
		}
		if !resp.Added {
			return api.ResultInvalidState, nil
		}
	}
	return api.ResultOk, nil
}

func (h *fakeHandle) Deregister(ctx context.Context) (api.Result, error) {
	return api.ResultOk, nil
}

func (h *fakeHandle) Invoke(ctx context.Context, in *wire.InvokeRequest) (*wire.InvokeResponse, error) {
	fn, ok := h.p.functions[in.Function]
	if !ok {
		return &wire.InvokeResponse{Result: api.ResultInvalidParameter, Error: "no such function"}, nil
	}
	payload, err := fn(in.Payload)
	if err != nil {
		return &wire.InvokeResponse{Result: api.ResultInvalidParameter, Error: err.Error()}, nil
	}
	return &wire.InvokeResponse{Result: api.ResultOk, Payload: payload}, nil
}

func (h *fakeHandle) Close() error {
	h.l.mu.Lock()
	h.l.closes++
	h.l.mu.Unlock()
	return h.p.closeErr
}

// Shared test fixtures.

var (
	echoID   = api.MustPluginID("6ba7b810-9dad-41d1-80b4-00c04fd430c8")
	relayID  = api.MustPluginID("6ba7b811-9dad-41d1-80b4-00c04fd430c8")
	typeEcho = uuid.MustParse("11110000-0000-4000-8000-000000000001")
	typeStat = uuid.MustParse("11110000-0000-4000-8000-000000000002")
)

func basicInfo(id api.PluginID, name string, types ...api.InterfaceType) *api.PluginInfo {
	info := &api.PluginInfo{
		ID:             id,
		Name:           name,
		Version:        "1.0.0",
		API:            "0.0.1",
		RequiredVendor: api.VendorNone,
	}
	for _, t := range types {
		info.Interfaces = append(info.Interfaces, api.InterfaceInfo{Type: t, Version: 1})
	}
	return info
}

// initFramework runs Init with the fake loader against one real temp
// directory and fails the test on an unexpected result.
func initFramework(t *testing.T, fake *fakeLoader, dir string) *Framework {
	t.Helper()
	fw, res := Init(api.Preferences{
		PathsToPlugins:    []string{dir},
		PathToLogsAndData: t.TempDir(),
		Flags:             api.PreferenceDisableLogFile,
	}, api.PackSDKVersion(SDKVersion), Options{Loader: fake})
	if res.Failed() {
		t.Fatalf("Init failed: %s", res)
	}
	fake.fw = fw
	t.Cleanup(func() {
		if fw.Report() != nil {
			fw.Shutdown()
		}
	})
	return fw
}
