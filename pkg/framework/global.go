package framework

import (
	"context"
	"sync"

	"github.com/example/grpc-plugin-framework/pkg/api"
)

// The package-level entry points manage a single shared instance, which is
// how most hosts embed the framework. Libraries that need several isolated
// instances use Init directly.

var (
	defaultMu sync.Mutex
	defaultFW *Framework
)

// InitDefault initializes the shared instance. A second call without an
// intervening ShutdownDefault fails with InvalidState.
func InitDefault(prefs api.Preferences, sdkToken uint64) (*api.PluginAndSystemInformation, api.Result) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultFW != nil {
		return nil, api.ResultInvalidState
	}
	fw, res := Init(prefs, sdkToken, Options{})
	if res.Failed() {
		return nil, res
	}
	defaultFW = fw
	return fw.Report(), api.ResultOk
}

// LoadInterfaceDefault acquires an interface from the shared instance.
func LoadInterfaceDefault(ctx context.Context, id api.PluginID, t api.InterfaceType, minVersion uint32, extraPaths ...string) (api.Interface, api.Result) {
	fw := current()
	if fw == nil {
		return nil, api.ResultInvalidState
	}
	return fw.LoadInterface(ctx, id, t, minVersion, extraPaths...)
}

// UnloadInterfaceDefault releases an interface acquired from the shared
// instance.
func UnloadInterfaceDefault(id api.PluginID, iface api.Interface) api.Result {
	fw := current()
	if fw == nil {
		return api.ResultInvalidState
	}
	return fw.UnloadInterface(id, iface)
}

// ShutdownDefault tears the shared instance down. The instance slot is freed
// even when shutdown reports leaked references.
func ShutdownDefault() api.Result {
	defaultMu.Lock()
	fw := defaultFW
	defaultFW = nil
	defaultMu.Unlock()

	if fw == nil {
		return api.ResultInvalidState
	}
	return fw.Shutdown()
}

func current() *Framework {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultFW
}
