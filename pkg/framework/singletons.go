package framework

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/grpc-plugin-framework/internal/registry"
	"github.com/example/grpc-plugin-framework/pkg/api"
)

// CoreID is the reserved identity the framework publishes its own singleton
// interfaces under. Plugins and hosts acquire them like any other interface;
// they are never reference counted and never unload anything.
var CoreID = api.MustPluginID("8e3c0f5a-94a1-4c27-9177-1b6dbd4c2a01")

// Singleton interface types.
var (
	TypeLogging    = uuid.MustParse("2f8e1d4b-6a3c-4b7f-8d52-9c41e7a0b312")
	TypeAllocator  = uuid.MustParse("5b91c8e2-0d74-4f6a-b3c9-7e25a18f4d63")
	TypeSystemInfo = uuid.MustParse("a47d2e90-3c5b-4821-95f6-d08b31c67e94")
	TypeCrashInfo  = uuid.MustParse("c16f4a78-8e92-4d35-a2b0-64f9d5c3e8a5")
)

// registerSingletons publishes the built-in interfaces. The log sink goes in
// first and comes out last: everything in between wants to log.
func (f *Framework) registerSingletons() {
	logIface := api.NewFuncInterface(
		api.Header{Type: TypeLogging, Version: 1},
		map[string]api.Func{
			"log": func(ctx context.Context, payload []byte) ([]byte, error) {
				var msg struct {
					Level   string `json:"level"`
					Plugin  string `json:"plugin,omitempty"`
					Message string `json:"message"`
				}
				if err := json.Unmarshal(payload, &msg); err != nil {
					return nil, err
				}
				entry := f.log.WithField("plugin", msg.Plugin)
				if lvl, err := logrus.ParseLevel(msg.Level); err == nil {
					entry.Log(lvl, msg.Message)
				} else {
					entry.Info(msg.Message)
				}
				return nil, nil
			},
		},
	)

	allocIface := api.NewFuncInterface(
		api.Header{Type: TypeAllocator, Version: 1},
		map[string]api.Func{
			"stats": func(ctx context.Context, payload []byte) ([]byte, error) {
				pooled, direct := f.pool.Stats()
				return json.Marshal(map[string]uint64{"pooled": pooled, "direct": direct})
			},
		},
	)

	sysIface := api.NewFuncInterface(
		api.Header{Type: TypeSystemInfo, Version: 1},
		map[string]api.Func{
			"capabilities": func(ctx context.Context, payload []byte) ([]byte, error) {
				return json.Marshal(f.caps)
			},
		},
	)

	crashIface := api.NewFuncInterface(
		api.Header{Type: TypeCrashInfo, Version: 1},
		map[string]api.Func{
			"location": func(ctx context.Context, payload []byte) ([]byte, error) {
				return json.Marshal(map[string]string{"dir": f.crash.Dir()})
			},
		},
	)

	for _, iface := range []api.Interface{logIface, allocIface, sysIface, crashIface} {
		f.reg.Add(CoreID, iface, registry.FlagNotRefCounted)
	}
}

// Pool exposes the scratch-buffer allocator to in-process hosts.
func (f *Framework) Pool() interface {
	Get(n int) []byte
	Put(buf []byte)
} {
	return f.pool
}
