// Package plugin is the SDK plugin authors build against. A plugin is an
// executable that describes itself, registers interfaces when asked, and
// tears them down again; this package supplies the process scaffolding so an
// author only implements the Plugin interface and calls Serve from main.
package plugin

import (
	"context"

	"github.com/example/grpc-plugin-framework/pkg/api"
)

// Host is the plugin's view of the framework, live from Register until
// Deregister returns.
type Host interface {
	// AddInterface publishes one of the plugin's interfaces. Only interfaces
	// listed in the plugin's description should be added.
	AddInterface(iface api.Interface) error

	// GetInterface acquires an interface exported by another plugin, loading
	// its plugin on demand. Every successful call must be balanced with
	// ReleaseInterface.
	GetInterface(ctx context.Context, id api.PluginID, t api.InterfaceType, minVersion uint32) (api.Interface, api.Result)

	// ReleaseInterface gives back an acquired interface.
	ReleaseInterface(ctx context.Context, id api.PluginID, t api.InterfaceType) api.Result

	// Log writes into the framework's log sink, tagged with this plugin's
	// identity.
	Log(level, message string)

	// PathToDependencies is the shared runtime payload directory, empty when
	// the host configured none.
	PathToDependencies() string
}

// Plugin is implemented by every plugin executable.
type Plugin interface {
	// Info returns the static description. It is called before registration,
	// possibly in a short-lived probe process, and must not touch hardware
	// or allocate anything that needs cleanup.
	Info() *api.PluginInfo

	// Register brings the plugin alive: publish interfaces via
	// host.AddInterface and acquire whatever the plugin itself needs. A
	// failed result rolls the registration back.
	Register(host Host) api.Result

	// Deregister releases everything Register acquired. The process exits
	// shortly after it returns.
	Deregister() api.Result
}
