package wire

import (
	"encoding/json"

	"github.com/example/grpc-plugin-framework/pkg/api"
)

// Plugin service messages. The plugin answers these; the framework asks.

// GetFunctionRequest asks whether the plugin exports a named entry point.
type GetFunctionRequest struct {
	Name string `json:"name"`
}

type GetFunctionResponse struct {
	Found bool `json:"found"`
}

type GetInfoRequest struct{}

type GetInfoResponse struct {
	Result api.Result      `json:"result"`
	Info   *api.PluginInfo `json:"info,omitempty"`
}

// RegisterRequest hands the plugin everything it needs to come alive: where
// to call the host back, the session token authenticating those callbacks,
// and the shared dependencies directory.
type RegisterRequest struct {
	HostAddress        string `json:"hostAddress"`
	Token              string `json:"token"`
	PathToDependencies string `json:"pathToDependencies,omitempty"`
}

type RegisterResponse struct {
	Result api.Result `json:"result"`
}

type DeregisterRequest struct{}

type DeregisterResponse struct {
	Result api.Result `json:"result"`
}

// InvokeRequest calls one function on one of the plugin's registered
// interfaces.
type InvokeRequest struct {
	Type     api.InterfaceType `json:"type"`
	Version  uint32            `json:"version"`
	Function string            `json:"function"`
	Payload  json.RawMessage   `json:"payload,omitempty"`
}

type InvokeResponse struct {
	Result  api.Result      `json:"result"`
	Error   string          `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Host service messages. The framework answers these; plugins ask.

// AddInterfaceRequest publishes one interface of the registering plugin.
type AddInterfaceRequest struct {
	Token      string            `json:"token"`
	Type       api.InterfaceType `json:"type"`
	Version    uint32            `json:"version"`
	NotCounted bool              `json:"notCounted,omitempty"`
}

type AddInterfaceResponse struct {
	Added bool `json:"added"`
}

// GetInterfaceRequest acquires an interface from another plugin (or a
// framework singleton) on behalf of the calling plugin.
type GetInterfaceRequest struct {
	Token      string            `json:"token"`
	Plugin     api.PluginID      `json:"plugin"`
	Type       api.InterfaceType `json:"type"`
	MinVersion uint32            `json:"minVersion"`
	ExtraPath  string            `json:"extraPath,omitempty"`
}

type GetInterfaceResponse struct {
	Result  api.Result `json:"result"`
	Version uint32     `json:"version,omitempty"`
}

type ReleaseInterfaceRequest struct {
	Token  string            `json:"token"`
	Plugin api.PluginID      `json:"plugin"`
	Type   api.InterfaceType `json:"type"`
}

type ReleaseInterfaceResponse struct {
	Result api.Result `json:"result"`
}

// HostInvokeRequest routes a call to an interface previously acquired via
// GetInterfaceRequest. All cross-plugin traffic goes through the host.
type HostInvokeRequest struct {
	Token    string            `json:"token"`
	Plugin   api.PluginID      `json:"plugin"`
	Type     api.InterfaceType `json:"type"`
	Version  uint32            `json:"version"`
	Function string            `json:"function"`
	Payload  json.RawMessage   `json:"payload,omitempty"`
}

type HostInvokeResponse struct {
	Result  api.Result      `json:"result"`
	Error   string          `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// LogRequest forwards a plugin log record into the framework sink.
type LogRequest struct {
	Token   string            `json:"token"`
	Level   string            `json:"level"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type LogResponse struct{}
