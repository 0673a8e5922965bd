package framework

import (
	"fmt"

	"github.com/example/grpc-plugin-framework/pkg/api"
)

// CallError is returned when a plugin answered an interface call with a
// failed result. The result code survives the error wrapping so callers can
// branch on it.
type CallError struct {
	Plugin   api.PluginID
	Header   api.Header
	Function string
	Result   api.Result
	Message  string
}

func (e *CallError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s.%s: %s: %s", e.Header, e.Function, e.Result, e.Message)
	}
	return fmt.Sprintf("%s.%s: %s", e.Header, e.Function, e.Result)
}

func errUnloaded(id api.PluginID, h api.Header) error {
	return fmt.Errorf("interface %s of plugin %s is no longer loaded", h, id)
}
