// The echo plugin publishes the text-transformation interface. It has no
// hardware or library requirements and is the smallest useful plugin.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/example/grpc-plugin-framework/pkg/api"
	"github.com/example/grpc-plugin-framework/pkg/plugin"
	"github.com/example/grpc-plugin-framework/plugins/catalog"
)

const pluginVersion = "1.0.0"

type echoPlugin struct {
	calls atomic.Uint64
}

func (p *echoPlugin) Info() *api.PluginInfo {
	return &api.PluginInfo{
		ID:      catalog.EchoID,
		Name:    "echo",
		Version: pluginVersion,
		API:     "0.0.1",
		Interfaces: []api.InterfaceInfo{
			{Type: catalog.TypeText, Version: 1, Functions: []string{"echo", "upper", "reverse"}},
		},
		RequiredVendor: api.VendorNone,
	}
}

func (p *echoPlugin) Register(host plugin.Host) api.Result {
	iface := api.NewFuncInterface(
		api.Header{Type: catalog.TypeText, Version: 1},
		map[string]api.Func{
			"echo":    p.transform(func(s string) string { return s }),
			"upper":   p.transform(strings.ToUpper),
			"reverse": p.transform(reverse),
		},
	)
	if err := host.AddInterface(iface); err != nil {
		host.Log("error", fmt.Sprintf("cannot publish text interface: %v", err))
		return api.ResultInvalidState
	}
	host.Log("info", "text interface published")
	return api.ResultOk
}

func (p *echoPlugin) Deregister() api.Result {
	return api.ResultOk
}

func (p *echoPlugin) transform(fn func(string) string) api.Func {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req catalog.TextRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("bad text request: %w", err)
		}
		p.calls.Add(1)
		return json.Marshal(catalog.TextResponse{Text: fn(req.Text)})
	}
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

func main() {
	plugin.Serve(&echoPlugin{})
}
