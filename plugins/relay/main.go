// The relay plugin demonstrates cross-plugin calls: it acquires the echo
// plugin's text interface through the framework and forwards requests to it.
package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/grpc-plugin-framework/pkg/api"
	"github.com/example/grpc-plugin-framework/pkg/plugin"
	"github.com/example/grpc-plugin-framework/plugins/catalog"
)

const pluginVersion = "1.0.0"

type relayPlugin struct {
	host plugin.Host
	text api.Interface
}

func (p *relayPlugin) Info() *api.PluginInfo {
	return &api.PluginInfo{
		ID:      catalog.RelayID,
		Name:    "relay",
		Version: pluginVersion,
		API:     "0.0.1",
		Interfaces: []api.InterfaceInfo{
			{Type: catalog.TypeRelay, Version: 1, Functions: []string{"shout"}},
		},
		RequiredVendor: api.VendorNone,
	}
}

func (p *relayPlugin) Register(host plugin.Host) api.Result {
	// Acquiring here loads the echo plugin on demand; if it is missing the
	// relay refuses to come up rather than failing on first use.
	text, res := host.GetInterface(context.Background(), catalog.EchoID, catalog.TypeText, 1)
	if res.Failed() {
		host.Log("error", fmt.Sprintf("text interface unavailable: %s", res))
		return res
	}
	p.host = host
	p.text = text

	iface := api.NewFuncInterface(
		api.Header{Type: catalog.TypeRelay, Version: 1},
		map[string]api.Func{"shout": p.shout},
	)
	if err := host.AddInterface(iface); err != nil {
		host.ReleaseInterface(context.Background(), catalog.EchoID, catalog.TypeText)
		return api.ResultInvalidState
	}
	return api.ResultOk
}

func (p *relayPlugin) Deregister() api.Result {
	if p.text != nil {
		p.host.ReleaseInterface(context.Background(), catalog.EchoID, catalog.TypeText)
		p.text = nil
	}
	return api.ResultOk
}

func (p *relayPlugin) shout(ctx context.Context, payload []byte) ([]byte, error) {
	var req catalog.RelayRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("bad relay request: %w", err)
	}
	fn := req.Function
	if fn == "" {
		fn = "upper"
	}

	out, err := p.text.Call(ctx, fn, mustMarshal(catalog.TextRequest{Text: req.Text}))
	if err != nil {
		return nil, fmt.Errorf("upstream %s failed: %w", fn, err)
	}
	var upstream catalog.TextResponse
	if err := json.Unmarshal(out, &upstream); err != nil {
		return nil, err
	}
	return json.Marshal(catalog.RelayResponse{
		Text:     upstream.Text + "!",
		Upstream: catalog.EchoID.String(),
	})
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func main() {
	plugin.Serve(&relayPlugin{})
}
