package plugin

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/example/grpc-plugin-framework/pkg/api"
	"github.com/example/grpc-plugin-framework/pkg/wire"
)

const hostCallTimeout = 10 * time.Second

// hostFacade implements Host over the framework's callback service. Every
// request carries the session token issued at registration; the framework
// uses it to attribute the call to this plugin.
type hostFacade struct {
	conn   *grpc.ClientConn
	client wire.HostServiceClient
	token  string
	deps   string
	svc    *service
}

func dialHost(addr, token, deps string, svc *service) (*hostFacade, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to host at %s: %w", addr, err)
	}
	return &hostFacade{
		conn:   conn,
		client: wire.NewHostServiceClient(conn),
		token:  token,
		deps:   deps,
		svc:    svc,
	}, nil
}

func (h *hostFacade) close() {
	_ = h.conn.Close()
}

func (h *hostFacade) AddInterface(iface api.Interface) error {
	// Record locally first so the interface is callable the moment the
	// framework learns about it.
	h.svc.addExported(iface)

	ctx, cancel := context.WithTimeout(context.Background(), hostCallTimeout)
	defer cancel()

	hdr := iface.Header()
	resp, err := h.client.AddInterface(ctx, &wire.AddInterfaceRequest{
		Token:   h.token,
		Type:    hdr.Type,
		Version: hdr.Version,
	})
	if err != nil {
		return fmt.Errorf("publishing interface %s: %w", hdr, err)
	}
	if !resp.Added {
		return fmt.Errorf("publishing interface %s: rejected by host", hdr)
	}
	return nil
}

func (h *hostFacade) GetInterface(ctx context.Context, id api.PluginID, t api.InterfaceType, minVersion uint32) (api.Interface, api.Result) {
	resp, err := h.client.GetInterface(ctx, &wire.GetInterfaceRequest{
		Token:      h.token,
		Plugin:     id,
		Type:       t,
		MinVersion: minVersion,
	})
	if err != nil {
		return nil, api.ResultInvalidState
	}
	if resp.Result.Failed() {
		return nil, resp.Result
	}
	return &remoteInterface{
		host:   h,
		plugin: id,
		header: api.Header{Type: t, Version: resp.Version},
	}, api.ResultOk
}

func (h *hostFacade) ReleaseInterface(ctx context.Context, id api.PluginID, t api.InterfaceType) api.Result {
	resp, err := h.client.ReleaseInterface(ctx, &wire.ReleaseInterfaceRequest{
		Token:  h.token,
		Plugin: id,
		Type:   t,
	})
	if err != nil {
		return api.ResultInvalidState
	}
	return resp.Result
}

func (h *hostFacade) Log(level, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), hostCallTimeout)
	defer cancel()
	_, _ = h.client.Log(ctx, &wire.LogRequest{Token: h.token, Level: level, Message: message})
}

func (h *hostFacade) PathToDependencies() string { return h.deps }

// remoteInterface is a handle to another plugin's interface. Calls route
// through the framework, which forwards them to the owning process.
type remoteInterface struct {
	host   *hostFacade
	plugin api.PluginID
	header api.Header
}

func (r *remoteInterface) Header() api.Header { return r.header }

func (r *remoteInterface) Call(ctx context.Context, function string, payload []byte) ([]byte, error) {
	resp, err := r.host.client.Invoke(ctx, &wire.HostInvokeRequest{
		Token:    r.host.token,
		Plugin:   r.plugin,
		Type:     r.header.Type,
		Version:  r.header.Version,
		Function: function,
		Payload:  payload,
	})
	if err != nil {
		return nil, fmt.Errorf("calling %s.%s: %w", r.header, function, err)
	}
	if resp.Result.Failed() {
		if resp.Error != "" {
			return nil, fmt.Errorf("calling %s.%s: %s: %s", r.header, function, resp.Result, resp.Error)
		}
		return nil, fmt.Errorf("calling %s.%s: %s", r.header, function, resp.Result)
	}
	return resp.Payload, nil
}
