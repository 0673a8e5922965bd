package framework

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"github.com/example/grpc-plugin-framework/internal/registry"
	"github.com/example/grpc-plugin-framework/pkg/api"
	"github.com/example/grpc-plugin-framework/pkg/wire"
)

// startHostService brings up the callback endpoint plugins talk back to
// during and after registration.
func (f *Framework) startHostService() error {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	f.hostLis = lis
	f.hostSrv = grpc.NewServer()
	wire.RegisterHostServiceServer(f.hostSrv, &hostService{fw: f})

	srv := f.hostSrv
	go func() {
		if err := srv.Serve(lis); err != nil {
			f.log.WithError(err).Debug("callback service stopped")
		}
	}()
	f.log.WithField("address", lis.Addr().String()).Debug("callback service listening")
	return nil
}

func (f *Framework) hostAddr() string {
	if f.hostLis == nil {
		return ""
	}
	return f.hostLis.Addr().String()
}

// hostService answers plugin callbacks. Every request is authenticated by
// the session token issued to the plugin at registration time.
type hostService struct {
	fw *Framework
}

func (s *hostService) caller(token string) (api.PluginID, bool) {
	return s.fw.pluginForToken(token)
}

// AddInterface publishes an interface on behalf of the registering plugin.
// The interface stored in the table is a proxy that forwards calls into the
// plugin's process.
func (s *hostService) AddInterface(ctx context.Context, in *wire.AddInterfaceRequest) (*wire.AddInterfaceResponse, error) {
	id, ok := s.caller(in.Token)
	if !ok {
		s.fw.log.Warn("interface registration with an unknown session token")
		return &wire.AddInterfaceResponse{Added: false}, nil
	}

	rec := s.fw.findModule(id)
	if rec == nil {
		return &wire.AddInterfaceResponse{Added: false}, nil
	}

	// Plugins may only publish what they declared at discovery time.
	if !rec.info.Exports(in.Type, 0) {
		s.fw.log.WithFields(logrus.Fields{
			"plugin": id,
			"type":   in.Type,
		}).Error("plugin tried to publish an undeclared interface")
		return &wire.AddInterfaceResponse{Added: false}, nil
	}

	proxy := &pluginProxy{
		fw:     s.fw,
		plugin: id,
		header: api.Header{Type: in.Type, Version: in.Version},
	}
	flags := registry.FlagNone
	if in.NotCounted {
		flags = registry.FlagNotRefCounted
	}
	added := s.fw.reg.Add(id, proxy, flags)
	return &wire.AddInterfaceResponse{Added: added}, nil
}

// GetInterface lets one plugin acquire an interface from another. The whole
// LoadInterface path runs, including on-demand registration of the target.
func (s *hostService) GetInterface(ctx context.Context, in *wire.GetInterfaceRequest) (*wire.GetInterfaceResponse, error) {
	if _, ok := s.caller(in.Token); !ok {
		return &wire.GetInterfaceResponse{Result: api.ResultInvalidParameter}, nil
	}

	var extra []string
	if in.ExtraPath != "" {
		extra = []string{in.ExtraPath}
	}
	iface, res := s.fw.LoadInterface(ctx, in.Plugin, in.Type, in.MinVersion, extra...)
	if res.Failed() {
		return &wire.GetInterfaceResponse{Result: res}, nil
	}
	return &wire.GetInterfaceResponse{
		Result:  api.ResultOk,
		Version: iface.Header().Version,
	}, nil
}

func (s *hostService) ReleaseInterface(ctx context.Context, in *wire.ReleaseInterfaceRequest) (*wire.ReleaseInterfaceResponse, error) {
	if _, ok := s.caller(in.Token); !ok {
		return &wire.ReleaseInterfaceResponse{Result: api.ResultInvalidParameter}, nil
	}
	res := s.fw.crash.Guard("releaseInterface", func() api.Result {
		return s.fw.releaseInterface(in.Plugin, in.Type)
	})
	return &wire.ReleaseInterfaceResponse{Result: res}, nil
}

// Invoke routes a cross-plugin call to the process owning the target
// interface.
func (s *hostService) Invoke(ctx context.Context, in *wire.HostInvokeRequest) (*wire.HostInvokeResponse, error) {
	if _, ok := s.caller(in.Token); !ok {
		return &wire.HostInvokeResponse{Result: api.ResultInvalidParameter}, nil
	}

	if in.Plugin == CoreID {
		return s.invokeSingleton(ctx, in)
	}

	rec := s.fw.findModule(in.Plugin)
	if rec == nil || rec.handle == nil {
		return &wire.HostInvokeResponse{Result: api.ResultMissingInterface}, nil
	}

	resp, err := rec.handle.Invoke(ctx, &wire.InvokeRequest{
		Type:     in.Type,
		Version:  in.Version,
		Function: in.Function,
		Payload:  in.Payload,
	})
	if err != nil {
		s.fw.log.WithError(err).WithField("plugin", in.Plugin).Error("cross-plugin call failed")
		return &wire.HostInvokeResponse{Result: api.ResultInvalidState}, nil
	}
	return &wire.HostInvokeResponse{
		Result:  resp.Result,
		Error:   resp.Error,
		Payload: resp.Payload,
	}, nil
}

// invokeSingleton serves calls on the framework's own interfaces.
func (s *hostService) invokeSingleton(ctx context.Context, in *wire.HostInvokeRequest) (*wire.HostInvokeResponse, error) {
	iface := s.fw.reg.Get(CoreID, in.Type)
	if iface == nil {
		return &wire.HostInvokeResponse{Result: api.ResultMissingInterface}, nil
	}
	payload, err := iface.Call(ctx, in.Function, in.Payload)
	if err != nil {
		return &wire.HostInvokeResponse{Result: api.ResultInvalidParameter, Error: err.Error()}, nil
	}
	return &wire.HostInvokeResponse{Result: api.ResultOk, Payload: payload}, nil
}

// Log feeds a plugin's log record into the framework sink.
func (s *hostService) Log(ctx context.Context, in *wire.LogRequest) (*wire.LogResponse, error) {
	id, ok := s.caller(in.Token)
	if !ok {
		return &wire.LogResponse{}, nil
	}

	entry := s.fw.log.WithField("plugin", id.String())
	for k, v := range in.Fields {
		entry = entry.WithField(k, v)
	}
	if lvl, err := logrus.ParseLevel(in.Level); err == nil {
		entry.Log(lvl, in.Message)
	} else {
		entry.Info(in.Message)
	}
	return &wire.LogResponse{}, nil
}

// pluginProxy is the registry-resident handle for an interface served by a
// plugin process. Hosts and sibling plugins both end up calling through it.
type pluginProxy struct {
	fw     *Framework
	plugin api.PluginID
	header api.Header
}

func (p *pluginProxy) Header() api.Header { return p.header }

func (p *pluginProxy) Call(ctx context.Context, function string, payload []byte) ([]byte, error) {
	rec := p.fw.findModule(p.plugin)
	if rec == nil || rec.handle == nil {
		return nil, errUnloaded(p.plugin, p.header)
	}

	resp, err := rec.handle.Invoke(ctx, &wire.InvokeRequest{
		Type:     p.header.Type,
		Version:  p.header.Version,
		Function: function,
		Payload:  payload,
	})
	if err != nil {
		return nil, err
	}
	if resp.Result.Failed() {
		return nil, &CallError{Plugin: p.plugin, Header: p.header, Function: function, Result: resp.Result, Message: resp.Error}
	}
	return resp.Payload, nil
}
