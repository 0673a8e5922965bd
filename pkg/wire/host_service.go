package wire

import (
	"context"

	"google.golang.org/grpc"
)

const (
	HostServiceName = "gpf.v1.HostService"

	hostAddInterfaceMethod     = "/" + HostServiceName + "/AddInterface"
	hostGetInterfaceMethod     = "/" + HostServiceName + "/GetInterface"
	hostReleaseInterfaceMethod = "/" + HostServiceName + "/ReleaseInterface"
	hostInvokeMethod           = "/" + HostServiceName + "/Invoke"
	hostLogMethod              = "/" + HostServiceName + "/Log"
)

// HostServiceClient is the plugin-side view of the framework. Every request
// carries the session token issued during registration.
type HostServiceClient interface {
	AddInterface(ctx context.Context, in *AddInterfaceRequest, opts ...grpc.CallOption) (*AddInterfaceResponse, error)
	GetInterface(ctx context.Context, in *GetInterfaceRequest, opts ...grpc.CallOption) (*GetInterfaceResponse, error)
	ReleaseInterface(ctx context.Context, in *ReleaseInterfaceRequest, opts ...grpc.CallOption) (*ReleaseInterfaceResponse, error)
	Invoke(ctx context.Context, in *HostInvokeRequest, opts ...grpc.CallOption) (*HostInvokeResponse, error)
	Log(ctx context.Context, in *LogRequest, opts ...grpc.CallOption) (*LogResponse, error)
}

type hostServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewHostServiceClient(cc grpc.ClientConnInterface) HostServiceClient {
	return &hostServiceClient{cc: cc}
}

func (c *hostServiceClient) AddInterface(ctx context.Context, in *AddInterfaceRequest, opts ...grpc.CallOption) (*AddInterfaceResponse, error) {
	out := new(AddInterfaceResponse)
	if err := c.cc.Invoke(ctx, hostAddInterfaceMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *hostServiceClient) GetInterface(ctx context.Context, in *GetInterfaceRequest, opts ...grpc.CallOption) (*GetInterfaceResponse, error) {
	out := new(GetInterfaceResponse)
	if err := c.cc.Invoke(ctx, hostGetInterfaceMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *hostServiceClient) ReleaseInterface(ctx context.Context, in *ReleaseInterfaceRequest, opts ...grpc.CallOption) (*ReleaseInterfaceResponse, error) {
	out := new(ReleaseInterfaceResponse)
	if err := c.cc.Invoke(ctx, hostReleaseInterfaceMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *hostServiceClient) Invoke(ctx context.Context, in *HostInvokeRequest, opts ...grpc.CallOption) (*HostInvokeResponse, error) {
	out := new(HostInvokeResponse)
	if err := c.cc.Invoke(ctx, hostInvokeMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *hostServiceClient) Log(ctx context.Context, in *LogRequest, opts ...grpc.CallOption) (*LogResponse, error) {
	out := new(LogResponse)
	if err := c.cc.Invoke(ctx, hostLogMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// HostServiceServer is implemented by the framework.
type HostServiceServer interface {
	AddInterface(ctx context.Context, in *AddInterfaceRequest) (*AddInterfaceResponse, error)
	GetInterface(ctx context.Context, in *GetInterfaceRequest) (*GetInterfaceResponse, error)
	ReleaseInterface(ctx context.Context, in *ReleaseInterfaceRequest) (*ReleaseInterfaceResponse, error)
	Invoke(ctx context.Context, in *HostInvokeRequest) (*HostInvokeResponse, error)
	Log(ctx context.Context, in *LogRequest) (*LogResponse, error)
}

func RegisterHostServiceServer(s grpc.ServiceRegistrar, srv HostServiceServer) {
	s.RegisterService(&HostServiceDesc, srv)
}

func hostUnaryHandler[Req any](
	method string,
	call func(HostServiceServer, context.Context, *Req) (any, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(HostServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(HostServiceServer), ctx, req.(*Req))
		})
	}
}

var HostServiceDesc = grpc.ServiceDesc{
	ServiceName: HostServiceName,
	HandlerType: (*HostServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "AddInterface",
			Handler: hostUnaryHandler(hostAddInterfaceMethod,
				func(s HostServiceServer, ctx context.Context, in *AddInterfaceRequest) (any, error) {
					return s.AddInterface(ctx, in)
				}),
		},
		{
			MethodName: "GetInterface",
			Handler: hostUnaryHandler(hostGetInterfaceMethod,
				func(s HostServiceServer, ctx context.Context, in *GetInterfaceRequest) (any, error) {
					return s.GetInterface(ctx, in)
				}),
		},
		{
			MethodName: "ReleaseInterface",
			Handler: hostUnaryHandler(hostReleaseInterfaceMethod,
				func(s HostServiceServer, ctx context.Context, in *ReleaseInterfaceRequest) (any, error) {
					return s.ReleaseInterface(ctx, in)
				}),
		},
		{
			MethodName: "Invoke",
			Handler: hostUnaryHandler(hostInvokeMethod,
				func(s HostServiceServer, ctx context.Context, in *HostInvokeRequest) (any, error) {
					return s.Invoke(ctx, in)
				}),
		},
		{
			MethodName: "Log",
			Handler: hostUnaryHandler(hostLogMethod,
				func(s HostServiceServer, ctx context.Context, in *LogRequest) (any, error) {
					return s.Log(ctx, in)
				}),
		},
	},
	Streams: []grpc.StreamDesc{},
}
