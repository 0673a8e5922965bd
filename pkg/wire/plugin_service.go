package wire

import (
	"context"

	"google.golang.org/grpc"
)

const (
	PluginServiceName = "gpf.v1.PluginService"

	pluginGetFunctionMethod = "/" + PluginServiceName + "/GetFunction"
	pluginGetInfoMethod     = "/" + PluginServiceName + "/GetInfo"
	pluginRegisterMethod    = "/" + PluginServiceName + "/Register"
	pluginDeregisterMethod  = "/" + PluginServiceName + "/Deregister"
	pluginInvokeMethod      = "/" + PluginServiceName + "/Invoke"
)

// PluginServiceClient is the framework-side view of a plugin process.
type PluginServiceClient interface {
	GetFunction(ctx context.Context, in *GetFunctionRequest, opts ...grpc.CallOption) (*GetFunctionResponse, error)
	GetInfo(ctx context.Context, in *GetInfoRequest, opts ...grpc.CallOption) (*GetInfoResponse, error)
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	Deregister(ctx context.Context, in *DeregisterRequest, opts ...grpc.CallOption) (*DeregisterResponse, error)
	Invoke(ctx context.Context, in *InvokeRequest, opts ...grpc.CallOption) (*InvokeResponse, error)
}

type pluginServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewPluginServiceClient(cc grpc.ClientConnInterface) PluginServiceClient {
	return &pluginServiceClient{cc: cc}
}

func (c *pluginServiceClient) GetFunction(ctx context.Context, in *GetFunctionRequest, opts ...grpc.CallOption) (*GetFunctionResponse, error) {
	out := new(GetFunctionResponse)
	if err := c.cc.Invoke(ctx, pluginGetFunctionMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *pluginServiceClient) GetInfo(ctx context.Context, in *GetInfoRequest, opts ...grpc.CallOption) (*GetInfoResponse, error) {
	out := new(GetInfoResponse)
	if err := c.cc.Invoke(ctx, pluginGetInfoMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *pluginServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	out := new(RegisterResponse)
	if err := c.cc.Invoke(ctx, pluginRegisterMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *pluginServiceClient) Deregister(ctx context.Context, in *DeregisterRequest, opts ...grpc.CallOption) (*DeregisterResponse, error) {
	out := new(DeregisterResponse)
	if err := c.cc.Invoke(ctx, pluginDeregisterMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *pluginServiceClient) Invoke(ctx context.Context, in *InvokeRequest, opts ...grpc.CallOption) (*InvokeResponse, error) {
	out := new(InvokeResponse)
	if err := c.cc.Invoke(ctx, pluginInvokeMethod, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// PluginServiceServer is implemented by every plugin process.
type PluginServiceServer interface {
	GetFunction(ctx context.Context, in *GetFunctionRequest) (*GetFunctionResponse, error)
	GetInfo(ctx context.Context, in *GetInfoRequest) (*GetInfoResponse, error)
	Register(ctx context.Context, in *RegisterRequest) (*RegisterResponse, error)
	Deregister(ctx context.Context, in *DeregisterRequest) (*DeregisterResponse, error)
	Invoke(ctx context.Context, in *InvokeRequest) (*InvokeResponse, error)
}

func RegisterPluginServiceServer(s grpc.ServiceRegistrar, srv PluginServiceServer) {
	s.RegisterService(&PluginServiceDesc, srv)
}

func pluginUnaryHandler[Req any](
	method string,
	call func(PluginServiceServer, context.Context, *Req) (any, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PluginServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(PluginServiceServer), ctx, req.(*Req))
		})
	}
}

var PluginServiceDesc = grpc.ServiceDesc{
	ServiceName: PluginServiceName,
	HandlerType: (*PluginServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetFunction",
			Handler: pluginUnaryHandler(pluginGetFunctionMethod,
				func(s PluginServiceServer, ctx context.Context, in *GetFunctionRequest) (any, error) {
					return s.GetFunction(ctx, in)
				}),
		},
		{
			MethodName: "GetInfo",
			Handler: pluginUnaryHandler(pluginGetInfoMethod,
				func(s PluginServiceServer, ctx context.Context, in *GetInfoRequest) (any, error) {
					return s.GetInfo(ctx, in)
				}),
		},
		{
			MethodName: "Register",
			Handler: pluginUnaryHandler(pluginRegisterMethod,
				func(s PluginServiceServer, ctx context.Context, in *RegisterRequest) (any, error) {
					return s.Register(ctx, in)
				}),
		},
		{
			MethodName: "Deregister",
			Handler: pluginUnaryHandler(pluginDeregisterMethod,
				func(s PluginServiceServer, ctx context.Context, in *DeregisterRequest) (any, error) {
					return s.Deregister(ctx, in)
				}),
		},
		{
			MethodName: "Invoke",
			Handler: pluginUnaryHandler(pluginInvokeMethod,
				func(s PluginServiceServer, ctx context.Context, in *InvokeRequest) (any, error) {
					return s.Invoke(ctx, in)
				}),
		},
	},
	Streams: []grpc.StreamDesc{},
}
