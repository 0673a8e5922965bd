package plugin

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/example/grpc-plugin-framework/pkg/api"
	"github.com/example/grpc-plugin-framework/pkg/wire"
)

// Serve runs p as a plugin process and exits when the framework is done with
// it. It is the whole of a plugin's main function:
//
//	func main() { plugin.Serve(&myPlugin{}) }
func Serve(p Plugin) {
	os.Exit(Run(p, os.Args[1:]))
}

// Run is Serve without the process exit, for tests.
func Run(p Plugin, args []string) int {
	fs := flag.NewFlagSet("plugin", flag.ContinueOnError)
	describe := fs.Bool("describe", false, "print the plugin description as JSON and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *describe {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(p.Info()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	srv := grpc.NewServer()
	svc := newService(p)
	wire.RegisterPluginServiceServer(srv, svc)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthServer)

	svc.shutdown = func() {
		healthServer.Shutdown()
		// Give the in-flight Deregister response time to flush.
		go func() {
			time.Sleep(100 * time.Millisecond)
			srv.GracefulStop()
		}()
	}

	// The framework holds our stdin open for our whole life; EOF means it is
	// gone and there is nobody left to deregister us.
	go func() {
		_, _ = io.Copy(io.Discard, os.Stdin)
		srv.Stop()
	}()

	port := lis.Addr().(*net.TCPAddr).Port
	fmt.Println(wire.Handshake(port))

	if err := srv.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// service adapts a Plugin to the wire protocol.
type service struct {
	plugin   Plugin
	shutdown func()

	mu       sync.Mutex
	host     *hostFacade
	exported map[api.InterfaceType]api.Interface
}

func newService(p Plugin) *service {
	return &service{
		plugin:   p,
		exported: make(map[api.InterfaceType]api.Interface),
	}
}

func (s *service) GetFunction(ctx context.Context, in *wire.GetFunctionRequest) (*wire.GetFunctionResponse, error) {
	switch in.Name {
	case wire.EntryGetInfo, wire.EntryRegister, wire.EntryDeregister:
		return &wire.GetFunctionResponse{Found: true}, nil
	}
	return &wire.GetFunctionResponse{Found: false}, nil
}

func (s *service) GetInfo(ctx context.Context, in *wire.GetInfoRequest) (*wire.GetInfoResponse, error) {
	info := s.plugin.Info()
	if info == nil {
		return &wire.GetInfoResponse{Result: api.ResultInvalidState}, nil
	}
	return &wire.GetInfoResponse{Result: api.ResultOk, Info: info}, nil
}

func (s *service) Register(ctx context.Context, in *wire.RegisterRequest) (*wire.RegisterResponse, error) {
	s.mu.Lock()
	if s.host != nil {
		s.mu.Unlock()
		return &wire.RegisterResponse{Result: api.ResultInvalidState}, nil
	}
	host, err := dialHost(in.HostAddress, in.Token, in.PathToDependencies, s)
	if err != nil {
		s.mu.Unlock()
		return &wire.RegisterResponse{Result: api.ResultInvalidState}, nil
	}
	s.host = host
	s.mu.Unlock()

	res := s.guard("register", func() api.Result { return s.plugin.Register(host) })
	if res.Failed() {
		s.mu.Lock()
		s.host = nil
		s.exported = make(map[api.InterfaceType]api.Interface)
		s.mu.Unlock()
		host.close()
	}
	return &wire.RegisterResponse{Result: res}, nil
}

func (s *service) Deregister(ctx context.Context, in *wire.DeregisterRequest) (*wire.DeregisterResponse, error) {
	res := s.guard("deregister", s.plugin.Deregister)

	s.mu.Lock()
	host := s.host
	s.host = nil
	s.exported = make(map[api.InterfaceType]api.Interface)
	s.mu.Unlock()
	if host != nil {
		host.close()
	}

	if s.shutdown != nil {
		s.shutdown()
	}
	return &wire.DeregisterResponse{Result: res}, nil
}

func (s *service) Invoke(ctx context.Context, in *wire.InvokeRequest) (*wire.InvokeResponse, error) {
	s.mu.Lock()
	iface := s.exported[in.Type]
	s.mu.Unlock()

	if iface == nil || iface.Header().Version < in.Version {
		return &wire.InvokeResponse{Result: api.ResultMissingInterface}, nil
	}

	var (
		payload []byte
		callErr error
	)
	res := s.guard("invoke", func() api.Result {
		payload, callErr = iface.Call(ctx, in.Function, in.Payload)
		return api.ResultOk
	})
	if res.Failed() {
		return &wire.InvokeResponse{Result: res}, nil
	}
	if callErr != nil {
		return &wire.InvokeResponse{Result: api.ResultInvalidParameter, Error: callErr.Error()}, nil
	}
	return &wire.InvokeResponse{Result: api.ResultOk, Payload: payload}, nil
}

// addExported records an interface published through AddInterface so Invoke
// can dispatch to it.
func (s *service) addExported(iface api.Interface) {
	s.mu.Lock()
	s.exported[iface.Header().Type] = iface
	s.mu.Unlock()
}

// guard converts a panic in plugin code into ResultException instead of
// letting it kill the RPC handler.
func (s *service) guard(op string, fn func() api.Result) (res api.Result) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic in %s: %v\n%s", op, r, debug.Stack())
			res = api.ResultException
		}
	}()
	return fn()
}
