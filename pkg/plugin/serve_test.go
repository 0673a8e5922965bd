package plugin

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/grpc-plugin-framework/pkg/api"
	"github.com/example/grpc-plugin-framework/pkg/wire"
)

var testType = uuid.MustParse("deadbeef-0000-4000-8000-000000000001")

type stubPlugin struct {
	info *api.PluginInfo
}

func (p *stubPlugin) Info() *api.PluginInfo         { return p.info }
func (p *stubPlugin) Register(host Host) api.Result { return api.ResultOk }
func (p *stubPlugin) Deregister() api.Result        { return api.ResultOk }

func newTestService() *service {
	return newService(&stubPlugin{info: &api.PluginInfo{
		ID:      api.MustPluginID("deadbeef-9dad-41d1-80b4-00c04fd430c8"),
		Name:    "stub",
		Version: "1.0.0",
		API:     "0.0.1",
	}})
}

func TestGetFunctionAnswersEntryPoints(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, name := range []string{wire.EntryGetInfo, wire.EntryRegister, wire.EntryDeregister} {
		resp, err := svc.GetFunction(ctx, &wire.GetFunctionRequest{Name: name})
		require.NoError(t, err)
		assert.True(t, resp.Found, name)
	}

	resp, err := svc.GetFunction(ctx, &wire.GetFunctionRequest{Name: "bogus"})
	require.NoError(t, err)
	assert.False(t, resp.Found)
}

func TestGetInfo(t *testing.T) {
	svc := newTestService()
	resp, err := svc.GetInfo(context.Background(), &wire.GetInfoRequest{})
	require.NoError(t, err)
	assert.Equal(t, api.ResultOk, resp.Result)
	assert.Equal(t, "stub", resp.Info.Name)
}

func TestInvokeDispatchesToExported(t *testing.T) {
	svc := newTestService()
	svc.addExported(api.NewFuncInterface(
		api.Header{Type: testType, Version: 2},
		map[string]api.Func{
			"double": func(ctx context.Context, payload []byte) ([]byte, error) {
				return append(payload, payload...), nil
			},
		},
	))
	ctx := context.Background()

	resp, err := svc.Invoke(ctx, &wire.InvokeRequest{Type: testType, Version: 1, Function: "double", Payload: []byte("ab")})
	require.NoError(t, err)
	assert.Equal(t, api.ResultOk, resp.Result)
	assert.Equal(t, "abab", string(resp.Payload))

	// Unknown function names surface as a failed result, not an RPC error.
	resp, err = svc.Invoke(ctx, &wire.InvokeRequest{Type: testType, Version: 1, Function: "triple"})
	require.NoError(t, err)
	assert.Equal(t, api.ResultInvalidParameter, resp.Result)
	assert.NotEmpty(t, resp.Error)
}

func TestInvokeUnknownOrNewerInterface(t *testing.T) {
	svc := newTestService()
	svc.addExported(api.NewFuncInterface(api.Header{Type: testType, Version: 1}, nil))
	ctx := context.Background()

	resp, err := svc.Invoke(ctx, &wire.InvokeRequest{Type: uuid.New(), Version: 1})
	require.NoError(t, err)
	assert.Equal(t, api.ResultMissingInterface, resp.Result)

	// The exported version is older than requested.
	resp, err = svc.Invoke(ctx, &wire.InvokeRequest{Type: testType, Version: 2})
	require.NoError(t, err)
	assert.Equal(t, api.ResultMissingInterface, resp.Result)
}

func TestInvokeRecoversPanics(t *testing.T) {
	svc := newTestService()
	svc.addExported(api.NewFuncInterface(
		api.Header{Type: testType, Version: 1},
		map[string]api.Func{
			"boom": func(ctx context.Context, payload []byte) ([]byte, error) { panic("broken") },
		},
	))

	resp, err := svc.Invoke(context.Background(), &wire.InvokeRequest{Type: testType, Version: 1, Function: "boom"})
	require.NoError(t, err)
	assert.Equal(t, api.ResultException, resp.Result)
}

func TestDeregisterClearsExportedAndShutsDown(t *testing.T) {
	svc := newTestService()
	svc.addExported(api.NewFuncInterface(api.Header{Type: testType, Version: 1}, nil))

	var stopped bool
	svc.shutdown = func() { stopped = true }

	resp, err := svc.Deregister(context.Background(), &wire.DeregisterRequest{})
	require.NoError(t, err)
	assert.Equal(t, api.ResultOk, resp.Result)
	assert.True(t, stopped)
	assert.Empty(t, svc.exported)
}

func TestRunBadFlags(t *testing.T) {
	code := Run(&stubPlugin{info: &api.PluginInfo{}}, []string{"-no-such-flag"})
	assert.Equal(t, 2, code)
}
