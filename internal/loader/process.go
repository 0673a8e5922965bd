package loader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/example/grpc-plugin-framework/pkg/api"
	"github.com/example/grpc-plugin-framework/pkg/wire"
)

// Load spawns the plugin executable and waits for its handshake line, then
// connects and verifies the descriptor service answers.
func (l *ProcessLoader) Load(ctx context.Context, path string) (Handle, error) {
	cmd := exec.Command(path)
	cmd.Env = pluginEnv(l.cfg.DepsPath)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("starting %s: %w", path, err)
	}
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", path, err)
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	port, err := l.awaitHandshake(ctx, stdout, waitCh)
	if err != nil {
		kill(cmd)
		<-waitCh
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	// Keep draining stdout so the child never blocks on a full pipe.
	go func() { _, _ = io.Copy(io.Discard, stdout) }()

	conn, err := grpc.NewClient(
		fmt.Sprintf("127.0.0.1:%d", port),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		kill(cmd)
		<-waitCh
		return nil, fmt.Errorf("connecting to %s: %w", path, err)
	}

	h := &processHandle{
		path:   path,
		cmd:    cmd,
		conn:   conn,
		client: wire.NewPluginServiceClient(conn),
		waitCh: waitCh,
		stop:   l.cfg.StopTimeout,
	}

	// The handshake proved the process is up; this proves it speaks the
	// descriptor protocol.
	probeCtx, cancel := context.WithTimeout(ctx, l.cfg.StartTimeout)
	defer cancel()
	if _, err := h.HasFunction(probeCtx, wire.EntryGetInfo); err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("loading %s: descriptor service not answering: %w", path, err)
	}
	return h, nil
}

// awaitHandshake reads stdout lines until the handshake appears, the plugin
// dies, or the start timeout expires. Non-handshake lines are tolerated and
// logged.
func (l *ProcessLoader) awaitHandshake(ctx context.Context, stdout io.Reader, waitCh <-chan error) (int, error) {
	type outcome struct {
		port int
		err  error
	}
	lineCh := make(chan outcome, 1)
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := scanner.Text()
			if port, err := wire.ParseHandshake(line); err == nil {
				lineCh <- outcome{port: port}
				return
			}
			l.cfg.Log.WithField("line", line).Debug("plugin output before handshake")
		}
		lineCh <- outcome{err: fmt.Errorf("plugin exited before handshake")}
	}()

	timer := time.NewTimer(l.cfg.StartTimeout)
	defer timer.Stop()

	select {
	case o := <-lineCh:
		return o.port, o.err
	case err := <-waitCh:
		return 0, fmt.Errorf("plugin exited before handshake: %v", err)
	case <-timer.C:
		return 0, fmt.Errorf("no handshake within %s", l.cfg.StartTimeout)
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// pluginEnv prepends depsPath to the dynamic linker search path so plugins
// resolve their shared libraries from the framework payload first.
func pluginEnv(depsPath string) []string {
	env := os.Environ()
	if depsPath == "" {
		return env
	}
	const key = "LD_LIBRARY_PATH="
	for i, kv := range env {
		if strings.HasPrefix(kv, key) {
			env[i] = key + depsPath + ":" + kv[len(key):]
			return env
		}
	}
	return append(env, key+depsPath)
}

func kill(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

type processHandle struct {
	path   string
	cmd    *exec.Cmd
	conn   *grpc.ClientConn
	client wire.PluginServiceClient
	waitCh chan error
	stop   time.Duration
}

func (h *processHandle) Path() string { return h.path }

func (h *processHandle) HasFunction(ctx context.Context, name string) (bool, error) {
	resp, err := h.client.GetFunction(ctx, &wire.GetFunctionRequest{Name: name})
	if err != nil {
		return false, err
	}
	return resp.Found, nil
}

func (h *processHandle) GetInfo(ctx context.Context) (*api.PluginInfo, api.Result, error) {
	resp, err := h.client.GetInfo(ctx, &wire.GetInfoRequest{})
	if err != nil {
		return nil, api.ResultInvalidState, err
	}
	if resp.Result.Failed() {
		return nil, resp.Result, nil
	}
	if resp.Info == nil {
		return nil, api.ResultInvalidState, fmt.Errorf("plugin %s returned an empty description", h.path)
	}
	return resp.Info, api.ResultOk, nil
}

func (h *processHandle) Register(ctx context.Context, hostAddr, token, depsPath string) (api.Result, error) {
	resp, err := h.client.Register(ctx, &wire.RegisterRequest{
		HostAddress:        hostAddr,
		Token:              token,
		PathToDependencies: depsPath,
	})
	if err != nil {
		return api.ResultInvalidState, err
	}
	return resp.Result, nil
}

func (h *processHandle) Deregister(ctx context.Context) (api.Result, error) {
	resp, err := h.client.Deregister(ctx, &wire.DeregisterRequest{})
	if err != nil {
		return api.ResultInvalidState, err
	}
	return resp.Result, nil
}

func (h *processHandle) Invoke(ctx context.Context, in *wire.InvokeRequest) (*wire.InvokeResponse, error) {
	return h.client.Invoke(ctx, in)
}

// Close disconnects, asks the process to terminate and enforces the drain
// window. A process still alive after SIGKILL is reported as an error so the
// caller can refuse to consider the plugin unloaded.
func (h *processHandle) Close() error {
	_ = h.conn.Close()

	if h.cmd.Process != nil {
		_ = h.cmd.Process.Signal(syscall.SIGTERM)
	}

	timer := time.NewTimer(h.stop)
	defer timer.Stop()

	select {
	case <-h.waitCh:
		return nil
	case <-timer.C:
	}

	kill(h.cmd)
	select {
	case <-h.waitCh:
		return fmt.Errorf("plugin %s ignored termination and was killed", h.path)
	case <-time.After(h.stop):
		return fmt.Errorf("plugin %s is still running after the drain window", h.path)
	}
}
