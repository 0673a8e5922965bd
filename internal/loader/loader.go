// Package loader owns the physical side of plugin management: finding plugin
// executables, starting and stopping their processes, and speaking the
// descriptor protocol to them. Everything above it deals only in identities
// and interfaces.
package loader

import (
	"context"
	"fmt"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/example/grpc-plugin-framework/pkg/api"
	"github.com/example/grpc-plugin-framework/pkg/wire"
)

// Prefix is the file name prefix plugin executables must carry to be picked
// up by a scan.
const Prefix = "gpf-plugin-"

// Handle is a live plugin process. All methods go over the wire; Close
// terminates the process.
type Handle interface {
	Path() string
	// HasFunction probes one descriptor entry point by name.
	HasFunction(ctx context.Context, name string) (bool, error)
	GetInfo(ctx context.Context) (*api.PluginInfo, api.Result, error)
	Register(ctx context.Context, hostAddr, token, depsPath string) (api.Result, error)
	Deregister(ctx context.Context) (api.Result, error)
	Invoke(ctx context.Context, in *wire.InvokeRequest) (*wire.InvokeResponse, error)
	// Close disconnects and stops the process. A non-nil error means the
	// process refused to exit within the drain window and is still running.
	Close() error
}

// Loader abstracts process management so the framework can be exercised
// without real child processes.
type Loader interface {
	// Scan lists plugin executables directly inside dir.
	Scan(dir string) ([]string, error)
	// Probe loads the plugin just long enough to read its description, then
	// unloads it. Results are cached against the file's identity.
	Probe(ctx context.Context, path string) (*api.PluginInfo, error)
	Load(ctx context.Context, path string) (Handle, error)
	// MissingDependencies reports shared libraries the plugin binary needs
	// but that resolve nowhere in searchDirs or the system locations.
	MissingDependencies(path string, searchDirs []string) ([]string, error)
	// SharedLibraries lists library files directly inside dir.
	SharedLibraries(dir string) ([]string, error)
}

// Config tunes the process loader.
type Config struct {
	// DepsPath is prepended to the dynamic linker search path of every
	// spawned plugin.
	DepsPath string
	// StartTimeout bounds the wait for a plugin's handshake line.
	StartTimeout time.Duration
	// StopTimeout is the drain window a plugin gets between SIGTERM and
	// SIGKILL.
	StopTimeout time.Duration
	// ProbeCacheSize bounds the description cache. Zero disables caching.
	ProbeCacheSize int

	Log *logrus.Logger
}

func (c *Config) fillDefaults() {
	if c.StartTimeout <= 0 {
		c.StartTimeout = 10 * time.Second
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = 5 * time.Second
	}
	if c.Log == nil {
		c.Log = logrus.New()
	}
}

// ProcessLoader runs plugins as child processes connected over gRPC.
type ProcessLoader struct {
	cfg   Config
	cache *lru.Cache[probeKey, *api.PluginInfo]
}

// probeKey identifies one on-disk version of a plugin file. A rebuilt binary
// changes size or mtime and falls out of the cache naturally.
type probeKey struct {
	path  string
	mtime int64
	size  int64
}

func New(cfg Config) (*ProcessLoader, error) {
	cfg.fillDefaults()
	l := &ProcessLoader{cfg: cfg}
	if cfg.ProbeCacheSize > 0 {
		cache, err := lru.New[probeKey, *api.PluginInfo](cfg.ProbeCacheSize)
		if err != nil {
			return nil, fmt.Errorf("probe cache: %w", err)
		}
		l.cache = cache
	}
	return l, nil
}

// Probe starts the plugin, reads its description and stops it again. The
// transient process is always stopped, even when description fails.
func (l *ProcessLoader) Probe(ctx context.Context, path string) (*api.PluginInfo, error) {
	key, haveKey := l.keyFor(path)
	if haveKey && l.cache != nil {
		if info, ok := l.cache.Get(key); ok {
			return info, nil
		}
	}

	h, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := h.Close(); cerr != nil {
			l.cfg.Log.WithError(cerr).WithField("plugin", path).Warn("transient plugin process did not exit cleanly")
		}
	}()

	info, res, err := h.GetInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("describing %s: %w", path, err)
	}
	if res.Failed() {
		return nil, fmt.Errorf("describing %s: plugin reported %s", path, res)
	}

	if haveKey && l.cache != nil {
		l.cache.Add(key, info)
	}
	return info, nil
}

func (l *ProcessLoader) keyFor(path string) (probeKey, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return probeKey{}, false
	}
	return probeKey{path: path, mtime: fi.ModTime().UnixNano(), size: fi.Size()}, true
}
