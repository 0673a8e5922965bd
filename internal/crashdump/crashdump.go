// Package crashdump converts panics escaping framework entry points into
// error results, writing a snapshot of the failure to disk first. A host
// embedding the framework must never be taken down by a misbehaving plugin
// path.
package crashdump

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/grpc-plugin-framework/pkg/api"
)

// EnvDumpPath overrides the snapshot directory, taking precedence over the
// host preferences. Useful when the configured data path is the problem.
const EnvDumpPath = "GPF_DUMP_PATH"

// maxSnapshots bounds how many snapshot files are kept; oldest go first.
const maxSnapshots = 8

const snapshotPrefix = "gpf-crash-"

// Writer persists crash snapshots into one directory.
type Writer struct {
	dir string
	log *logrus.Logger

	// OnPanic, when set, is called once per recovered panic.
	OnPanic func()
}

// NewWriter picks the snapshot directory: the environment override wins,
// then dir, then the system temp directory.
func NewWriter(dir string, log *logrus.Logger) *Writer {
	if env := os.Getenv(EnvDumpPath); env != "" {
		dir = env
	}
	if dir == "" {
		dir = os.TempDir()
	}
	return &Writer{dir: dir, log: log}
}

// Dir returns the directory snapshots are written to.
func (w *Writer) Dir() string { return w.dir }

// Capture writes one snapshot and prunes old ones. It returns the file path,
// or "" when the snapshot could not be written.
func (w *Writer) Capture(op string, panicVal any, stack []byte) string {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		w.log.WithError(err).Error("cannot create crash snapshot directory")
		return ""
	}

	name := fmt.Sprintf("%s%s-%s.txt", snapshotPrefix, time.Now().UTC().Format("20060102T150405.000000000"), op)
	path := filepath.Join(w.dir, name)

	body := fmt.Sprintf("operation: %s\ntime: %s\npanic: %v\n\n%s",
		op, time.Now().UTC().Format(time.RFC3339Nano), panicVal, stack)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		w.log.WithError(err).Error("cannot write crash snapshot")
		return ""
	}

	w.prune()
	return path
}

// prune deletes the oldest snapshots beyond the retention limit.
func (w *Writer) prune() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && len(e.Name()) > len(snapshotPrefix) && e.Name()[:len(snapshotPrefix)] == snapshotPrefix {
			names = append(names, e.Name())
		}
	}
	if len(names) <= maxSnapshots {
		return
	}

	// Timestamped names sort chronologically.
	sort.Strings(names)
	for _, name := range names[:len(names)-maxSnapshots] {
		if err := os.Remove(filepath.Join(w.dir, name)); err != nil {
			w.log.WithError(err).WithField("snapshot", name).Warn("cannot prune crash snapshot")
		}
	}
}

// Guard runs fn, turning a panic into ResultException after snapshotting it.
func (w *Writer) Guard(op string, fn func() api.Result) (res api.Result) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			path := w.Capture(op, r, stack)
			w.log.WithFields(logrus.Fields{
				"operation": op,
				"panic":     fmt.Sprint(r),
				"snapshot":  path,
			}).Error("panic recovered at framework boundary")
			if w.OnPanic != nil {
				w.OnPanic()
			}
			res = api.ResultException
		}
	}()
	return fn()
}
