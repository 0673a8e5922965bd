package crashdump

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/example/grpc-plugin-framework/pkg/api"
)

func testWriter(t *testing.T) *Writer {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewWriter(t.TempDir(), log)
}

func snapshots(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading snapshot dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestGuardPassesThroughResult(t *testing.T) {
	w := testWriter(t)

	res := w.Guard("noop", func() api.Result { return api.ResultNoPluginsFound })
	if res != api.ResultNoPluginsFound {
		t.Errorf("result = %s, want NoPluginsFound", res)
	}
	if got := snapshots(t, w.Dir()); len(got) != 0 {
		t.Errorf("clean run wrote snapshots: %v", got)
	}
}

func TestGuardConvertsPanic(t *testing.T) {
	w := testWriter(t)

	res := w.Guard("explode", func() api.Result { panic("boom") })
	if res != api.ResultException {
		t.Fatalf("result = %s, want Exception", res)
	}

	names := snapshots(t, w.Dir())
	if len(names) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(names))
	}

	body, err := os.ReadFile(filepath.Join(w.Dir(), names[0]))
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	for _, want := range []string{"boom", "explode", "goroutine"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("snapshot missing %q", want)
		}
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	w := testWriter(t)

	for i := 0; i < maxSnapshots+3; i++ {
		if res := w.Guard("repeat", func() api.Result { panic(i) }); res != api.ResultException {
			t.Fatalf("guard %d returned %s", i, res)
		}
	}

	names := snapshots(t, w.Dir())
	if len(names) != maxSnapshots {
		t.Errorf("got %d snapshots after pruning, want %d", len(names), maxSnapshots)
	}
}

func TestEnvOverridesDirectory(t *testing.T) {
	override := t.TempDir()
	t.Setenv(EnvDumpPath, override)

	log := logrus.New()
	log.SetOutput(io.Discard)
	w := NewWriter(t.TempDir(), log)

	if w.Dir() != override {
		t.Errorf("dir = %q, want env override %q", w.Dir(), override)
	}
}
