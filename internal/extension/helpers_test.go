package extension

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeExtension records lifecycle calls.
type fakeExtension struct {
	activateCalls int
	disposeCalls  int
	activateErr   error
	disposeErr    error
	activatePanic bool
	disposePanic  bool
	ctx           *Context
}

func (f *fakeExtension) Activate(ctx *Context) error {
	f.activateCalls++
	f.ctx = ctx
	if f.activatePanic {
		panic("activate exploded")
	}
	return f.activateErr
}

func (f *fakeExtension) Dispose() error {
	f.disposeCalls++
	if f.disposePanic {
		panic("dispose exploded")
	}
	return f.disposeErr
}

// activateOnly lacks the dispose capability.
type activateOnly struct{}

func (activateOnly) Activate(*Context) error { return nil }

// disposeOnly lacks the activate capability.
type disposeOnly struct{}

func (disposeOnly) Dispose() error { return nil }

// mapLoader resolves modules from a fixed table.
type mapLoader map[string]any

func (l mapLoader) Load(meta *Metadata) (any, error) {
	v, ok := l[meta.Module()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, meta.Module())
	}
	return v, nil
}

// memLedger is an in-memory InstallLedger.
type memLedger struct {
	digests map[string]uint64
	records int
	fail    bool
}

func (l *memLedger) InstallDigest(name string) (uint64, bool, error) {
	d, ok := l.digests[name]
	return d, ok, nil
}

func (l *memLedger) RecordInstall(name, _, _ string, digest uint64, _ time.Time) error {
	if l.fail {
		return errors.New("ledger unavailable")
	}
	if l.digests == nil {
		l.digests = make(map[string]uint64)
	}
	l.digests[name] = digest
	l.records++
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeExtension creates an extension source directory under root.
func writeExtension(t testing.TB, root, dirName string, manifest map[string]any, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, dirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if manifest != nil {
		data, err := json.Marshal(manifest)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func manifest(name, version string) map[string]any {
	return map[string]any{"name": name, "version": version}
}

func newTestManager(t testing.TB, loader ModuleLoader) *Manager {
	t.Helper()
	m, err := NewManager(Options{
		Dir:        filepath.Join(t.TempDir(), DirName),
		AppVersion: "2.0.0-test",
		Loader:     loader,
		Logger:     discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func assertValidationField(t testing.TB, err error, field string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if verr.Field != field {
		t.Errorf("ValidationError.Field = %q, want %q", verr.Field, field)
	}
	if !errors.Is(err, ErrInvalidExtension) {
		t.Errorf("errors.Is(%v, ErrInvalidExtension) = false", err)
	}
}
