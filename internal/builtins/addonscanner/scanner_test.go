package addonscanner

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wowup/wowup-shell/internal/extension"
)

func writeAddon(t *testing.T, root, folder, toc string) {
	t.Helper()
	dir := filepath.Join(root, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if toc == "" {
		return
	}
	if err := os.WriteFile(filepath.Join(dir, folder+".toc"), []byte(toc), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeAddon(t, root, "WeakAuras", "## Interface: 100200\n## Title: |cff1785d1WeakAuras|r\n")
	writeAddon(t, root, "bagnon", "## Interface: 100200\n")
	writeAddon(t, root, "Empty", "")
	if err := os.WriteFile(filepath.Join(root, "readme.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	addons, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []Addon{{Folder: "bagnon", Title: "bagnon"}, {Folder: "WeakAuras", Title: "WeakAuras"}}
	if len(addons) != len(want) {
		t.Fatalf("addons = %+v, want %+v", addons, want)
	}
	for i := range want {
		if addons[i] != want[i] {
			t.Errorf("addons[%d] = %+v, want %+v", i, addons[i], want[i])
		}
	}
}

func TestStripColorCodes(t *testing.T) {
	tests := []struct{ in, want string }{
		{"|cffff0000Red|r Addon", "Red Addon"},
		{"Plain", "Plain"},
		{"trailing|", "trailing|"},
		{"|cshort", "|cshort"},
	}
	for _, tt := range tests {
		if got := stripColorCodes(tt.in); got != tt.want {
			t.Errorf("stripColorCodes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestActivate_WritesPage(t *testing.T) {
	addonsDir := t.TempDir()
	writeAddon(t, addonsDir, "Details", "## Title: Details! Damage Meter\n")
	extDir := t.TempDir()

	e := New(addonsDir)
	err := e.Activate(&extension.Context{
		AppVersion: "test",
		Dir:        extDir,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if len(e.Addons()) != 1 {
		t.Errorf("addons = %+v", e.Addons())
	}

	page, err := os.ReadFile(filepath.Join(extDir, pageFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), "Details! Damage Meter") {
		t.Errorf("page = %s", page)
	}

	if err := e.Dispose(); err != nil {
		t.Errorf("Dispose: %v", err)
	}
}

func TestActivate_MissingAddonsDirFails(t *testing.T) {
	e := New(filepath.Join(t.TempDir(), "missing"))
	err := e.Activate(&extension.Context{Dir: t.TempDir(), Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err == nil {
		t.Error("expected error for missing AddOns folder")
	}
}

func TestRegistered(t *testing.T) {
	found := false
	for _, name := range extension.Registered() {
		if name == Name {
			found = true
		}
	}
	if !found {
		t.Errorf("%s not registered", Name)
	}
}
