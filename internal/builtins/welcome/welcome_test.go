package welcome

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/wowup/wowup-shell/internal/extension"
)

func TestLifecycle(t *testing.T) {
	var buf bytes.Buffer
	e := &Extension{}

	if err := e.Activate(&extension.Context{
		AppVersion: "9.9.9",
		Logger:     slog.New(slog.NewTextHandler(&buf, nil)),
	}); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := e.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "app_version=9.9.9") || !strings.Contains(out, "welcome extension disposed") {
		t.Errorf("log output = %q", out)
	}
}

func TestDisposeWithoutActivate(t *testing.T) {
	if err := (&Extension{}).Dispose(); err != nil {
		t.Errorf("Dispose: %v", err)
	}
}
