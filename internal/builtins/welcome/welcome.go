// Package welcome is the bundled greeting extension.
package welcome

import (
	"log/slog"

	"github.com/wowup/wowup-shell/internal/extension"
)

// Name is the module name declared in the extension's manifest.
const Name = "welcome"

func init() {
	extension.Register(Name, func() any { return &Extension{} })
}

// Extension greets the user on activation.
type Extension struct {
	logger *slog.Logger
}

// Activate implements extension.Activator.
func (e *Extension) Activate(ctx *extension.Context) error {
	e.logger = ctx.Logger
	e.logger.Info("welcome extension active", "app_version", ctx.AppVersion)
	return nil
}

// Dispose implements extension.Disposer.
func (e *Extension) Dispose() error {
	if e.logger != nil {
		e.logger.Info("welcome extension disposed")
	}
	return nil
}
