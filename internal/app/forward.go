package app

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wowup/wowup-shell/internal/ipc"
)

// Forward reads host messages from r and hands them to send, typically
// (*tea.Program).Send, until the stream ends or ctx is done. A
// HostClosedMsg is sent last.
func Forward(ctx context.Context, r *ipc.Receiver, send func(tea.Msg), logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	err := r.Pump(ctx, func(msg ipc.Message) {
		if m := translate(msg, logger); m != nil {
			send(m)
		}
	}, func(err error) {
		logger.Warn("dropped malformed host message", "err", err)
	})
	send(HostClosedMsg{Err: err})
}

func translate(msg ipc.Message, logger *slog.Logger) tea.Msg {
	switch msg.Type {
	case ipc.TypeExtensionLoaded:
		if msg.Extension == nil {
			logger.Warn("extension-loaded message without metadata")
			return nil
		}
		return ExtensionLoadedMsg{Metadata: *msg.Extension}
	case ipc.TypeExtensionFailed:
		return ExtensionFailedMsg{Path: msg.Path, Err: msg.Error}
	default:
		logger.Debug("ignoring host message", "type", msg.Type)
		return nil
	}
}
