// Package host runs the extension manager and relays load-completed
// notifications to the UI process.
package host

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/wowup/wowup-shell/internal/extension"
	"github.com/wowup/wowup-shell/internal/ipc"
)

// MessageSender delivers messages to the UI side.
type MessageSender interface {
	Send(msg ipc.Message) error
}

// Host bridges the extension registry and the UI channel.
type Host struct {
	manager *extension.Manager
	sender  MessageSender
	logger  *slog.Logger

	mu       sync.Mutex
	cancel   func()
	stopped  bool
	stopOnce sync.Once
	stopErr  error
}

// New creates a host. Nothing is loaded until Start.
func New(manager *extension.Manager, sender MessageSender, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{manager: manager, sender: sender, logger: logger}
}

// Start subscribes to the registry, then installs the seeds and loads every
// installed extension. Each registration is forwarded to the UI; rejected
// extensions are reported as failures. Start returns the load results.
func (h *Host) Start(ctx context.Context, seeds []string) ([]extension.LoadResult, error) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil, errors.New("host: already stopped")
	}
	if h.cancel == nil {
		h.cancel = h.manager.Listen(h.relay)
	}
	h.mu.Unlock()

	results := h.manager.LoadAll(ctx, seeds)
	for _, res := range results {
		if res.Err != nil {
			h.ReportFailure(res)
		}
	}
	return results, ctx.Err()
}

// Relay forwards results produced outside Start, such as those from the
// directory watcher, until results is closed. Registered results were
// already announced through the registry, so only failures are sent.
func (h *Host) Relay(results <-chan extension.LoadResult) {
	for res := range results {
		if res.Err != nil {
			h.ReportFailure(res)
		}
	}
}

// ReportFailure sends a failure message for a rejected extension.
func (h *Host) ReportFailure(res extension.LoadResult) {
	if err := h.sender.Send(ipc.ExtensionFailed(res.Path, res.Err)); err != nil {
		h.logger.Warn("failed to report extension failure", "path", res.Path, "err", err)
	}
}

func (h *Host) relay(meta extension.Metadata) {
	if err := h.sender.Send(ipc.ExtensionLoaded(meta)); err != nil {
		h.logger.Warn("failed to relay extension", "name", meta.Name, "err", err)
		return
	}
	h.logger.Debug("extension relayed", "name", meta.Name)
}

// Stop unsubscribes from the registry and disposes every loaded extension.
// It is safe to call more than once.
func (h *Host) Stop() error {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		h.stopped = true
		cancel := h.cancel
		h.cancel = nil
		h.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		h.stopErr = h.manager.Dispose()
	})
	return h.stopErr
}
