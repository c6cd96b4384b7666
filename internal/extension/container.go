package extension

import (
	"fmt"
	"log/slog"
	"sync"
)

// Container owns an activated extension and its metadata.
type Container struct {
	ext      Extension
	metadata Metadata

	disposeOnce sync.Once
	disposeErr  error
}

func newContainer(ext Extension, meta Metadata) *Container {
	return &Container{ext: ext, metadata: meta}
}

// Name returns the extension name.
func (c *Container) Name() string { return c.metadata.Name }

// Version returns the extension version.
func (c *Container) Version() string { return c.metadata.Version }

// Metadata returns a copy of the extension metadata.
func (c *Container) Metadata() Metadata { return c.metadata }

// Dispose tears down the runtime instance at most once. Errors and panics
// from the extension are logged and returned, never raised.
func (c *Container) Dispose(logger *slog.Logger) error {
	c.disposeOnce.Do(func() {
		c.disposeErr = safeDispose(c.ext)
		if c.disposeErr != nil {
			if logger == nil {
				logger = slog.Default()
			}
			logger.Error("failed to dispose extension", "name", c.Name(), "err", c.disposeErr)
		}
	})
	return c.disposeErr
}

func safeDispose(ext Disposer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrDispose, r)
		}
	}()
	if err := ext.Dispose(); err != nil {
		return fmt.Errorf("%w: %w", ErrDispose, err)
	}
	return nil
}

func safeActivate(ext Activator, ctx *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrActivation, r)
		}
	}()
	if err := ext.Activate(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrActivation, err)
	}
	return nil
}
