package extension

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/wowup/wowup-shell/internal/event"
)

// Registry tracks loaded extensions by name and announces each registration.
type Registry struct {
	mu         sync.Mutex
	containers map[string]*Container
	order      []string // registration order, oldest first
	closed     bool

	loaded *event.Dispatcher[Metadata]
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		containers: make(map[string]*Container),
		loaded:     event.NewDispatcher[Metadata](logger),
		logger:     logger,
	}
}

// Listen subscribes to load-completed notifications and returns a function
// that cancels the subscription.
func (r *Registry) Listen(onLoaded func(Metadata)) func() {
	return r.loaded.Subscribe(onLoaded)
}

// register stores c under its name and announces it. A container already
// registered under the same name is replaced and disposed. After Dispose, c
// is disposed at once and ErrRegistryClosed is returned.
func (r *Registry) register(c *Container) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn("extension loaded after shutdown", "name", c.Name())
		if err := c.Dispose(r.logger); err != nil {
			return fmt.Errorf("%w: %w", ErrRegistryClosed, err)
		}
		return ErrRegistryClosed
	}
	prev, exists := r.containers[c.Name()]
	r.containers[c.Name()] = c
	if exists {
		r.removeOrderLocked(c.Name())
	}
	r.order = append(r.order, c.Name())
	r.mu.Unlock()

	if exists && prev != c {
		r.logger.Warn("extension replaced by a later load", "name", c.Name(),
			"old_version", prev.Version(), "new_version", c.Version())
		_ = prev.Dispose(r.logger)
	}

	r.loaded.Publish(c.Metadata())
	return nil
}

func (r *Registry) removeOrderLocked(name string) {
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			return
		}
	}
}

// Get returns the container registered under name.
func (r *Registry) Get(name string) (*Container, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.containers[name]
	return c, ok
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered extensions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.containers)
}

// Dispose disposes every registered extension and clears the registry.
// One failing extension does not prevent the others from being disposed;
// all failures are returned together. Later registrations are refused.
func (r *Registry) Dispose() error {
	r.mu.Lock()
	r.closed = true
	order := r.order
	containers := r.containers
	r.order = nil
	r.containers = make(map[string]*Container)
	r.mu.Unlock()

	var result *multierror.Error
	for _, name := range order {
		if err := containers[name].Dispose(r.logger); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
		}
	}
	if len(order) > 0 {
		r.logger.Info("extensions disposed", "count", len(order))
	}
	return result.ErrorOrNil()
}
