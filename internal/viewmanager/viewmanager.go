// Package viewmanager keeps the UI-side state for loaded extensions: one
// ViewState per extension, a bounded set of live content frames, and the
// frame currently on display.
package viewmanager

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/wowup/wowup-shell/internal/extension"
)

// DefaultMaxFrames is the number of live frames kept when none is configured.
const DefaultMaxFrames = 2

// ErrUnknownExtension is returned when selecting a name that was never loaded.
var ErrUnknownExtension = errors.New("unknown extension")

// Frame is a live content surface for one extension.
type Frame interface {
	Content() string
	Close() error
}

// FrameFactory creates frames for newly loaded extensions.
type FrameFactory interface {
	NewFrame(meta extension.Metadata) (Frame, error)
}

// FrameFactoryFunc adapts a function to FrameFactory.
type FrameFactoryFunc func(meta extension.Metadata) (Frame, error)

// NewFrame implements FrameFactory.
func (f FrameFactoryFunc) NewFrame(meta extension.Metadata) (Frame, error) { return f(meta) }

// ViewState is the UI state of one loaded extension.
type ViewState struct {
	Metadata extension.Metadata
	Frame    Frame // nil when the frame cap was reached
	IsActive bool
	// LastActive is the zero time until the extension is first selected.
	LastActive time.Time
}

// HasFrame reports whether the extension owns a live frame.
func (s *ViewState) HasFrame() bool { return s.Frame != nil }

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for frame failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithClock overrides the time source for LastActive.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager tracks view state for loaded extensions. It is not safe for
// concurrent use; the shell drives it from its single update loop.
type Manager struct {
	factory   FrameFactory
	maxFrames int

	states    map[string]*ViewState
	order     []string
	frames    int
	displayed *ViewState

	logger *slog.Logger
	now    func() time.Time
}

// New creates a manager that keeps at most maxFrames live frames.
// A non-positive maxFrames uses DefaultMaxFrames.
func New(factory FrameFactory, maxFrames int, opts ...Option) *Manager {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	m := &Manager{
		factory:   factory,
		maxFrames: maxFrames,
		states:    make(map[string]*ViewState),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// HandleLoaded records a newly loaded extension. A frame is created only
// while fewer than the maximum exist. The first extension ever loaded
// becomes active and is displayed directly.
//
// A repeated name replaces the earlier state's metadata and frame, keeping
// its position and selection.
func (m *Manager) HandleLoaded(meta extension.Metadata) *ViewState {
	if prev, ok := m.states[meta.Name]; ok {
		m.closeFrame(prev)
		prev.Metadata = meta
		prev.Frame = m.newFrame(meta)
		if prev.IsActive {
			m.displayed = displayable(prev)
		}
		return prev
	}

	first := len(m.order) == 0
	state := &ViewState{Metadata: meta, Frame: m.newFrame(meta)}
	m.states[meta.Name] = state
	m.order = append(m.order, meta.Name)

	if first {
		state.IsActive = true
		state.LastActive = m.now()
		m.displayed = displayable(state)
	}
	return state
}

func (m *Manager) newFrame(meta extension.Metadata) Frame {
	if m.factory == nil || m.frames >= m.maxFrames {
		return nil
	}
	f, err := m.factory.NewFrame(meta)
	if err != nil {
		m.logger.Warn("failed to create frame", "name", meta.Name, "err", err)
		return nil
	}
	if f == nil {
		return nil
	}
	m.frames++
	return f
}

func (m *Manager) closeFrame(s *ViewState) {
	if s.Frame == nil {
		return
	}
	if err := s.Frame.Close(); err != nil {
		m.logger.Warn("failed to close frame", "name", s.Metadata.Name, "err", err)
	}
	s.Frame = nil
	m.frames--
	if m.displayed == s {
		m.displayed = nil
	}
}

func displayable(s *ViewState) *ViewState {
	if s.Frame == nil {
		return nil
	}
	return s
}

// Select makes name the active extension. Its frame replaces the displayed
// one; if it has no frame the display is cleared. Unknown names leave all
// state unchanged.
func (m *Manager) Select(name string) (*ViewState, error) {
	target, ok := m.states[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExtension, name)
	}

	for _, s := range m.states {
		s.IsActive = s == target
	}
	target.LastActive = m.now()
	m.displayed = displayable(target)
	return target, nil
}

// Active returns the active extension's state, or nil before any load.
func (m *Manager) Active() *ViewState {
	for _, name := range m.order {
		if s := m.states[name]; s.IsActive {
			return s
		}
	}
	return nil
}

// Displayed returns the state whose frame is on display, or nil when the
// display is empty.
func (m *Manager) Displayed() *ViewState { return m.displayed }

// Get returns the state for name.
func (m *Manager) Get(name string) (*ViewState, bool) {
	s, ok := m.states[name]
	return s, ok
}

// States returns every state in load order.
func (m *Manager) States() []*ViewState {
	out := make([]*ViewState, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.states[name])
	}
	return out
}

// Index returns the load-order position of name, or -1.
func (m *Manager) Index(name string) int {
	for i, n := range m.order {
		if n == name {
			return i
		}
	}
	return -1
}

// FrameCount returns the number of live frames.
func (m *Manager) FrameCount() int { return m.frames }

// MaxFrames returns the frame cap.
func (m *Manager) MaxFrames() int { return m.maxFrames }

// Close destroys every frame. States are kept so the sidebar can still be
// drawn; all of them are left without a frame.
func (m *Manager) Close() error {
	var result *multierror.Error
	for _, name := range m.order {
		s := m.states[name]
		if s.Frame == nil {
			continue
		}
		if err := s.Frame.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
		}
		s.Frame = nil
	}
	m.frames = 0
	m.displayed = nil
	return result.ErrorOrNil()
}
