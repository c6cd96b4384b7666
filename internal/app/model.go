package app

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wowup/wowup-shell/internal/ui"
	"github.com/wowup/wowup-shell/internal/viewmanager"
)

// ActivityRecorder persists selection times.
type ActivityRecorder interface {
	TouchActive(name string, t time.Time) error
}

// Options configures the shell model.
type Options struct {
	AppVersion string
	Views      *viewmanager.Manager
	Activity   ActivityRecorder // optional
	Logger     *slog.Logger
}

// Model is the root Bubble Tea model for the shell.
type Model struct {
	// Extension views
	views *viewmanager.Manager

	// Persistence
	activity ActivityRecorder

	// UI state
	width, height int
	content       viewport.Model
	showDetails   bool
	details       string
	labels        *ui.LabelCache

	// Status/toast messages
	statusMsg     string
	statusExpiry  time.Time
	statusIsError bool

	// Ready state
	ready bool

	appVersion string
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a new shell model.
func New(opts Options) Model {
	if opts.Views == nil {
		opts.Views = viewmanager.New(viewmanager.FileFrames, viewmanager.DefaultMaxFrames)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return Model{
		views:      opts.Views,
		activity:   opts.Activity,
		content:    viewport.New(0, 0),
		labels:     ui.NewLabelCache(256),
		appVersion: opts.AppVersion,
		logger:     opts.Logger,
		now:        time.Now,
	}
}

// Init initializes the model and returns initial commands.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Views returns the view manager driven by the model.
func (m Model) Views() *viewmanager.Manager { return m.views }

// ActiveExtension returns the active extension's view state.
func (m Model) ActiveExtension() *viewmanager.ViewState {
	return m.views.Active()
}

// SetActive selects the extension at idx in load order.
func (m *Model) SetActive(idx int) tea.Cmd {
	states := m.views.States()
	if idx < 0 || idx >= len(states) {
		return nil
	}
	return m.FocusByName(states[idx].Metadata.Name)
}

// NextExtension switches to the next extension.
func (m *Model) NextExtension() tea.Cmd {
	n := len(m.views.States())
	if n == 0 {
		return nil
	}
	return m.SetActive((m.activeIndex() + 1) % n)
}

// PrevExtension switches to the previous extension.
func (m *Model) PrevExtension() tea.Cmd {
	n := len(m.views.States())
	if n == 0 {
		return nil
	}
	idx := m.activeIndex() - 1
	if idx < 0 {
		idx = n - 1
	}
	return m.SetActive(idx)
}

// FocusByName selects an extension by name and swaps its frame in.
func (m *Model) FocusByName(name string) tea.Cmd {
	state, err := m.views.Select(name)
	if err != nil {
		m.logger.Warn("select failed", "name", name, "err", err)
		return nil
	}
	m.recordActivity(name, state.LastActive)
	m.showDetails = false
	m.refreshContent()
	m.content.GotoTop()
	return nil
}

func (m *Model) recordActivity(name string, at time.Time) {
	if m.activity == nil {
		return
	}
	if err := m.activity.TouchActive(name, at); err != nil {
		m.logger.Warn("failed to record activity", "name", name, "err", err)
	}
}

func (m Model) activeIndex() int {
	if a := m.views.Active(); a != nil {
		return m.views.Index(a.Metadata.Name)
	}
	return -1
}

// ShowToast displays a temporary status message.
func (m *Model) ShowToast(msg string, duration time.Duration) {
	m.statusMsg = msg
	m.statusExpiry = m.now().Add(duration)
	m.statusIsError = false
}

// ShowError displays a temporary error message.
func (m *Model) ShowError(msg string, duration time.Duration) {
	m.ShowToast(msg, duration)
	m.statusIsError = true
}

// ClearToast clears any expired toast message.
func (m *Model) ClearToast() {
	if m.statusMsg != "" && m.now().After(m.statusExpiry) {
		m.statusMsg = ""
		m.statusIsError = false
	}
}

// refreshContent loads the displayed frame into the viewport.
func (m *Model) refreshContent() {
	if d := m.views.Displayed(); d != nil {
		m.content.SetContent(d.Frame.Content())
		return
	}
	m.content.SetContent("")
}
