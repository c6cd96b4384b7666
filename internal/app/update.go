package app

import (
	"strconv"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	sidebarWidth = 24
	headerHeight = 2
	footerHeight = 1
)

// Update handles messages and returns the updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.labels.Clear()
		m.resizeContent()
		if m.showDetails {
			m.details = m.renderDetails()
		}
		return m, nil

	case ExtensionLoadedMsg:
		state := m.views.HandleLoaded(msg.Metadata)
		m.logger.Info("extension shown", "name", msg.Metadata.Name, "frame", state.HasFrame())
		if state.IsActive {
			m.recordActivity(state.Metadata.Name, state.LastActive)
			m.refreshContent()
		}
		return m, nil

	case ExtensionFailedMsg:
		m.logger.Warn("extension failed to load", "path", msg.Path, "err", msg.Err)
		return m, nil

	case HostClosedMsg:
		if msg.Err != nil {
			m.logger.Warn("host channel closed", "err", msg.Err)
		}
		return m, nil

	case TickMsg:
		m.ClearToast()
		return m, tickCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.content, cmd = m.content.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.showDetails {
		switch key {
		case "?", "esc", "q":
			m.showDetails = false
			return m, nil
		case "y":
			return m, m.yankPath()
		case "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		return m, m.NextExtension()
	case "shift+tab":
		return m, m.PrevExtension()
	case "?":
		if m.views.Active() != nil {
			m.showDetails = true
			m.details = m.renderDetails()
		}
		return m, nil
	case "y":
		return m, m.yankPath()
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n, _ := strconv.Atoi(key)
		return m, m.SetActive(n - 1)
	}

	var cmd tea.Cmd
	m.content, cmd = m.content.Update(msg)
	return m, cmd
}

// yankPath copies the active extension's install path to the clipboard.
func (m *Model) yankPath() tea.Cmd {
	active := m.views.Active()
	if active == nil || active.Metadata.Path == "" {
		return nil
	}
	if err := clipboard.WriteAll(active.Metadata.Path); err != nil {
		m.ShowError("Copy failed: "+err.Error(), 2*time.Second)
		return nil
	}
	m.ShowToast("Copied "+active.Metadata.Path, 2*time.Second)
	return nil
}

func (m *Model) resizeContent() {
	w := m.width - sidebarWidth - 1
	h := m.height - headerHeight - footerHeight
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	m.content.Width = w
	m.content.Height = h
}
