package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wowup/wowup-shell/internal/extension"
)

// ExtensionLoadedMsg delivers a relayed load-completed notification.
type ExtensionLoadedMsg struct {
	Metadata extension.Metadata
}

// ExtensionFailedMsg delivers a relayed load failure.
type ExtensionFailedMsg struct {
	Path string
	Err  string
}

// HostClosedMsg signals that the host channel ended.
type HostClosedMsg struct {
	Err error
}

// TickMsg drives toast expiry.
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
