package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wowup/wowup-shell/internal/ui"
	"github.com/wowup/wowup-shell/internal/viewmanager"
)

// View renders the shell.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.renderHeader()
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.renderContent())
	screen := lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderFooter())

	if m.showDetails {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			ui.Modal.Render(m.details))
	}
	return screen
}

func (m Model) renderHeader() string {
	title := ui.Header.Render(" WowUp") + ui.Muted.Render(" "+m.appVersion)
	frames := ui.Muted.Render(fmt.Sprintf("frames %d/%d ", m.views.FrameCount(), m.views.MaxFrames()))
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(frames)
	if gap < 1 {
		gap = 1
	}
	line := title + strings.Repeat(" ", gap) + frames
	return line + "\n" + ui.Muted.Render(strings.Repeat("━", max(m.width, 1)))
}

// renderSidebar draws one badge per loaded extension in load order.
func (m Model) renderSidebar() string {
	height := m.height - headerHeight - footerHeight
	labelWidth := sidebarWidth - 6

	var sb strings.Builder
	states := m.views.States()
	if len(states) == 0 {
		sb.WriteString(ui.Muted.Render(m.labels.Fit(" no extensions", sidebarWidth-1)))
	}
	for i, s := range states {
		if i >= height {
			break
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.renderSidebarEntry(i, s, labelWidth))
	}

	return ui.Sidebar.Width(sidebarWidth).Height(max(height, 1)).Render(sb.String())
}

func (m Model) renderSidebarEntry(i int, s *viewmanager.ViewState, labelWidth int) string {
	badge := ui.Badge
	if s.IsActive {
		badge = ui.BadgeActive
	}
	label := m.labels.Fit(s.Metadata.Name, labelWidth)
	if !s.HasFrame() {
		label = ui.Muted.Render(label)
	}
	hotkey := " "
	if i < 9 {
		hotkey = fmt.Sprintf("%d", i+1)
	}
	return ui.Muted.Render(hotkey) + badge.Render(ui.BadgeText(s.Metadata.Name)) + " " + label
}

func (m Model) renderContent() string {
	if m.views.Displayed() != nil {
		return m.content.View()
	}

	var msg string
	switch active := m.views.Active(); {
	case active == nil:
		msg = "No extensions loaded"
	default:
		msg = fmt.Sprintf("%s has no live frame (limit %d)", active.Metadata.Name, m.views.MaxFrames())
	}
	return lipgloss.NewStyle().
		Width(m.content.Width).
		Height(m.content.Height).
		Padding(0, 1).
		Render(ui.Muted.Render(msg))
}

func (m Model) renderFooter() string {
	if m.statusMsg != "" {
		style := ui.Muted
		if m.statusIsError {
			style = ui.Error
		}
		return style.Render(" " + m.labels.Truncate(m.statusMsg, m.width-1, "…"))
	}
	return ui.Muted.Render(m.labels.Truncate(" tab/1-9 switch  ? details  y copy path  q quit", m.width, ""))
}
