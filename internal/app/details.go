package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/wowup/wowup-shell/internal/viewmanager"
)

// detailsMarkdown describes an extension for the details overlay.
func detailsMarkdown(s *viewmanager.ViewState, maxFrames int) string {
	meta := s.Metadata

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", meta.Name)
	fmt.Fprintf(&sb, "- **Version:** %s\n", meta.Version)
	fmt.Fprintf(&sb, "- **Path:** `%s`\n", meta.Path)
	if meta.IconPath != "" {
		fmt.Fprintf(&sb, "- **Icon:** `%s`\n", meta.IconPath)
	}
	if s.HasFrame() {
		sb.WriteString("- **Frame:** live\n")
	} else {
		fmt.Fprintf(&sb, "- **Frame:** none (limit %d)\n", maxFrames)
	}
	if !s.LastActive.IsZero() {
		fmt.Fprintf(&sb, "- **Last active:** %s\n", s.LastActive.Format("2006-01-02 15:04:05"))
	}

	// The data URI is long and unreadable in a terminal.
	meta.IconBase64 = ""
	if data, err := json.MarshalIndent(meta, "", "  "); err == nil {
		sb.WriteString("\n## Manifest\n\n```json\n")
		sb.Write(data)
		sb.WriteString("\n```\n")
	}
	return sb.String()
}

// renderDetails renders the active extension's details as terminal markdown.
func (m Model) renderDetails() string {
	active := m.views.Active()
	if active == nil {
		return ""
	}
	md := detailsMarkdown(active, m.views.MaxFrames())

	width := min(m.width-8, 80)
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.logger.Debug("markdown renderer unavailable", "err", err)
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
