// Package addonscanner is a bundled extension that lists the addons found
// in a World of Warcraft AddOns folder and writes the result as its page.
package addonscanner

import (
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wowup/wowup-shell/internal/extension"
)

// Name is the module name declared in the extension's manifest.
const Name = "addon-scanner"

// EnvAddonsDir names the AddOns folder to scan.
const EnvAddonsDir = "WOWUP_ADDONS_DIR"

const pageFile = "index.html"

func init() {
	extension.Register(Name, func() any { return New(os.Getenv(EnvAddonsDir)) })
}

// Addon is one addon folder with a table-of-contents file.
type Addon struct {
	Folder string
	Title  string
}

// Extension scans the AddOns folder on activation.
type Extension struct {
	addonsDir string
	addons    []Addon
	logger    *slog.Logger
}

// New returns a scanner for addonsDir. An empty dir produces an empty page.
func New(addonsDir string) *Extension {
	return &Extension{addonsDir: addonsDir}
}

// Addons returns the addons found during activation.
func (e *Extension) Addons() []Addon { return e.addons }

// Activate implements extension.Activator.
func (e *Extension) Activate(ctx *extension.Context) error {
	e.logger = ctx.Logger

	if e.addonsDir != "" {
		addons, err := Scan(e.addonsDir)
		if err != nil {
			return err
		}
		e.addons = addons
	}

	if err := os.WriteFile(filepath.Join(ctx.Dir, pageFile), []byte(e.page()), 0644); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	e.logger.Info("addons scanned", "dir", e.addonsDir, "count", len(e.addons))
	return nil
}

// Dispose implements extension.Disposer.
func (e *Extension) Dispose() error {
	e.addons = nil
	return nil
}

// Scan lists addon folders under dir. A folder counts as an addon when it
// holds <folder>.toc; the title comes from its "## Title:" line.
func Scan(dir string) ([]Addon, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read addons folder: %w", err)
	}

	var addons []Addon
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		toc := filepath.Join(dir, e.Name(), e.Name()+".toc")
		data, err := os.ReadFile(toc)
		if err != nil {
			continue
		}
		addons = append(addons, Addon{Folder: e.Name(), Title: tocTitle(string(data), e.Name())})
	}
	sort.Slice(addons, func(i, j int) bool {
		return strings.ToLower(addons[i].Folder) < strings.ToLower(addons[j].Folder)
	})
	return addons, nil
}

func tocTitle(toc, fallback string) string {
	for _, line := range strings.Split(toc, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "## Title:"); ok {
			if title := stripColorCodes(strings.TrimSpace(rest)); title != "" {
				return title
			}
		}
	}
	return fallback
}

// stripColorCodes removes |cAARRGGBB and |r escapes used in addon titles.
func stripColorCodes(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '|' && i+1 < len(s) {
			switch s[i+1] {
			case 'c', 'C':
				if i+10 <= len(s) {
					i += 9
					continue
				}
			case 'r', 'R':
				i++
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func (e *Extension) page() string {
	var sb strings.Builder
	sb.WriteString("<h1>Addon Scanner</h1>\n")
	switch {
	case e.addonsDir == "":
		fmt.Fprintf(&sb, "<p>Set %s to scan an AddOns folder.</p>\n", EnvAddonsDir)
	case len(e.addons) == 0:
		fmt.Fprintf(&sb, "<p>No addons in %s</p>\n", html.EscapeString(e.addonsDir))
	default:
		fmt.Fprintf(&sb, "<p>%d addons in %s</p>\n<ul>\n", len(e.addons), html.EscapeString(e.addonsDir))
		for _, a := range e.addons {
			fmt.Fprintf(&sb, "<li>%s (%s)</li>\n", html.EscapeString(a.Title), html.EscapeString(a.Folder))
		}
		sb.WriteString("</ul>\n")
	}
	return sb.String()
}
