package extension

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ManifestFile is the manifest file name at an extension's installation root.
const ManifestFile = "package.json"

// MaxIconSize is the largest icon accepted. Icons travel inline to the UI.
const MaxIconSize = 1 << 20

// WowupMetadata holds the wowup-specific manifest section.
type WowupMetadata struct {
	Icon string `json:"icon,omitempty"` // Relative path to the icon asset
}

// Metadata describes an extension. The manifest fields are read from
// package.json; Path, IconPath and IconBase64 are derived at load time.
type Metadata struct {
	Name    string         `json:"name"`
	Version string         `json:"version"`
	Main    string         `json:"main,omitempty"` // Module entry name; defaults to Name
	Wowup   *WowupMetadata `json:"wowup,omitempty"`

	// Derived
	Path       string `json:"path"`
	IconPath   string `json:"iconPath,omitempty"`
	IconBase64 string `json:"iconBase64,omitempty"`
}

// IconRelativePath returns the manifest icon path, or "" when none is declared.
func (m *Metadata) IconRelativePath() string {
	if m.Wowup == nil {
		return ""
	}
	return m.Wowup.Icon
}

// Module returns the module entry name used to resolve the runtime.
func (m *Metadata) Module() string {
	if m.Main != "" {
		return m.Main
	}
	return m.Name
}

// LoadMetadata reads and validates the manifest in dir.
// It never writes to the filesystem.
func LoadMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", dir, err)
	}
	if err := validateMetadata(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func validateMetadata(m *Metadata) error {
	if strings.TrimSpace(m.Name) == "" {
		return &ValidationError{Field: "name"}
	}
	if strings.TrimSpace(m.Version) == "" {
		return &ValidationError{Field: "version"}
	}
	// The name becomes a directory under the managed root.
	if m.Name != filepath.Base(m.Name) || m.Name == "." || m.Name == ".." {
		return &ValidationError{Field: "name", Reason: "must be a single path element"}
	}
	return nil
}

// resolveIcon fills IconPath and IconBase64. A declared icon that cannot be
// read or is larger than MaxIconSize is an error; an undeclared icon leaves
// both empty.
func resolveIcon(m *Metadata) error {
	rel := m.IconRelativePath()
	if rel == "" {
		return nil
	}

	m.IconPath = filepath.Join(m.Path, rel)
	info, err := os.Stat(m.IconPath)
	if err != nil {
		return fmt.Errorf("read icon: %w", err)
	}
	if info.Size() > MaxIconSize {
		return &ValidationError{
			Field:  "icon",
			Reason: fmt.Sprintf("%s is %d bytes, limit is %d", rel, info.Size(), MaxIconSize),
		}
	}
	data, err := os.ReadFile(m.IconPath)
	if err != nil {
		return fmt.Errorf("read icon: %w", err)
	}
	m.IconBase64 = iconDataURI(m.IconPath, data)
	return nil
}

// iconDataURI encodes an icon for transport to the UI.
func iconDataURI(path string, data []byte) string {
	mediaType := "image/png"
	if t := mime.TypeByExtension(filepath.Ext(path)); strings.HasPrefix(t, "image/") {
		mediaType = t
	} else if t := http.DetectContentType(data); strings.HasPrefix(t, "image/") {
		mediaType = t
	}
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return "data:" + mediaType + ";charset=utf-8;base64," + base64.StdEncoding.EncodeToString(data)
}
