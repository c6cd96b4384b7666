package viewmanager

import (
	"errors"
	"fmt"
	"html"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/wowup/wowup-shell/internal/extension"
)

// IndexFile is the page an extension ships for its frame.
const IndexFile = "index.html"

// FileFrame shows the text content of an extension's index page.
type FileFrame struct {
	path    string
	content string

	mu     sync.Mutex
	closed bool
}

// FileFrames is the FrameFactory used by the shell.
var FileFrames FrameFactory = FrameFactoryFunc(NewFileFrame)

// NewFileFrame reads <meta.Path>/index.html. An extension without an index
// page gets a frame with a short placeholder.
func NewFileFrame(meta extension.Metadata) (Frame, error) {
	path := filepath.Join(meta.Path, IndexFile)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &FileFrame{path: path, content: placeholder(meta)}, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &FileFrame{path: path, content: htmlText(string(data))}, nil
}

// Path returns the page the frame was built from.
func (f *FileFrame) Path() string { return f.path }

// Content returns the page text, or an empty string once closed.
func (f *FileFrame) Content() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ""
	}
	return f.content
}

// Close releases the frame. Closing twice is a no-op.
func (f *FileFrame) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.content = ""
	return nil
}

func placeholder(meta extension.Metadata) string {
	return fmt.Sprintf("%s %s\n\n(no %s)", meta.Name, meta.Version, IndexFile)
}

var textPolicy = bluemonday.StrictPolicy()

var blockTags = strings.NewReplacer(
	"</p>", "</p>\n", "<br>", "<br>\n", "<br/>", "<br/>\n",
	"</h1>", "</h1>\n", "</h2>", "</h2>\n", "</h3>", "</h3>\n",
	"</li>", "</li>\n", "</div>", "</div>\n", "</tr>", "</tr>\n",
)

// htmlText reduces a page to its visible text, one block per line.
func htmlText(page string) string {
	text := html.UnescapeString(textPolicy.Sanitize(blockTags.Replace(page)))

	var lines []string
	blank := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if len(lines) > 0 && !blank {
				lines = append(lines, "")
			}
			blank = true
			continue
		}
		blank = false
		lines = append(lines, line)
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
