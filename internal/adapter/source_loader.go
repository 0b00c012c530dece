package adapter

import (
	"bytes"
	"fmt"
	"strings"

	m "github.com/pin-drift/guardcheck/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SourceLoader reads source files into line-addressable form so the domain
// layer can reason about guard positions without touching the disk directly.
type SourceLoader interface {
	// Load reads the file at path, strips a UTF-8 BOM, normalizes line
	// endings and splits the content into lines.
	Load(path m.Path) (*m.SourceFile, error)
}

// LocalSourceLoader is the concrete SourceLoader reading through a
// SourceFSAdapter.
type LocalSourceLoader struct {
	fs SourceFSAdapter
}

// NewLocalSourceLoader constructs a LocalSourceLoader backed by fs.
func NewLocalSourceLoader(fs SourceFSAdapter) *LocalSourceLoader {
	return &LocalSourceLoader{fs: fs}
}

// Load reads the file at path and returns its normalized line form.
func (l *LocalSourceLoader) Load(path m.Path) (*m.SourceFile, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load source %s: %w", path, err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))

	lines := strings.Split(string(data), "\n")

	// A trailing newline is a line terminator, not an extra empty line.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return &m.SourceFile{Origin: path, Lines: lines}, nil
}
