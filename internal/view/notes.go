package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	texttemplate "text/template"

	"github.com/yuin/goldmark"

	applog "kalkyle/internal/log"
)

//go:embed notes/*.md
var notesFS embed.FS

// Notes renders the explanatory text of each tab. The files are markdown
// with text/template placeholders for figures.
type Notes struct {
	tmpl   *texttemplate.Template
	md     goldmark.Markdown
	logger *applog.Logger
}

// NewNotes parses the embedded notes.
func NewNotes() (*Notes, error) {
	return ParseNotes(notesFS, "notes")
}

// ParseNotes parses every *.md file in dir; each becomes a note named after
// the file without extension.
func ParseNotes(fsys fs.FS, dir string) (*Notes, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read notes: %w", err)
	}
	root := texttemplate.New("notes").Option("missingkey=error")
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".md" {
			continue
		}
		src, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read note %s: %w", e.Name(), err)
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		if _, err := root.New(name).Parse(string(src)); err != nil {
			return nil, fmt.Errorf("parse note %s: %w", name, err)
		}
	}
	return &Notes{
		tmpl:   root,
		md:     goldmark.New(),
		logger: applog.Default(applog.ComponentTemplate),
	}, nil
}

// WithLogger sets the logger render failures are reported to.
func (n *Notes) WithLogger(logger *applog.Logger) *Notes {
	if logger != nil {
		n.logger = logger
	}
	return n
}

// Render fills the named note with data and converts it to HTML. A nil
// Notes or a missing note renders empty.
func (n *Notes) Render(name string, data any) template.HTML {
	if n == nil || n.tmpl.Lookup(name) == nil {
		return ""
	}
	var src bytes.Buffer
	if err := n.tmpl.ExecuteTemplate(&src, name, data); err != nil {
		n.logger.Warn("Note template failed", "note", name, applog.FieldError, err)
		return ""
	}
	var out bytes.Buffer
	if err := n.md.Convert(src.Bytes(), &out); err != nil {
		n.logger.Warn("Note markdown failed", "note", name, applog.FieldError, err)
		return ""
	}
	// goldmark omits raw HTML unless built WithUnsafe.
	return template.HTML(out.String())
}
