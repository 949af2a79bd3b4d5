// Package prompts renders the instruction templates sent to the model.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var defaultTemplates embed.FS

// Manager handles loading and rendering of prompt templates.
type Manager struct {
	root *template.Template
}

// NewManager creates a manager with the embedded default templates.
// If overrideDir is non-empty, any *.tmpl file found there replaces the
// embedded template of the same name.
func NewManager(overrideDir string) (*Manager, error) {
	m := &Manager{}
	m.root = template.New("root").Funcs(template.FuncMap{
		"maybe": maybeFunc,
		"pick":  pickFunc,
	})

	if err := m.loadEmbedded(); err != nil {
		return nil, fmt.Errorf("loading embedded templates: %w", err)
	}

	if overrideDir != "" {
		if err := m.loadOverrides(overrideDir); err != nil {
			return nil, fmt.Errorf("loading template overrides: %w", err)
		}
	}

	return m, nil
}

func (m *Manager) loadEmbedded() error {
	entries, err := fs.ReadDir(defaultTemplates, "templates")
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".tmpl") {
			continue
		}
		content, err := fs.ReadFile(defaultTemplates, "templates/"+e.Name())
		if err != nil {
			return err
		}
		if _, err = m.root.New(e.Name()).Parse(string(content)); err != nil {
			return fmt.Errorf("parsing %s: %w", e.Name(), err)
		}
	}
	return nil
}

func (m *Manager) loadOverrides(dir string) error {
	return filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		if info.IsDir() || !strings.HasSuffix(path, ".tmpl") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		if _, err = m.root.New(filepath.Base(path)).Parse(string(content)); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		return nil
	})
}

// Render executes the named template with the provided data.
func (m *Manager) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := m.root.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// maybeFunc includes content with a given probability (0-100).
// Usage: {{maybe 50 "This text appears 50% of the time"}}
// Re-rolls on each template render.
func maybeFunc(percent int, content string) string {
	if percent <= 0 {
		return ""
	}
	if percent >= 100 {
		return content
	}
	if rand.Intn(100) < percent {
		return content
	}
	return ""
}

// pickFunc selects one random option from a list separated by "|||".
// Usage: {{pick "Option A|||Option B|||Option C"}}
// Re-rolls on each template render.
func pickFunc(options string) string {
	parts := strings.Split(options, "|||")
	if len(parts) == 0 {
		return ""
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts[rand.Intn(len(parts))]
}
