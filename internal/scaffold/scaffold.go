package scaffold

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
)

// Config is the data substituted into template files.
type Config struct {
	// ProjectName is the directory and display name of the project.
	ProjectName string

	// ModulePath is the Go module path, usually the project name for
	// local projects.
	ModulePath string

	// Description is a short project description for the README.
	Description string
}

// Template is one embedded project layout.
type Template struct {
	// Name is the template name given to Get.
	Name string

	// Description is a one-line summary for help output.
	Description string

	// Files maps relative paths to file contents. Contents run
	// through text/template with Config as data.
	Files map[string]string
}

var templates = map[string]*Template{
	"minimal": minimalTemplate(),
	"counter": counterTemplate(),
}

// Get returns the named template.
func Get(name string) (*Template, error) {
	t, ok := templates[name]
	if !ok {
		return nil, fmt.Errorf("scaffold: unknown template %q (available: %s)", name, strings.Join(List(), ", "))
	}
	return t, nil
}

// List returns the available template names, sorted.
func List() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create expands the template into dir, creating directories as
// needed. An already existing file aborts the expansion.
func (t *Template) Create(dir string, cfg Config) error {
	for relPath, content := range t.Files {
		tmpl, err := template.New(relPath).Parse(content)
		if err != nil {
			return fmt.Errorf("scaffold: template %s: %w", relPath, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return fmt.Errorf("scaffold: template %s: %w", relPath, err)
		}

		full := filepath.Join(dir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		if _, err := os.Stat(full); err == nil {
			return fmt.Errorf("scaffold: %s already exists", full)
		}
		if err := os.WriteFile(full, buf.Bytes(), 0o644); err != nil {
			return err
		}
	}
	return nil
}
