// Package scaffold renders a self-contained build context for the demo web
// service: a one-file Go server, its go.mod and a Dockerfile, with the
// configured message and port baked in. The rendered directory is everything
// `stevedore deploy` needs.
package scaffold

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"stevedore/pkg/service"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Render writes the build context into srv.ContextPath, creating the
// directory if needed. It refuses to touch a directory that already holds a
// Dockerfile, so an existing context is never clobbered.
func Render(srv service.Spec) error {
	dir := srv.ContextPath
	if dir == "" {
		return fmt.Errorf("no build context path configured")
	}

	if _, err := os.Stat(filepath.Join(dir, "Dockerfile")); err == nil {
		return fmt.Errorf("build context %s already has a Dockerfile", dir)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create build context %s: %w", dir, err)
	}

	templates, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	for _, tmpl := range templates.Templates() {
		name := strings.TrimSuffix(tmpl.Name(), ".tmpl")
		path := filepath.Join(dir, name)

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := tmpl.Execute(f, srv); err != nil {
			f.Close()
			return fmt.Errorf("render %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	return nil
}
