package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"
	"time"
)

const versionLayout = "20060102150405"

var fileTemplate = template.Must(template.New("migration").Parse(`-- Migration: {{.Name}}{{if .Down}} (Rollback){{end}}
-- Created: {{.Created}}
{{- if .Description}}
-- Description: {{.Description}}
{{- end}}

`))

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// File describes a generated up/down pair
type File struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

// Create writes an empty up/down pair named <timestamp>_<name> into dir
func Create(dir, name, description string, now time.Time) (*File, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	version := now.UTC().Format(versionLayout)
	base := filepath.Join(dir, version+"_"+slug)
	f := &File{Version: version, Name: slug, UpPath: base + ".up.sql", DownPath: base + ".down.sql"}

	for _, down := range []bool{false, true} {
		path := f.UpPath
		if down {
			path = f.DownPath
		}
		if err := writeTemplate(path, map[string]any{
			"Name":        slug,
			"Created":     now.UTC().Format(time.RFC3339),
			"Description": description,
			"Down":        down,
		}); err != nil {
			_ = os.Remove(f.UpPath)
			return nil, err
		}
	}
	return f, nil
}

func writeTemplate(path string, data map[string]any) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()
	return fileTemplate.Execute(out, data)
}

// sanitizeName lowercases name and collapses anything that is not a letter
// or digit into single underscores.
func sanitizeName(name string) string {
	return strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// List returns the base names of the up migrations in dir, oldest first
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			names = append(names, base)
		}
	}
	sort.Strings(names)
	return names, nil
}
