package dashboard

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed templates/*.json.tmpl
var templates embed.FS

// Table name defaults, matching the GreptimeDB writer.
const (
	DefaultBlipTable      = "radar_blips"
	DefaultDetectionTable = "radar_detections"
	DefaultStateTable     = "radar_scanner_state"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
		"envOr": func(key, def string) string {
			if v := os.Getenv(key); v != "" {
				return v
			}
			return def
		},
	}
}

// Render parses the embedded dashboard templates and writes rendered
// dashboards to outDir.
func Render(outDir string) error {
	names, err := fs.Glob(templates, "templates/*.json.tmpl")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, name := range names {
		base := path.Base(name)
		t, err := template.New(base).Funcs(funcMap()).ParseFS(templates, name)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(base, ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := t.Execute(f, nil); err != nil {
			f.Close()
			return fmt.Errorf("render %s: %w", base, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
