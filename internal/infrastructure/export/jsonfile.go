// Package export writes finished journal batches to disk for the document renderer.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Extension of written files.
const Extension = ".json"

// JSONFile writes values as indented JSON files inside a directory.
type JSONFile struct {
	dir string
}

// NewJSONFile creates a writer for dir. The directory is created on first write.
func NewJSONFile(dir string) *JSONFile {
	if dir == "" {
		dir = "."
	}
	return &JSONFile{dir: dir}
}

// Path returns the file path used for name.
func (w *JSONFile) Path(name string) string {
	return filepath.Join(w.dir, name+Extension)
}

// Write stores v under name atomically: the content goes to a temp file in the
// same directory which is renamed into place. On error or cancellation the temp
// file is removed and any existing file is left untouched.
func (w *JSONFile) Write(ctx context.Context, name string, v any) (path string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create %s: %w", w.dir, err)
	}

	tmp, err := os.CreateTemp(w.dir, "."+name+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("export: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err = enc.Encode(v); err != nil {
		return "", fmt.Errorf("export: encode %s: %w", name, err)
	}
	if err = tmp.Sync(); err != nil {
		return "", fmt.Errorf("export: sync %s: %w", name, err)
	}
	if err = ctx.Err(); err != nil {
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("export: close %s: %w", name, err)
	}

	path = w.Path(name)
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("export: rename to %s: %w", path, err)
	}
	return path, nil
}
