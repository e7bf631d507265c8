package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileWriter writes below Dir, creating directories as needed. Files are
// replaced atomically.
type FileWriter struct {
	Dir string
}

// NewFileWriter creates a FileWriter rooted at dir. An empty dir writes
// paths as given.
func NewFileWriter(dir string) *FileWriter {
	return &FileWriter{Dir: dir}
}

// WriteText writes content to path.
func (w *FileWriter) WriteText(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := w.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), "."+filepath.Base(full)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (w *FileWriter) resolve(path string) (string, error) {
	if w.Dir == "" {
		return filepath.FromSlash(path), nil
	}
	rel := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("publish: path %q escapes %s", path, w.Dir)
	}
	return filepath.Join(w.Dir, rel), nil
}
