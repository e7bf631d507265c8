package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Loader resolves a document identifier to a parsed Value.
//
// Implementations must return an error satisfying errors.Is(err, fs.ErrNotExist)
// when the identifier does not name a document.
type Loader interface {
	Load(ctx context.Context, identifier string) (*Value, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, identifier string) (*Value, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, identifier string) (*Value, error) {
	return f(ctx, identifier)
}

// RelativeLoader is implemented by loaders that can resolve identifiers
// relative to another document, such as imports next to the importing page.
type RelativeLoader interface {
	Loader
	Relative(identifier string) Loader
}

// FileLoader reads documents from the local file system. Relative
// identifiers are resolved against Dir.
type FileLoader struct {
	Dir string
}

// NewFileLoader returns a FileLoader rooted at dir.
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{Dir: dir}
}

// Load reads and parses the named file. Files ending in .yaml or .yml are
// parsed as YAML, everything else as JSON.
func (l *FileLoader) Load(ctx context.Context, identifier string) (*Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := l.resolve(identifier)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := ParseFile(path, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// Relative returns a loader that resolves identifiers against the directory
// holding identifier.
func (l *FileLoader) Relative(identifier string) Loader {
	return &FileLoader{Dir: filepath.Dir(l.resolve(identifier))}
}

func (l *FileLoader) resolve(identifier string) string {
	if filepath.IsAbs(identifier) || l.Dir == "" {
		return identifier
	}
	return filepath.Join(l.Dir, identifier)
}

// ParseFile parses data using the format implied by the file extension.
func ParseFile(path string, data []byte) (*Value, error) {
	if IsYAML(path) {
		return ParseYAML(data)
	}
	return Parse(data)
}

// IsYAML reports whether path has a YAML extension.
func IsYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// IsDocument reports whether path has an extension the FileLoader understands.
func IsDocument(path string) bool {
	return IsYAML(path) || strings.EqualFold(filepath.Ext(path), ".json")
}
