package dev

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vango-dev/jsonpage/internal/config"
	"github.com/vango-dev/jsonpage/pkg/document"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	// ChangeDocument is a JSON or YAML document.
	ChangeDocument ChangeType = iota

	// ChangeConfig is the project configuration file.
	ChangeConfig

	// ChangeAsset is any other file.
	ChangeAsset
)

func (t ChangeType) String() string {
	switch t {
	case ChangeDocument:
		return "document"
	case ChangeConfig:
		return "config"
	default:
		return "asset"
	}
}

// Change represents a detected file change.
type Change struct {
	Path    string
	Type    ChangeType
	Removed bool
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Paths are the directories to watch.
	Paths []string

	// Ignore patterns to skip (globs).
	Ignore []string

	// Interval is the delay between scans.
	Interval time.Duration
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	"dist",
	"*.tmp",
	"*.swp",
	"*~",
}

// Watcher polls directories for modified, added and removed files.
type Watcher struct {
	config     WatcherConfig
	onChange   func([]Change)
	mu         sync.Mutex
	running    bool
	scanned    bool
	stopCh     chan struct{}
	timestamps map[string]time.Time
}

// NewWatcher creates a new file watcher.
func NewWatcher(cfg WatcherConfig) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = config.DefaultPollInterval
	}
	if len(cfg.Ignore) == 0 {
		cfg.Ignore = DefaultIgnore
	}
	return &Watcher{
		config:     cfg,
		timestamps: make(map[string]time.Time),
	}
}

// OnChange sets the callback for file changes. Each scan that finds
// changes calls fn once with all of them.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start scans the watched paths until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	w.scan()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			changes := w.scan()
			w.mu.Lock()
			callback := w.onChange
			w.mu.Unlock()
			if len(changes) > 0 && callback != nil {
				callback(changes)
			}
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// scan walks the watched paths and returns what changed since the last
// scan. The first scan only records timestamps.
func (w *Watcher) scan() []Change {
	seen := make(map[string]time.Time)
	for _, root := range w.config.Paths {
		filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if w.shouldIgnore(p) {
				if d.IsDir() && p != root {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			seen[p] = info.ModTime()
			return nil
		})
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	first := !w.scanned
	w.scanned = true
	var changes []Change
	for p, mod := range seen {
		last, ok := w.timestamps[p]
		if !first && (!ok || mod.After(last)) {
			changes = append(changes, Change{Path: p, Type: classifyChange(p)})
		}
	}
	for p := range w.timestamps {
		if _, ok := seen[p]; !ok {
			changes = append(changes, Change{Path: p, Type: classifyChange(p), Removed: true})
		}
	}
	w.timestamps = seen
	return changes
}

// shouldIgnore checks if a path should be ignored.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	normalized := filepath.ToSlash(fullPath)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if name == pattern {
			return true
		}

		hasPathSep := strings.ContainsAny(pattern, `/\`)
		if strings.ContainsAny(pattern, "*?[") {
			target := name
			if hasPathSep {
				target = normalized
			}
			if matched, _ := path.Match(filepath.ToSlash(pattern), target); matched {
				return true
			}
			continue
		}

		if hasPathSep {
			if pathMatchesSegments(normalized, filepath.ToSlash(pattern)) {
				return true
			}
			continue
		}
		for _, part := range splitPathSegments(normalized) {
			if part == pattern {
				return true
			}
		}
	}
	return false
}

func pathMatchesSegments(p, pattern string) bool {
	pathParts := splitPathSegments(p)
	patternParts := splitPathSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}
	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		match := true
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func splitPathSegments(p string) []string {
	var out []string
	for _, part := range strings.Split(p, "/") {
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return out
}

// classifyChange determines the type of change from the file name.
func classifyChange(p string) ChangeType {
	switch {
	case filepath.Base(p) == config.ConfigFileName:
		return ChangeConfig
	case document.IsDocument(p):
		return ChangeDocument
	default:
		return ChangeAsset
	}
}
