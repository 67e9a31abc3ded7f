// Package fsx defines the filesystem capability used by components that read
// and write scenario sources, guides, and generated specs. Consumers take the
// interface so tests can substitute an in-memory implementation.
package fsx

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FS is the narrow filesystem surface the build pipeline depends on.
type FS interface {
	Exists(path string) bool
	ReadText(path string) (string, error)
	WriteText(path, text string) error
	List(dir, suffix string) ([]string, error)
	Remove(path string) error
}

// OS is the production FS backed by the host filesystem. Writes create parent
// directories and replace the whole file in one call.
type OS struct{}

// NewOS returns the host-backed filesystem.
func NewOS() OS { return OS{} }

// Exists reports whether path names an existing file or directory.
func (OS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadText reads the entire file as a string.
func (OS) ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// WriteText overwrites path with text, creating parent directories as needed.
func (OS) WriteText(path, text string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// List returns the files directly under dir whose names end with suffix,
// sorted. A missing directory yields an empty slice.
func (OS) List(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Remove deletes a file. Removing a missing file is not an error.
func (OS) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Mem is an in-memory FS for tests. Safe for concurrent use.
type Mem struct {
	mu    sync.Mutex
	files map[string]string

	// FailWrites, when set, makes every WriteText return an error.
	FailWrites bool
}

// NewMem returns an empty in-memory filesystem.
func NewMem() *Mem {
	return &Mem{files: make(map[string]string)}
}

// Exists reports whether the exact path was written.
func (m *Mem) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

// ReadText returns the stored text or an error mimicking os.ErrNotExist.
func (m *Mem) ReadText(path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.files[path]
	if !ok {
		return "", fmt.Errorf("read %s: %w", path, os.ErrNotExist)
	}
	return text, nil
}

// WriteText stores text under path.
func (m *Mem) WriteText(path, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return fmt.Errorf("write %s: write disabled", path)
	}
	m.files[path] = text
	return nil
}

// Paths returns every stored path, sorted, for assertions.
func (m *Mem) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// List returns stored paths inside dir with the given suffix, sorted.
func (m *Mem) List(dir, suffix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	prefix := strings.TrimSuffix(dir, "/") + "/"
	for p := range m.files {
		if strings.HasPrefix(p, prefix) && strings.HasSuffix(p, suffix) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Remove deletes a stored path. Removing a missing path is not an error.
func (m *Mem) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}
