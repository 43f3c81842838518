// Package prompts holds the named prompt templates shared by every
// conversation in the process. Templates are read from a TOML file whose
// top-level tables group related prompts:
//
//	[story]
//	context = """..."""
//
// Placeholders are filled by callers through Render.
package prompts

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/BurntSushi/toml"
)

var (
	ErrConfig           = errors.New("prompt template configuration error")
	ErrTemplateNotFound = errors.New("prompt template not found")
)

// loadFile decodes a template file. Replaced in tests to count loads.
var loadFile = func(path string) (map[string]any, error) {
	var m map[string]any
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// funcs are available to every template.
var funcs = template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
}

var (
	sharedMu     sync.Mutex
	sharedStores = make(map[string]*Store)
)

// Store maps template names to template text.
type Store struct {
	// writeMu serializes Reload and SetPath across the read and the swap.
	writeMu sync.Mutex

	mu      sync.RWMutex
	path    string
	prompts map[string]any

	// moved is signaled when SetPath changes the file's directory.
	moved chan struct{}
}

// Shared returns the process-wide store of one backend, loading it from path
// on first use. Later calls with the same name return the same instance
// regardless of path. A failed first load leaves no instance behind, so a
// later call may try again.
func Shared(name, path string) (*Store, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if s, ok := sharedStores[name]; ok {
		return s, nil
	}

	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	sharedStores[name] = s
	return s, nil
}

// Load creates an unshared store from path.
func Load(path string) (*Store, error) {
	s := &Store{path: path, moved: make(chan struct{}, 1)}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the current path. On failure the previous templates stay.
func (s *Store) Reload() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prompts, err := read(s.Path())
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.prompts = prompts
	s.mu.Unlock()
	return nil
}

// SetPath points the store at a new file and reloads it immediately.
// The path is kept only when the reload succeeds.
func (s *Store) SetPath(path string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prompts, err := read(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.path
	s.path = path
	s.prompts = prompts
	s.mu.Unlock()

	if filepath.Dir(filepath.Clean(old)) != filepath.Dir(filepath.Clean(path)) {
		select {
		case s.moved <- struct{}{}:
		default:
		}
	}
	return nil
}

// Path returns the file the templates were loaded from.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Prompts returns the current mapping. Callers must treat it as read-only.
func (s *Store) Prompts() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompts
}

// Lookup returns the template at a dotted key such as "story.context".
func (s *Store) Lookup(key string) (string, error) {
	var node any = s.Prompts()
	for _, part := range strings.Split(key, ".") {
		table, ok := node.(map[string]any)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, key)
		}
		if node, ok = table[part]; !ok {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, key)
		}
	}

	text, ok := node.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is a table, not a template", ErrTemplateNotFound, key)
	}
	return text, nil
}

// Render executes the template at key with data.
func (s *Store) Render(key string, data any) (string, error) {
	text, err := s.Lookup(key)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(key).Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", key, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", key, err)
	}
	return buf.String(), nil
}

func read(path string) (map[string]any, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: prompt path is missing", ErrConfig)
	}
	prompts, err := loadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrConfig, path, err)
	}
	return prompts, nil
}
