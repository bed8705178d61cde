// Package settings persists the user preferences exposed by /api/settings.
package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/nadzzz/glass/internal/apperr"
	"github.com/nadzzz/glass/internal/message"
)

// Store reads and writes settings.
type Store interface {
	Get(ctx context.Context) (message.Settings, error)
	Save(ctx context.Context, s message.Settings) error

	// Persistent reports whether saved settings survive a restart.
	Persistent() bool
}

var themes = map[string]bool{"glass": true, "dark": true, "light": true}

// Validate checks that s holds usable values.
func Validate(s message.Settings) error {
	if s.Theme != "" && !themes[s.Theme] {
		return apperr.Validation(fmt.Sprintf("unknown theme %q", s.Theme), nil)
	}
	if s.MaxResponseLength < 0 {
		return apperr.Validation("max_response_length must be >= 0", nil)
	}
	if s.SpeechRate < 0 || s.SpeechRate > 500 {
		return apperr.Validation("speech_rate must be between 0 and 500", nil)
	}
	return nil
}

// Merge applies the fields present in patch (a JSON object) on top of cur.
// Unknown fields are rejected.
func Merge(cur message.Settings, patch []byte) (message.Settings, error) {
	dec := json.NewDecoder(bytes.NewReader(patch))
	dec.DisallowUnknownFields()
	next := cur
	if err := dec.Decode(&next); err != nil {
		return cur, apperr.Validation("invalid settings", err)
	}
	if err := Validate(next); err != nil {
		return cur, err
	}
	next.PersonalContext = strings.TrimSpace(next.PersonalContext)
	return next, nil
}

// Memory keeps settings for the lifetime of the process.
type Memory struct {
	mu       sync.RWMutex
	settings message.Settings
}

// NewMemory creates a Memory store seeded with defaults.
func NewMemory(defaults message.Settings) *Memory {
	return &Memory{settings: defaults}
}

func (m *Memory) Get(context.Context) (message.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings, nil
}

func (m *Memory) Save(_ context.Context, s message.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	return nil
}

func (m *Memory) Persistent() bool { return false }

// File stores settings as YAML. Writes go to a temp file that is renamed
// over the target, so a crash never leaves a truncated file.
type File struct {
	path     string
	defaults message.Settings
	mu       sync.Mutex
}

// NewFile creates a File store at path. A missing file yields defaults.
func NewFile(path string, defaults message.Settings) *File {
	return &File{path: path, defaults: defaults}
}

func (f *File) Get(context.Context) (message.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *File) load() (message.Settings, error) {
	s := f.defaults
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("reading settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return f.defaults, fmt.Errorf("parsing settings %s: %w", f.path, err)
	}
	return s, nil
}

func (f *File) Save(_ context.Context, s message.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replacing settings: %w", err)
	}
	return nil
}

func (f *File) Persistent() bool { return true }
