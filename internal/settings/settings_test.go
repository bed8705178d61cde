package settings

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nadzzz/glass/internal/apperr"
	"github.com/nadzzz/glass/internal/message"
)

func TestMerge(t *testing.T) {
	cur := message.DefaultSettings(true)

	tests := []struct {
		name    string
		patch   string
		wantErr bool
		check   func(t *testing.T, s message.Settings)
	}{
		{
			name:  "partial update keeps other fields",
			patch: `{"personal_context":"  I write Go  ","theme":"dark"}`,
			check: func(t *testing.T, s message.Settings) {
				if s.PersonalContext != "I write Go" || s.Theme != "dark" {
					t.Errorf("settings = %+v", s)
				}
				if s.MaxResponseLength != 2000 || s.SpeechRate != 180 || !s.VoiceEnabled {
					t.Errorf("untouched fields changed: %+v", s)
				}
			},
		},
		{name: "empty object", patch: `{}`, check: func(t *testing.T, s message.Settings) {
			if s != cur {
				t.Errorf("settings = %+v", s)
			}
		}},
		{name: "unknown field", patch: `{"colour":"red"}`, wantErr: true},
		{name: "bad theme", patch: `{"theme":"neon"}`, wantErr: true},
		{name: "bad rate", patch: `{"speech_rate":9000}`, wantErr: true},
		{name: "wrong type", patch: `{"voice_enabled":"yes"}`, wantErr: true},
		{name: "not json", patch: `theme=dark`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Merge(cur, []byte(tt.patch))
			if tt.wantErr {
				if apperr.KindOf(err) != apperr.KindValidation {
					t.Fatalf("error = %v, want validation error", err)
				}
				if got != cur {
					t.Errorf("failed merge must return current settings")
				}
				return
			}
			if err != nil {
				t.Fatalf("Merge() error: %v", err)
			}
			tt.check(t, got)
		})
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(message.DefaultSettings(false))
	if m.Persistent() {
		t.Error("memory store must not claim persistence")
	}

	s, _ := m.Get(ctx)
	s.Theme = "light"
	if err := m.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	if got, _ := m.Get(ctx); got.Theme != "light" {
		t.Errorf("Theme = %q", got.Theme)
	}
}

func TestFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	defaults := message.DefaultSettings(true)

	f := NewFile(path, defaults)
	if !f.Persistent() {
		t.Error("file store must be persistent")
	}

	got, err := f.Get(ctx)
	if err != nil || got != defaults {
		t.Fatalf("missing file should yield defaults: %+v, %v", got, err)
	}

	got.PersonalContext = "Senior SRE"
	got.SpeechRate = 150
	if err := f.Save(ctx, got); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// A new store on the same path sees the saved values.
	reloaded, err := NewFile(path, defaults).Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.PersonalContext != "Senior SRE" || reloaded.SpeechRate != 150 {
		t.Errorf("reloaded = %+v", reloaded)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "personal_context: Senior SRE") {
		t.Errorf("file content:\n%s", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("theme: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFile(path, message.DefaultSettings(true)).Get(context.Background()); err == nil {
		t.Error("expected parse error")
	}
}
