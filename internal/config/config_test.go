package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Address() != "127.0.0.1:5000" {
		t.Errorf("Address() = %q, want 127.0.0.1:5000", cfg.Server.Address())
	}
	if cfg.Server.MaxBodyBytes != 16<<20 {
		t.Errorf("MaxBodyBytes = %d, want %d", cfg.Server.MaxBodyBytes, 16<<20)
	}
	if cfg.Interpreter.Backend != "gemini" {
		t.Errorf("Backend = %q, want gemini", cfg.Interpreter.Backend)
	}
	if cfg.Interpreter.Timeout != 60*time.Second {
		t.Errorf("Timeout = %s, want 60s", cfg.Interpreter.Timeout)
	}
	if cfg.Speech.PauseThreshold != 800*time.Millisecond {
		t.Errorf("PauseThreshold = %s, want 800ms", cfg.Speech.PauseThreshold)
	}
	if !cfg.Speech.Enabled {
		t.Error("speech should be enabled by default")
	}
	if len(cfg.Speech.RecordCommand) == 0 || cfg.Speech.RecordCommand[0] != "arecord" {
		t.Errorf("RecordCommand = %v", cfg.Speech.RecordCommand)
	}
	if cfg.Capture.MaxInputPixels != 50_000_000 {
		t.Errorf("MaxInputPixels = %d, want 50000000", cfg.Capture.MaxInputPixels)
	}
}

func TestLoadLegacyEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "gm-key")
	t.Setenv("ENABLE_SPEECH", "False")
	t.Setenv("FLASK_HOST", "0.0.0.0")
	t.Setenv("FLASK_PORT", "8088")
	t.Setenv("FLASK_DEBUG", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Interpreter.Gemini.APIKey != "gm-key" {
		t.Errorf("Gemini.APIKey = %q", cfg.Interpreter.Gemini.APIKey)
	}
	if cfg.Speech.Enabled {
		t.Error("ENABLE_SPEECH=False should disable speech")
	}
	if cfg.Server.Address() != "0.0.0.0:8088" {
		t.Errorf("Address() = %q", cfg.Server.Address())
	}
	if !cfg.Server.Debug {
		t.Error("FLASK_DEBUG=true should enable debug")
	}
}

func TestLoadPrefixedEnvironmentWins(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "legacy")
	t.Setenv("GLASS_INTERPRETER_GEMINI_API_KEY", "prefixed")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Interpreter.Gemini.APIKey != "prefixed" {
		t.Errorf("Gemini.APIKey = %q, want prefixed", cfg.Interpreter.Gemini.APIKey)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("MY_OPENAI_KEY", "sk-from-env")

	path := filepath.Join(dir, "custom.yaml")
	content := `
server:
  port: 9001
interpreter:
  backend: openai
  timeout: 15s
  openai:
    api_key: ${MY_OPENAI_KEY}
settings:
  file: /tmp/glass-settings.yaml
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Interpreter.Backend != "openai" || cfg.Interpreter.Timeout != 15*time.Second {
		t.Errorf("Interpreter = %+v", cfg.Interpreter)
	}
	if cfg.Interpreter.OpenAI.APIKey != "sk-from-env" {
		t.Errorf("OpenAI.APIKey = %q, want env reference resolved", cfg.Interpreter.OpenAI.APIKey)
	}
	if cfg.Settings.File != "/tmp/glass-settings.yaml" {
		t.Errorf("Settings.File = %q", cfg.Settings.File)
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GLASS_SERVER_PORT", "70000")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestLoadRejectsZeroPixelBudget(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GLASS_CAPTURE_MAX_INPUT_PIXELS", "0")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for zero max_input_pixels")
	}
}

func TestResolveEnvRef(t *testing.T) {
	t.Setenv("GLASS_TEST_SECRET", "s3cret")

	tests := []struct {
		in, want string
	}{
		{"${GLASS_TEST_SECRET}", "s3cret"},
		{"${GLASS_TEST_MISSING}", "${GLASS_TEST_MISSING}"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := resolveEnvRef(tt.in); got != tt.want {
			t.Errorf("resolveEnvRef(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
