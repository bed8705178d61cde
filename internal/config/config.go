// Package config handles loading and validating the glass configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root configuration for the glass server.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Transports  TransportsConfig  `mapstructure:"transports"`
	Interpreter InterpreterConfig `mapstructure:"interpreter"`
	OCR         OCRConfig         `mapstructure:"ocr"`
	Capture     CaptureConfig     `mapstructure:"capture"`
	Speech      SpeechConfig      `mapstructure:"speech"`
	TTS         TTSConfig         `mapstructure:"tts"`
	Settings    SettingsConfig    `mapstructure:"settings"`
	Archive     ArchiveConfig     `mapstructure:"archive"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds the HTTP API server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Debug        bool          `mapstructure:"debug"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Address returns host:port for the HTTP listener.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(strings.TrimSpace(s.Host), strconv.Itoa(s.Port))
}

// TransportsConfig holds the configuration for auxiliary transports.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
}

// GRPCConfig configures the gRPC health transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// InterpreterConfig selects and configures the model backend.
type InterpreterConfig struct {
	Backend         string        `mapstructure:"backend"` // "gemini", "openai" or "local"
	Timeout         time.Duration `mapstructure:"timeout"`
	Temperature     float32       `mapstructure:"temperature"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	Gemini          GeminiConfig  `mapstructure:"gemini"`
	OpenAI          OpenAIConfig  `mapstructure:"openai"`
	Local           LocalConfig   `mapstructure:"local"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	APIKey             string  `mapstructure:"api_key"`
	Model              string  `mapstructure:"model"`
	TranscriptionModel string  `mapstructure:"transcription_model"`
	TopP               float32 `mapstructure:"top_p"`
	TopK               int32   `mapstructure:"top_k"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	APIKey             string `mapstructure:"api_key"`
	BaseURL            string `mapstructure:"base_url"`
	TranscriptionModel string `mapstructure:"transcription_model"`
	CompletionModel    string `mapstructure:"completion_model"`
}

// LocalConfig holds self-hosted model settings.
type LocalConfig struct {
	WhisperEndpoint string `mapstructure:"whisper_endpoint"`
	WhisperType     string `mapstructure:"whisper_type"` // "openai" (default) or "asr" (ahmetoner/whisper-asr-webservice)
	OllamaHost      string `mapstructure:"ollama_host"`
	LLMModel        string `mapstructure:"llm_model"` // Ollama vision model name (e.g., "llava:7b")
	VADFilter       bool   `mapstructure:"vad_filter"`
	Language        string `mapstructure:"language"` // ISO-639-1 default language (e.g., "en", "fr")
}

// OCRConfig selects how screen text is extracted.
type OCRConfig struct {
	Backend   string   `mapstructure:"backend"` // "model" (default) or "tesseract"
	Languages []string `mapstructure:"languages"`
}

// CaptureConfig controls screen capture.
type CaptureConfig struct {
	Display   int `mapstructure:"display"`
	MaxWidth  int `mapstructure:"max_width"`
	MaxHeight int `mapstructure:"max_height"`

	// MaxInputPixels bounds screenshots posted by clients before decoding.
	MaxInputPixels int `mapstructure:"max_input_pixels"`
}

// SpeechConfig controls microphone capture and recognition.
type SpeechConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Language        string        `mapstructure:"language"`
	RecordCommand   []string      `mapstructure:"record_command"`
	PlayCommand     []string      `mapstructure:"play_command"`
	SampleRate      int           `mapstructure:"sample_rate"`
	StartTimeout    time.Duration `mapstructure:"start_timeout"`
	PhraseTimeLimit time.Duration `mapstructure:"phrase_time_limit"`
	PauseThreshold  time.Duration `mapstructure:"pause_threshold"`
	EnergyThreshold float64       `mapstructure:"energy_threshold"`
}

// TTSConfig selects and configures the text-to-speech backend.
type TTSConfig struct {
	Backend string      `mapstructure:"backend"` // "piper"
	Piper   PiperConfig `mapstructure:"piper"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// Endpoints maps ISO-639-1 codes to per-language Wyoming servers and takes
// precedence over Endpoint.
type PiperConfig struct {
	Endpoint  string            `mapstructure:"endpoint"`  // Default Wyoming TCP endpoint (host:port)
	Endpoints map[string]string `mapstructure:"endpoints"` // ISO-639-1 language code -> Wyoming TCP endpoint
	Voices    map[string]string `mapstructure:"voices"`    // ISO-639-1 language code -> Piper voice model name
}

// SettingsConfig controls where user settings are persisted.
// An empty File keeps settings in memory for the lifetime of the process.
type SettingsConfig struct {
	File string `mapstructure:"file"`
}

// ArchiveConfig configures the optional Azure Blob screenshot archive.
type ArchiveConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	AccountName string `mapstructure:"account_name"`
	AccountKey  string `mapstructure:"account_key"`
	Container   string `mapstructure:"container"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// legacyEnv lists the environment variable names the assistant has always
// honoured, next to the GLASS_ prefixed ones.
var legacyEnv = map[string][]string{
	"interpreter.gemini.api_key": {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"interpreter.openai.api_key": {"OPENAI_API_KEY"},
	"speech.enabled":             {"ENABLE_SPEECH"},
	"server.host":                {"FLASK_HOST"},
	"server.port":                {"FLASK_PORT"},
	"server.debug":               {"FLASK_DEBUG"},
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./glass.yaml, ./configs/glass.yaml, /etc/glass/glass.yaml.
// A .env file in the working directory is loaded into the environment first.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.max_body_bytes", 16<<20)
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("interpreter.backend", "gemini")
	v.SetDefault("interpreter.timeout", "60s")
	v.SetDefault("interpreter.temperature", 0.7)
	v.SetDefault("interpreter.max_output_tokens", 2000)
	v.SetDefault("interpreter.gemini.model", "gemini-1.5-flash")
	v.SetDefault("interpreter.gemini.transcription_model", "gemini-1.5-flash")
	v.SetDefault("interpreter.gemini.top_p", 0.8)
	v.SetDefault("interpreter.gemini.top_k", 40)
	v.SetDefault("interpreter.openai.transcription_model", "whisper-1")
	v.SetDefault("interpreter.openai.completion_model", "gpt-4o")
	v.SetDefault("interpreter.local.whisper_endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("interpreter.local.whisper_type", "openai")
	v.SetDefault("interpreter.local.ollama_host", "http://localhost:11434")
	v.SetDefault("interpreter.local.llm_model", "llava")
	v.SetDefault("interpreter.local.vad_filter", false)
	v.SetDefault("interpreter.local.language", "")
	v.SetDefault("ocr.backend", "model")
	v.SetDefault("ocr.languages", []string{"eng"})
	v.SetDefault("capture.display", 0)
	v.SetDefault("capture.max_width", 1920)
	v.SetDefault("capture.max_height", 1080)
	v.SetDefault("capture.max_input_pixels", 50_000_000)
	v.SetDefault("speech.enabled", true)
	v.SetDefault("speech.language", "en-US")
	v.SetDefault("speech.record_command", []string{"arecord", "-q", "-t", "raw", "-f", "S16_LE", "-c", "1", "-r", "16000"})
	v.SetDefault("speech.play_command", []string{"aplay", "-q", "-"})
	v.SetDefault("speech.sample_rate", 16000)
	v.SetDefault("speech.start_timeout", "5s")
	v.SetDefault("speech.phrase_time_limit", "10s")
	v.SetDefault("speech.pause_threshold", "800ms")
	v.SetDefault("speech.energy_threshold", 300)
	v.SetDefault("tts.backend", "piper")
	v.SetDefault("tts.piper.endpoint", "localhost:10200")
	v.SetDefault("settings.file", "")
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.container", "screenshots")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("glass")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/glass")
	}

	// Environment variables: GLASS_SERVER_PORT, GLASS_INTERPRETER_BACKEND, etc.
	v.SetEnvPrefix("GLASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		prefixed := "GLASS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	// Read config file (optional: env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${GEMINI_API_KEY}")
	cfg.Interpreter.Gemini.APIKey = resolveEnvRef(cfg.Interpreter.Gemini.APIKey)
	cfg.Interpreter.OpenAI.APIKey = resolveEnvRef(cfg.Interpreter.OpenAI.APIKey)
	cfg.Archive.AccountKey = resolveEnvRef(cfg.Archive.AccountKey)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be > 0 (got %d)", c.Server.MaxBodyBytes)
	}
	if c.Interpreter.Timeout <= 0 {
		return fmt.Errorf("interpreter.timeout must be > 0 (got %s)", c.Interpreter.Timeout)
	}
	if c.Speech.SampleRate <= 0 {
		return fmt.Errorf("speech.sample_rate must be > 0 (got %d)", c.Speech.SampleRate)
	}
	if c.Capture.MaxWidth <= 0 || c.Capture.MaxHeight <= 0 {
		return fmt.Errorf("capture bounds must be > 0 (got %dx%d)", c.Capture.MaxWidth, c.Capture.MaxHeight)
	}
	if c.Capture.MaxInputPixels <= 0 {
		return fmt.Errorf("capture.max_input_pixels must be > 0 (got %d)", c.Capture.MaxInputPixels)
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
// debug forces the debug level regardless of cfg.Level.
func SetupLogging(cfg LoggingConfig, debug bool) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
