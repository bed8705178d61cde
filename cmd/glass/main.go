// Glass is a screen-aware AI assistant. It captures the screen, reads the
// text on it, listens to spoken questions and answers them with a vision
// model, optionally reading the answer aloud.
//
// Usage:
//
//	glass [flags]
//	glass --config /path/to/glass.yaml
//
//	@title			Glass API
//	@version		2.0
//	@description	Screen-aware assistant: capture the screen, ask questions about it, talk to it.
//	@license.name	MIT
//	@BasePath		/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/nadzzz/glass/docs"
	"github.com/nadzzz/glass/internal/archive"
	"github.com/nadzzz/glass/internal/assistant"
	"github.com/nadzzz/glass/internal/capture"
	"github.com/nadzzz/glass/internal/config"
	"github.com/nadzzz/glass/internal/extract"
	"github.com/nadzzz/glass/internal/extract/tesseract"
	"github.com/nadzzz/glass/internal/health"
	"github.com/nadzzz/glass/internal/interpreter"
	geminiinterp "github.com/nadzzz/glass/internal/interpreter/gemini"
	localinterp "github.com/nadzzz/glass/internal/interpreter/local"
	openaiinterp "github.com/nadzzz/glass/internal/interpreter/openai"
	"github.com/nadzzz/glass/internal/message"
	"github.com/nadzzz/glass/internal/settings"
	"github.com/nadzzz/glass/internal/speech"
	"github.com/nadzzz/glass/internal/transport"
	grpctransport "github.com/nadzzz/glass/internal/transport/grpc"
	httptransport "github.com/nadzzz/glass/internal/transport/http"
	"github.com/nadzzz/glass/internal/tts"
	"github.com/nadzzz/glass/internal/tts/piper"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/glass.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("glass %s\n", version)
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging.
	config.SetupLogging(cfg.Logging, cfg.Server.Debug)
	slog.Info("glass starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize the model backend. A missing backend is not fatal: the UI
	// still works and /api/ask reports the problem per request.
	interp, err := newInterpreter(ctx, cfg.Interpreter)
	if err != nil {
		slog.Error("model backend not configured", "backend", cfg.Interpreter.Backend, "error", err)
	} else {
		defer interp.Close()
	}

	extractor := newExtractor(cfg.OCR, interp)
	asst := assistant.New(interp, extractor, assistant.Options{
		Timeout:   cfg.Interpreter.Timeout,
		MaxWidth:  cfg.Capture.MaxWidth,
		MaxHeight: cfg.Capture.MaxHeight,
		MaxPixels: cfg.Capture.MaxInputPixels,
	})

	// Screen capture, with the optional blob archive behind it.
	var archiver archive.Archiver = archive.Nop{}
	if cfg.Archive.Enabled {
		blob, err := archive.NewBlob(cfg.Archive)
		if err != nil {
			slog.Warn("screenshot archive disabled", "error", err)
		} else {
			archiver = blob
			slog.Info("archiving screenshots", "account", cfg.Archive.AccountName, "container", cfg.Archive.Container)
		}
	}
	screens := capture.NewService(capture.NewDisplay(cfg.Capture.Display), archiver, cfg.Capture)

	// Speech input and output.
	listener, speaker := newSpeech(ctx, cfg, interp)

	// User settings.
	var store settings.Store = settings.NewMemory(message.DefaultSettings(cfg.Speech.Enabled))
	if cfg.Settings.File != "" {
		store = settings.NewFile(cfg.Settings.File, message.DefaultSettings(cfg.Speech.Enabled))
		slog.Info("persisting settings", "file", cfg.Settings.File)
	}

	checker := health.New()

	httpTransport, err := httptransport.New(cfg.Server, httptransport.Deps{
		Assistant: asst,
		Screens:   screens,
		Listener:  listener,
		Speaker:   speaker,
		Settings:  store,
		Health:    checker,
	})
	if err != nil {
		slog.Error("failed to create http transport", "error", err)
		os.Exit(1)
	}

	transports := []transport.Transport{httpTransport}
	var grpcTransport *grpctransport.Transport
	if cfg.Transports.GRPC.Enabled {
		grpcTransport = grpctransport.New(cfg.Transports.GRPC.Port)
		transports = append(transports, grpcTransport)
	}

	// Start all transports.
	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
				cancel()
			}
		}(t)
	}

	// Mark as ready once all transports are started.
	checker.SetReady(true)
	if grpcTransport != nil {
		grpcTransport.SetServing(true)
	}
	slog.Info("glass ready",
		"addr", cfg.Server.Address(),
		"transports", len(transports),
		"model_configured", interp != nil,
		"microphone_available", listener.Available(),
		"tts_available", speaker.Available())

	// Block until shutdown signal.
	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")
	checker.SetReady(false)

	// Close all transports gracefully.
	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("glass stopped")
}

func newInterpreter(ctx context.Context, cfg config.InterpreterConfig) (interpreter.Interpreter, error) {
	switch cfg.Backend {
	case "gemini":
		interp, err := geminiinterp.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		slog.Info("using Gemini interpreter", "model", cfg.Gemini.Model)
		return interp, nil
	case "openai":
		slog.Info("using OpenAI interpreter",
			"transcription_model", cfg.OpenAI.TranscriptionModel,
			"completion_model", cfg.OpenAI.CompletionModel)
		return openaiinterp.New(cfg), nil
	case "local":
		interp, err := localinterp.New(cfg)
		if err != nil {
			return nil, err
		}
		slog.Info("using local interpreter",
			"whisper", cfg.Local.WhisperEndpoint,
			"ollama", cfg.Local.OllamaHost,
			"llm", cfg.Local.LLMModel)
		return interp, nil
	default:
		return nil, fmt.Errorf("unknown interpreter backend %q", cfg.Backend)
	}
}

// newExtractor picks the text reader for screenshots. It returns nil when
// neither tesseract nor a model is available.
func newExtractor(cfg config.OCRConfig, interp interpreter.Interpreter) *extract.Extractor {
	if cfg.Backend == "tesseract" {
		reader, err := tesseract.New(cfg.Languages)
		if err == nil {
			slog.Info("using tesseract OCR", "languages", cfg.Languages)
			return extract.New(reader)
		}
		if errors.Is(err, tesseract.ErrNotBuilt) {
			slog.Warn("tesseract OCR requested but not compiled in, falling back to the model")
		} else {
			slog.Warn("tesseract OCR unavailable, falling back to the model", "error", err)
		}
	}
	if interp == nil {
		return nil
	}
	return extract.New(extract.NewModelReader(interp))
}

func newSpeech(ctx context.Context, cfg *config.Config, interp interpreter.Interpreter) (*speech.Listener, *speech.Speaker) {
	var (
		recorder speech.Recorder
		player   speech.Player
		synth    tts.Synthesizer
	)
	if !cfg.Speech.Enabled {
		slog.Info("speech disabled")
		return speech.NewListener(nil, interp, cfg.Speech), speech.NewSpeaker(nil, nil, cfg.Speech)
	}

	if r := speech.NewExecRecorder(cfg.Speech.RecordCommand); r.Available() {
		recorder = r
	} else {
		slog.Warn("microphone not available", "command", cfg.Speech.RecordCommand)
	}
	if p := speech.NewExecPlayer(cfg.Speech.PlayCommand); p.Available() {
		player = p
	} else {
		slog.Info("no local audio player, speech audio is only returned to clients", "command", cfg.Speech.PlayCommand)
	}

	if cfg.TTS.Backend == "piper" {
		p := piper.New(cfg.TTS.Piper)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := p.Ping(pingCtx); err != nil {
			slog.Warn("piper not reachable yet", "endpoint", cfg.TTS.Piper.Endpoint, "error", err)
		}
		cancel()
		synth = p
	}

	return speech.NewListener(recorder, interp, cfg.Speech), speech.NewSpeaker(synth, player, cfg.Speech)
}
