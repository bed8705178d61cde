// Package speech listens to the microphone and speaks responses aloud.
//
// Both devices are exclusive: a second Listen or Speak while one is running
// fails fast with ErrBusy instead of queueing.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/nadzzz/glass/internal/audio"
	"github.com/nadzzz/glass/internal/config"
	"github.com/nadzzz/glass/internal/interpreter"
	"github.com/nadzzz/glass/internal/response"
	"github.com/nadzzz/glass/internal/tts"
)

// Listen and Speak outcomes. The capitalized messages are shown to users
// as they are.
var (
	ErrUnavailable    = errors.New("Microphone not available")
	ErrListenTimeout  = errors.New("Listening timeout - no speech detected")
	ErrNotUnderstood  = errors.New("Could not understand the audio")
	ErrBusy           = errors.New("audio device busy")
	ErrTTSUnavailable = errors.New("Text-to-speech not available")
	ErrNothingToSay   = errors.New("no text to speak")
)

// ServiceError wraps a failure of the speech recognition backend.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string { return "Speech recognition error: " + e.Err.Error() }

func (e *ServiceError) Unwrap() error { return e.Err }

// Outcome tags the result of a Listen call for API clients.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "recognized"
	case errors.Is(err, ErrListenTimeout):
		return "timeout"
	case errors.Is(err, ErrNotUnderstood):
		return "unknown_value"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrBusy):
		return "busy"
	default:
		return "error"
	}
}

// Listener records one phrase and transcribes it.
type Listener struct {
	recorder Recorder // nil when speech is disabled
	interp   interpreter.Interpreter
	params   vadParams
	language string
	sem      *semaphore.Weighted
}

// NewListener creates a Listener. recorder or interp may be nil, in which
// case Listen reports ErrUnavailable.
func NewListener(recorder Recorder, interp interpreter.Interpreter, cfg config.SpeechConfig) *Listener {
	return &Listener{
		recorder: recorder,
		interp:   interp,
		params: vadParams{
			SampleRate:      cfg.SampleRate,
			StartTimeout:    cfg.StartTimeout,
			PhraseTimeLimit: cfg.PhraseTimeLimit,
			PauseThreshold:  cfg.PauseThreshold,
			EnergyThreshold: cfg.EnergyThreshold,
		},
		language: cfg.Language,
		sem:      semaphore.NewWeighted(1),
	}
}

// Available reports whether a microphone and a transcription backend exist.
func (l *Listener) Available() bool {
	return l.recorder != nil && l.interp != nil && l.recorder.Available()
}

// Listen waits for the user to speak one phrase and returns its transcript.
func (l *Listener) Listen(ctx context.Context) (string, error) {
	if !l.Available() {
		return "", ErrUnavailable
	}
	if !l.sem.TryAcquire(1) {
		return "", ErrBusy
	}
	defer l.sem.Release(1)

	recCtx, cancel := context.WithTimeout(ctx, l.params.StartTimeout+l.params.PhraseTimeLimit+frameDuration*4)
	defer cancel()

	stream, err := l.recorder.Open(recCtx)
	if err != nil {
		slog.Warn("microphone open failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	pcm, err := capturePhrase(stream, l.params)
	_ = stream.Close()
	if err != nil {
		if errors.Is(err, ErrListenTimeout) {
			return "", err
		}
		if ctx.Err() == nil && errors.Is(recCtx.Err(), context.DeadlineExceeded) {
			return "", ErrListenTimeout
		}
		return "", fmt.Errorf("reading microphone: %w", err)
	}

	slog.Debug("phrase captured", "pcm_bytes", len(pcm))
	wav := audio.WAV(pcm, l.params.SampleRate, 1, bytesPerSample)
	res, err := l.interp.Transcribe(ctx, wav, audio.ContentTypeWAV, interpreter.TranscribeOpts{
		Language: l.language,
	})
	if err != nil {
		return "", &ServiceError{Err: err}
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", ErrNotUnderstood
	}
	slog.Info("speech recognized", "text_length", len(text), "language", res.Language)
	return text, nil
}

// Speaker synthesizes text and optionally plays it on the local device.
type Speaker struct {
	synth    tts.Synthesizer // nil when TTS is disabled
	player   Player          // nil to skip local playback
	language string
	sem      *semaphore.Weighted
}

// SpeakResult is the synthesized audio and whether it was played locally.
type SpeakResult struct {
	*tts.SynthesizeResult
	Text   string // the cleaned text that was synthesized
	Played bool
}

// NewSpeaker creates a Speaker. synth may be nil; player may be nil.
func NewSpeaker(synth tts.Synthesizer, player Player, cfg config.SpeechConfig) *Speaker {
	return &Speaker{
		synth:    synth,
		player:   player,
		language: cfg.Language,
		sem:      semaphore.NewWeighted(1),
	}
}

// Available reports whether speech synthesis is configured.
func (s *Speaker) Available() bool { return s.synth != nil }

// Speak cleans text for speech, synthesizes it and plays it when a player
// is configured. Playback failures are logged; the audio is still returned.
func (s *Speaker) Speak(ctx context.Context, text string) (*SpeakResult, error) {
	if s.synth == nil {
		return nil, ErrTTSUnavailable
	}
	clean := response.ForSpeech(text)
	if clean == "" {
		return nil, ErrNothingToSay
	}
	if !s.sem.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer s.sem.Release(1)

	res, err := s.synth.Synthesize(ctx, clean, tts.SynthesizeOpts{Language: s.language})
	if err != nil {
		return nil, fmt.Errorf("synthesizing speech: %w", err)
	}

	out := &SpeakResult{SynthesizeResult: res, Text: clean}
	if s.player != nil && s.player.Available() {
		if err := s.player.Play(ctx, res.Audio); err != nil {
			slog.Warn("audio playback failed", "error", err)
		} else {
			out.Played = true
		}
	}
	return out, nil
}
