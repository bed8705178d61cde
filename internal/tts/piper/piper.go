// Package piper implements the TTS Synthesizer using a Piper Wyoming protocol server.
//
// Piper is a fast, local neural text-to-speech system. The rhasspy/wyoming-piper
// and linuxserver/piper containers expose the Wyoming protocol on TCP port
// 10200. Connections are per request.
//
// Wyoming event framing:
//
//	{"type": ..., "data_length": N, "payload_length": M}\n
//	<N bytes of JSON data>
//	<M bytes of payload>
package piper

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/nadzzz/glass/internal/audio"
	"github.com/nadzzz/glass/internal/config"
	"github.com/nadzzz/glass/internal/tts"
)

// defaultVoices maps ISO-639-1 language codes to Piper voice model names.
var defaultVoices = map[string]string{
	"en": "en_US-lessac-medium",
	"fr": "fr_FR-siwis-medium",
	"es": "es_ES-mls_10246-low",
	"de": "de_DE-thorsten-medium",
	"it": "it_IT-riccardo-x_low",
	"pt": "pt_BR-faber-medium",
	"nl": "nl_NL-mls-medium",
	"ja": "ja_JP-amitaro-medium",
	"zh": "zh_CN-huayan-medium",
}

const (
	dialTimeout    = 5 * time.Second
	defaultTimeout = 30 * time.Second

	// maxAudioBytes bounds the PCM collected for one synthesis, about
	// 25 minutes of 22.05 kHz 16-bit mono.
	maxAudioBytes = 64 << 20
)

// ErrAudioTooLarge is returned when a server streams more audio than one
// synthesis may hold.
var ErrAudioTooLarge = errors.New("piper audio exceeds size limit")

// Synthesizer implements tts.Synthesizer against one or more Piper servers.
type Synthesizer struct {
	endpoint  string            // default host:port
	endpoints map[string]string // language -> host:port
	voices    map[string]string // language -> voice name
	maxAudio  int
}

// New creates a Piper synthesizer from config.
func New(cfg config.PiperConfig) *Synthesizer {
	voices := make(map[string]string, len(defaultVoices)+len(cfg.Voices))
	for k, v := range defaultVoices {
		voices[k] = v
	}
	for k, v := range cfg.Voices {
		voices[strings.ToLower(k)] = v
	}

	endpoints := make(map[string]string, len(cfg.Endpoints))
	for lang, ep := range cfg.Endpoints {
		endpoints[strings.ToLower(lang)] = hostPort(ep)
	}

	return &Synthesizer{
		endpoint:  hostPort(cfg.Endpoint),
		endpoints: endpoints,
		voices:    voices,
		maxAudio:  maxAudioBytes,
	}
}

func hostPort(ep string) string {
	for _, scheme := range []string{"tcp://", "http://"} {
		ep = strings.TrimPrefix(ep, scheme)
	}
	return strings.TrimRight(ep, "/")
}

// route picks the voice and server for a language such as "en" or "en-US".
func (s *Synthesizer) route(opts tts.SynthesizeOpts) (voice, endpoint string) {
	lang := strings.ToLower(opts.Language)
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}

	voice = opts.Voice
	if voice == "" {
		voice = s.voices[lang]
	}
	if voice == "" {
		voice = s.voices["en"]
	}

	endpoint = s.endpoints[lang]
	if endpoint == "" {
		endpoint = s.endpoint
	}
	return voice, endpoint
}

// Synthesize sends text to Piper and returns the audio as WAV.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty text for synthesis")
	}
	voice, endpoint := s.route(opts)
	if endpoint == "" {
		return nil, fmt.Errorf("no piper endpoint configured for language %q", opts.Language)
	}

	slog.Debug("piper synthesize", "text_length", len(text), "voice", voice, "endpoint", endpoint)

	conn, err := dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	err = writeEvent(conn, event{
		Type: "synthesize",
		Data: map[string]any{
			"text":  text,
			"voice": map[string]any{"name": voice},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sending synthesize event: %w", err)
	}

	// audio-start → audio-chunk* → audio-stop
	var (
		pcm      bytes.Buffer
		format   = pcmFormat{Rate: 22050, Width: 2, Channels: 1}
		reader   = bufio.NewReader(conn)
		chunks   int
		gotStart bool
	)
	for {
		evt, err := readEvent(reader)
		if err != nil {
			return nil, fmt.Errorf("reading piper event: %w", err)
		}

		switch evt.Type {
		case "audio-start":
			format.update(evt.Data)
			gotStart = true
		case "audio-chunk":
			if !gotStart {
				format.update(evt.Data)
			}
			if pcm.Len()+len(evt.Payload) > s.maxAudio {
				return nil, fmt.Errorf("%w (%d bytes after %d chunks)", ErrAudioTooLarge, pcm.Len()+len(evt.Payload), chunks+1)
			}
			pcm.Write(evt.Payload)
			chunks++
		case "audio-stop":
			slog.Debug("piper synthesis complete", "chunks", chunks, "pcm_bytes", pcm.Len(), "rate", format.Rate)
			return &tts.SynthesizeResult{
				Audio:       audio.WAV(pcm.Bytes(), format.Rate, format.Channels, format.Width),
				ContentType: audio.ContentTypeWAV,
				SampleRate:  format.Rate,
				Channels:    format.Channels,
			}, nil
		case "error":
			msg, _ := evt.Data["text"].(string)
			if msg == "" {
				msg = "unknown error"
			}
			return nil, fmt.Errorf("piper error: %s", msg)
		default:
			slog.Debug("piper ignoring event", "type", evt.Type)
		}
	}
}

// Ping asks the default server to describe itself. It reports whether the
// server answered with an info event.
func (s *Synthesizer) Ping(ctx context.Context) error {
	if s.endpoint == "" {
		return errors.New("no piper endpoint configured")
	}
	conn, err := dial(ctx, s.endpoint)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := writeEvent(conn, event{Type: "describe"}); err != nil {
		return fmt.Errorf("sending describe event: %w", err)
	}
	evt, err := readEvent(bufio.NewReader(conn))
	if err != nil {
		return fmt.Errorf("reading piper info: %w", err)
	}
	if evt.Type != "info" {
		return fmt.Errorf("unexpected piper reply %q", evt.Type)
	}
	return nil
}

// Close is a no-op; connections are per request.
func (s *Synthesizer) Close() error { return nil }

func dial(ctx context.Context, endpoint string) (net.Conn, error) {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to piper: %w", err)
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	_ = conn.SetDeadline(deadline)
	return conn, nil
}

type pcmFormat struct {
	Rate, Width, Channels int
}

func (f *pcmFormat) update(data map[string]any) {
	if v, ok := data["rate"].(float64); ok && v > 0 {
		f.Rate = int(v)
	}
	if v, ok := data["width"].(float64); ok && v > 0 {
		f.Width = int(v)
	}
	if v, ok := data["channels"].(float64); ok && v > 0 {
		f.Channels = int(v)
	}
}
