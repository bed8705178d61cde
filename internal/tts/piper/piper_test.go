package piper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/nadzzz/glass/internal/config"
	"github.com/nadzzz/glass/internal/tts"
)

// fakeServer answers one connection per reply script.
func fakeServer(t *testing.T, reply func(req *event, w *bufio.Writer)) (string, <-chan *event) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	got := make(chan *event, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				req, err := readEvent(bufio.NewReader(conn))
				if err != nil {
					return
				}
				got <- req
				w := bufio.NewWriter(conn)
				reply(req, w)
				_ = w.Flush()
			}()
		}
	}()
	return ln.Addr().String(), got
}

func TestEventRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := event{Type: "audio-chunk", Data: map[string]any{"rate": 16000.0}, Payload: []byte{1, 2, 3}}
	if err := writeEvent(&buf, in); err != nil {
		t.Fatal(err)
	}

	header, _, _ := strings.Cut(buf.String(), "\n")
	if !strings.Contains(header, `"data_length"`) || !strings.Contains(header, `"payload_length":3`) {
		t.Errorf("header = %s", header)
	}

	out, err := readEvent(bufio.NewReader(&buf))
	if err != nil {
		t.Fatal(err)
	}
	if out.Type != "audio-chunk" || out.Data["rate"] != 16000.0 || !bytes.Equal(out.Payload, []byte{1, 2, 3}) {
		t.Errorf("event = %+v", out)
	}
}

func TestReadEventInlineData(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(`{"type":"error","data":{"text":"voice not found"}}` + "\n"))
	evt, err := readEvent(r)
	if err != nil {
		t.Fatal(err)
	}
	if evt.Data["text"] != "voice not found" {
		t.Errorf("data = %v", evt.Data)
	}
}

func TestReadEventRejectsGarbage(t *testing.T) {
	for _, in := range []string{"12 0\n", `{"type":"x","data_length":-1}` + "\n", ""} {
		if _, err := readEvent(bufio.NewReader(strings.NewReader(in))); err == nil {
			t.Errorf("readEvent(%q) expected error", in)
		}
	}
}

func TestSynthesize(t *testing.T) {
	addr, requests := fakeServer(t, func(req *event, w *bufio.Writer) {
		_ = writeEvent(w, event{Type: "audio-start", Data: map[string]any{"rate": 16000, "width": 2, "channels": 1}})
		_ = writeEvent(w, event{Type: "audio-chunk", Payload: []byte{1, 0, 2, 0}})
		_ = writeEvent(w, event{Type: "audio-chunk", Payload: []byte{3, 0}})
		_ = writeEvent(w, event{Type: "audio-stop"})
	})

	s := New(config.PiperConfig{Endpoint: "tcp://" + addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.Synthesize(ctx, "Hello there", tts.SynthesizeOpts{Language: "en-US"})
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if res.ContentType != "audio/wav" || res.SampleRate != 16000 || res.Channels != 1 {
		t.Errorf("result = %+v", res)
	}
	if len(res.Audio) != 44+6 || string(res.Audio[:4]) != "RIFF" {
		t.Errorf("audio length = %d", len(res.Audio))
	}
	if rate := binary.LittleEndian.Uint32(res.Audio[24:28]); rate != 16000 {
		t.Errorf("WAV rate = %d", rate)
	}

	req := <-requests
	if req.Type != "synthesize" || req.Data["text"] != "Hello there" {
		t.Errorf("request = %+v", req)
	}
	voice, _ := req.Data["voice"].(map[string]any)
	if voice["name"] != "en_US-lessac-medium" {
		t.Errorf("voice = %v", req.Data["voice"])
	}
}

func TestSynthesizeServerError(t *testing.T) {
	addr, _ := fakeServer(t, func(_ *event, w *bufio.Writer) {
		_ = writeEvent(w, event{Type: "error", Data: map[string]any{"text": "voice not found"}})
	})

	s := New(config.PiperConfig{Endpoint: addr})
	_, err := s.Synthesize(context.Background(), "hi", tts.SynthesizeOpts{})
	if err == nil || !strings.Contains(err.Error(), "voice not found") {
		t.Fatalf("Synthesize() error = %v", err)
	}
}

func TestSynthesizeAudioLimit(t *testing.T) {
	addr, _ := fakeServer(t, func(_ *event, w *bufio.Writer) {
		_ = writeEvent(w, event{Type: "audio-start", Data: map[string]any{"rate": 16000, "width": 2, "channels": 1}})
		_ = writeEvent(w, event{Type: "audio-chunk", Payload: []byte{1, 0, 2, 0}})
		_ = writeEvent(w, event{Type: "audio-chunk", Payload: []byte{3, 0, 4, 0}})
		_ = writeEvent(w, event{Type: "audio-stop"})
	})

	tests := []struct {
		name    string
		limit   int
		wantErr error
	}{
		{"fits exactly", 8, nil},
		{"over limit", 6, ErrAudioTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(config.PiperConfig{Endpoint: addr})
			s.maxAudio = tt.limit

			res, err := s.Synthesize(context.Background(), "hi", tts.SynthesizeOpts{})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Synthesize() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Synthesize() error: %v", err)
			}
			if len(res.Audio) != 44+8 {
				t.Errorf("audio length = %d", len(res.Audio))
			}
		})
	}
}

func TestSynthesizeValidation(t *testing.T) {
	s := New(config.PiperConfig{})
	if _, err := s.Synthesize(context.Background(), "  ", tts.SynthesizeOpts{}); err == nil {
		t.Error("blank text should fail")
	}
	if _, err := s.Synthesize(context.Background(), "hi", tts.SynthesizeOpts{}); err == nil {
		t.Error("missing endpoint should fail")
	}
}

func TestRoute(t *testing.T) {
	s := New(config.PiperConfig{
		Endpoint:  "default:10200",
		Endpoints: map[string]string{"FR": "tcp://french:10200"},
		Voices:    map[string]string{"de": "de_DE-custom"},
	})

	tests := []struct {
		opts         tts.SynthesizeOpts
		wantVoice    string
		wantEndpoint string
	}{
		{tts.SynthesizeOpts{Language: "fr-FR"}, "fr_FR-siwis-medium", "french:10200"},
		{tts.SynthesizeOpts{Language: "de"}, "de_DE-custom", "default:10200"},
		{tts.SynthesizeOpts{Language: "xx"}, "en_US-lessac-medium", "default:10200"},
		{tts.SynthesizeOpts{Voice: "custom"}, "custom", "default:10200"},
	}
	for _, tt := range tests {
		voice, endpoint := s.route(tt.opts)
		if voice != tt.wantVoice || endpoint != tt.wantEndpoint {
			t.Errorf("route(%+v) = %s, %s", tt.opts, voice, endpoint)
		}
	}
}

func TestPing(t *testing.T) {
	addr, _ := fakeServer(t, func(req *event, w *bufio.Writer) {
		if req.Type == "describe" {
			_ = writeEvent(w, event{Type: "info", Data: map[string]any{"tts": []any{}}})
		}
	})

	if err := New(config.PiperConfig{Endpoint: addr}).Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
	if err := New(config.PiperConfig{}).Ping(context.Background()); err == nil {
		t.Error("Ping() without endpoint should fail")
	}
}
