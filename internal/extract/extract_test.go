package extract

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nadzzz/glass/internal/imaging"
	"github.com/nadzzz/glass/internal/interpreter"
	"github.com/nadzzz/glass/internal/prompt"
)

type readerFunc func(ctx context.Context, png []byte) (string, error)

func (f readerFunc) ReadText(ctx context.Context, png []byte) (string, error) { return f(ctx, png) }

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

func TestExtractOutcomes(t *testing.T) {
	boom := errors.New("connection refused")

	tests := []struct {
		name     string
		text     string
		err      error
		wantKind Kind
		wantStr  string
	}{
		{"found", "  hello world \n", nil, Found, "hello world"},
		{"empty", "", nil, NotFound, prompt.NoTextFound},
		{"whitespace", " \n\t", nil, NotFound, prompt.NoTextFound},
		{"sentinel", prompt.NoTextFound + "\n", nil, NotFound, prompt.NoTextFound},
		{"error", "", boom, Failed, "Error extracting text: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(readerFunc(func(context.Context, []byte) (string, error) {
				return tt.text, tt.err
			}))

			got := e.Extract(context.Background(), pngBytes)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.String() != tt.wantStr {
				t.Errorf("String() = %q, want %q", got.String(), tt.wantStr)
			}
			if tt.err != nil && !errors.Is(got.Err, tt.err) {
				t.Errorf("Err = %v, want %v", got.Err, tt.err)
			}
		})
	}
}

func TestExtractPassesPNGThrough(t *testing.T) {
	var sent []byte
	e := New(readerFunc(func(_ context.Context, data []byte) (string, error) {
		sent = data
		return "x", nil
	}))
	e.Extract(context.Background(), pngBytes)

	if !bytes.Equal(sent, pngBytes) {
		t.Errorf("reader got %q, want the caller's PNG", sent)
	}
}

func TestExtractEmptyImage(t *testing.T) {
	called := false
	e := New(readerFunc(func(context.Context, []byte) (string, error) {
		called = true
		return "x", nil
	}))

	got := e.Extract(context.Background(), nil)
	if got.Kind != Failed || !errors.Is(got.Err, imaging.ErrEmpty) {
		t.Errorf("Extract(nil) = %+v, want Failed with ErrEmpty", got)
	}
	if called {
		t.Error("reader must not be called without an image")
	}
}

type fakeInterpreter struct {
	prompt string
	img    *interpreter.Image
	opts   interpreter.GenerateOpts
}

func (f *fakeInterpreter) Name() string { return "fake" }

func (f *fakeInterpreter) Generate(_ context.Context, p string, img *interpreter.Image, opts interpreter.GenerateOpts) (string, error) {
	f.prompt, f.img, f.opts = p, img, opts
	return "text", nil
}

func (f *fakeInterpreter) Transcribe(context.Context, []byte, string, interpreter.TranscribeOpts) (*interpreter.TranscribeResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeInterpreter) Close() error { return nil }

func TestModelReader(t *testing.T) {
	fake := &fakeInterpreter{}
	r := NewModelReader(fake)

	if _, err := r.ReadText(context.Background(), []byte("png")); err != nil {
		t.Fatalf("ReadText() error: %v", err)
	}
	if !strings.Contains(fake.prompt, prompt.NoTextFound) {
		t.Errorf("OCR instruction should name the sentinel: %q", fake.prompt)
	}
	if fake.img == nil || fake.img.MIMEType != "image/png" {
		t.Errorf("image = %+v", fake.img)
	}
	if fake.opts.Temperature == nil || *fake.opts.Temperature != 0.1 {
		t.Errorf("temperature = %v, want 0.1", fake.opts.Temperature)
	}
}

func TestKindString(t *testing.T) {
	if Found.String() != "found" || NotFound.String() != "not_found" || Failed.String() != "failed" {
		t.Error("unexpected kind names")
	}
}
