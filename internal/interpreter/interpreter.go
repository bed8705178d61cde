// Package interpreter defines the interface for the remote model backends.
//
// An interpreter generates text from a prompt and an optional image, and
// transcribes recorded speech. Glass ships with three backends: Gemini
// (default), OpenAI and Local (self-hosted via Ollama/whisper).
package interpreter

import (
	"context"
)

// Image is an encoded image attached to a generation request.
type Image struct {
	Data     []byte
	MIMEType string // e.g. "image/png"
}

// GenerateOpts controls generation behavior. Zero values fall back to the
// backend's configured defaults.
type GenerateOpts struct {
	Temperature     *float32
	MaxOutputTokens int
}

// Temperature returns an option pointer for t.
func Temperature(t float32) *float32 { return &t }

// TranscribeOpts controls transcription behavior.
type TranscribeOpts struct {
	// Language is the ISO-639-1 code (e.g., "en", "fr") to guide transcription.
	Language string

	// Prompt provides context to improve recognition of domain-specific terms.
	Prompt string

	// Model overrides the default transcription model.
	Model string
}

// TranscribeResult is the output of a transcription.
type TranscribeResult struct {
	Text     string
	Language string // ISO-639-1 when the backend reports it
}

// Interpreter is the interface for generation and transcription.
type Interpreter interface {
	// Name returns the backend identifier (e.g., "gemini", "openai", "local").
	Name() string

	// Generate produces text for prompt. img may be nil.
	Generate(ctx context.Context, prompt string, img *Image, opts GenerateOpts) (string, error)

	// Transcribe converts audio bytes to text.
	Transcribe(ctx context.Context, audio []byte, contentType string, opts TranscribeOpts) (*TranscribeResult, error)

	// Close releases any resources held by the interpreter.
	Close() error
}
