// Package gemini implements the Interpreter interface using Google's Gemini
// API through the generative-ai-go SDK.
//
// Gemini is multimodal, so one model serves generation, screen OCR and
// speech transcription: images and audio are sent as inline blobs next to
// the text prompt.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/nadzzz/glass/internal/config"
	"github.com/nadzzz/glass/internal/interpreter"
)

const transcribeInstruction = "Transcribe the speech in this audio recording verbatim. " +
	"Return only the transcript. If there is no intelligible speech, return an empty response."

// ErrNoAPIKey is returned by New when no API key is configured.
var ErrNoAPIKey = errors.New("gemini: missing API key (set GEMINI_API_KEY or GOOGLE_API_KEY)")

// Interpreter calls the Gemini API.
type Interpreter struct {
	client             *genai.Client
	model              string
	transcriptionModel string
	temperature        float32
	maxOutputTokens    int
	topP               float32
	topK               int32
}

// New creates a Gemini interpreter from config.
func New(ctx context.Context, cfg config.InterpreterConfig) (*Interpreter, error) {
	gc := cfg.Gemini
	if strings.TrimSpace(gc.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(gc.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}

	tm := gc.TranscriptionModel
	if tm == "" {
		tm = gc.Model
	}
	return &Interpreter{
		client:             client,
		model:              gc.Model,
		transcriptionModel: tm,
		temperature:        cfg.Temperature,
		maxOutputTokens:    cfg.MaxOutputTokens,
		topP:               gc.TopP,
		topK:               gc.TopK,
	}, nil
}

// Name returns the backend identifier.
func (i *Interpreter) Name() string { return "gemini" }

// Generate sends prompt, and img when present, to the generation model.
func (i *Interpreter) Generate(ctx context.Context, prompt string, img *interpreter.Image, opts interpreter.GenerateOpts) (string, error) {
	model := i.client.GenerativeModel(i.model)
	i.configure(model, opts)

	parts := []genai.Part{genai.Text(prompt)}
	if img != nil && len(img.Data) > 0 {
		parts = append(parts, genai.Blob{MIMEType: img.MIMEType, Data: img.Data})
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := responseText(resp)
	slog.Debug("gemini generation complete", "model", i.model, "has_image", img != nil, "text_length", len(text))
	return text, nil
}

// Transcribe sends audio as an inline blob and asks the model for a transcript.
func (i *Interpreter) Transcribe(ctx context.Context, audio []byte, contentType string, opts interpreter.TranscribeOpts) (*interpreter.TranscribeResult, error) {
	name := i.transcriptionModel
	if opts.Model != "" {
		name = opts.Model
	}
	model := i.client.GenerativeModel(name)
	model.SetTemperature(0)

	instruction := transcribeInstruction
	if opts.Language != "" {
		instruction += fmt.Sprintf(" The speaker is expected to use language %q.", opts.Language)
	}
	if opts.Prompt != "" {
		instruction += " Context: " + opts.Prompt
	}
	if contentType == "" {
		contentType = "audio/wav"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(instruction), genai.Blob{MIMEType: contentType, Data: audio})
	if err != nil {
		return nil, fmt.Errorf("gemini transcribe: %w", err)
	}

	text := responseText(resp)
	slog.Debug("gemini transcription complete", "text_length", len(text))
	return &interpreter.TranscribeResult{Text: text, Language: baseLanguage(opts.Language)}, nil
}

// Close releases the underlying client.
func (i *Interpreter) Close() error { return i.client.Close() }

func (i *Interpreter) configure(model *genai.GenerativeModel, opts interpreter.GenerateOpts) {
	temp := i.temperature
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}
	maxTokens := i.maxOutputTokens
	if opts.MaxOutputTokens > 0 {
		maxTokens = opts.MaxOutputTokens
	}

	model.SetTemperature(temp)
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}
	if i.topP > 0 {
		model.SetTopP(i.topP)
	}
	if i.topK > 0 {
		model.SetTopK(i.topK)
	}
	model.SetCandidateCount(1)
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

// baseLanguage reduces a locale such as "en-US" to "en".
func baseLanguage(lang string) string {
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return strings.ToLower(lang)
}
