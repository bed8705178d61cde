// Package openai implements the Interpreter interface using OpenAI's APIs.
//
// It uses the Chat Completions API (with image parts for screenshots) for
// generation, and the Audio Transcription API (Whisper) for speech-to-text.
// Any OpenAI-compatible server can be targeted through base_url.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nadzzz/glass/internal/audio"
	"github.com/nadzzz/glass/internal/config"
	"github.com/nadzzz/glass/internal/interpreter"
)

// Interpreter uses OpenAI APIs for generation and transcription.
type Interpreter struct {
	client             *goopenai.Client
	transcriptionModel string
	completionModel    string
	temperature        float32
	maxOutputTokens    int
}

// New creates a new OpenAI interpreter from config.
func New(cfg config.InterpreterConfig) *Interpreter {
	oc := cfg.OpenAI
	clientCfg := goopenai.DefaultConfig(oc.APIKey)
	if oc.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(oc.BaseURL, "/")
	}
	return &Interpreter{
		client:             goopenai.NewClientWithConfig(clientCfg),
		transcriptionModel: oc.TranscriptionModel,
		completionModel:    oc.CompletionModel,
		temperature:        cfg.Temperature,
		maxOutputTokens:    cfg.MaxOutputTokens,
	}
}

// Name returns the backend identifier.
func (i *Interpreter) Name() string { return "openai" }

// Generate sends the prompt, and the image as a data URL part when present,
// to the Chat Completions API.
func (i *Interpreter) Generate(ctx context.Context, prompt string, img *interpreter.Image, opts interpreter.GenerateOpts) (string, error) {
	msg := goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser}
	if img != nil && len(img.Data) > 0 {
		dataURL := fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))
		msg.MultiContent = []goopenai.ChatMessagePart{
			{Type: goopenai.ChatMessagePartTypeText, Text: prompt},
			{
				Type: goopenai.ChatMessagePartTypeImageURL,
				ImageURL: &goopenai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: goopenai.ImageURLDetailAuto,
				},
			},
		}
	} else {
		msg.Content = prompt
	}

	req := goopenai.ChatCompletionRequest{
		Model:       i.completionModel,
		Messages:    []goopenai.ChatCompletionMessage{msg},
		Temperature: i.temperature,
		MaxTokens:   i.maxOutputTokens,
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.MaxOutputTokens > 0 {
		req.MaxTokens = opts.MaxOutputTokens
	}

	resp, err := i.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned from chat API")
	}

	content := resp.Choices[0].Message.Content
	slog.Debug("chat completion complete", "model", i.completionModel, "has_image", img != nil, "text_length", len(content))
	return content, nil
}

// Transcribe sends audio to the OpenAI Transcription API.
func (i *Interpreter) Transcribe(ctx context.Context, data []byte, contentType string, opts interpreter.TranscribeOpts) (*interpreter.TranscribeResult, error) {
	model := i.transcriptionModel
	if opts.Model != "" {
		model = opts.Model
	}

	resp, err := i.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    model,
		FilePath: "audio" + audio.ExtFromContentType(contentType),
		Reader:   bytes.NewReader(data),
		Language: baseLanguage(opts.Language),
		Prompt:   opts.Prompt,
		Format:   goopenai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}

	// OpenAI returns full language names ("english"); normalise to ISO-639-1.
	lang := normalizeLanguage(resp.Language)

	slog.Debug("transcription complete", "text_length", len(resp.Text), "language", lang)
	return &interpreter.TranscribeResult{
		Text:     resp.Text,
		Language: lang,
	}, nil
}

// Close is a no-op for the OpenAI interpreter.
func (i *Interpreter) Close() error { return nil }

// baseLanguage reduces a locale such as "en-US" to the ISO-639-1 code the
// transcription API expects.
func baseLanguage(lang string) string {
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return strings.ToLower(lang)
}

// normalizeLanguage converts full language names (as returned by OpenAI) to ISO-639-1 codes.
func normalizeLanguage(lang string) string {
	if len(lang) == 2 {
		return strings.ToLower(lang)
	}
	known := map[string]string{
		"english":    "en",
		"french":     "fr",
		"spanish":    "es",
		"german":     "de",
		"italian":    "it",
		"portuguese": "pt",
		"dutch":      "nl",
		"polish":     "pl",
		"russian":    "ru",
		"japanese":   "ja",
		"korean":     "ko",
		"chinese":    "zh",
		"arabic":     "ar",
		"hindi":      "hi",
		"turkish":    "tr",
	}
	if code, ok := known[strings.ToLower(lang)]; ok {
		return code
	}
	return strings.ToLower(lang)
}
