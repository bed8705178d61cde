// Package local implements the Interpreter interface using self-hosted models.
//
// Generation goes through an Ollama server with a vision-capable model
// (e.g., llava); screenshots are passed natively as images. Transcription
// uses any Whisper-compatible endpoint (whisper.cpp server, faster-whisper,
// or ahmetoner/whisper-asr-webservice).
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/nadzzz/glass/internal/audio"
	"github.com/nadzzz/glass/internal/config"
	"github.com/nadzzz/glass/internal/interpreter"
)

// Interpreter uses self-hosted models for generation and transcription.
type Interpreter struct {
	ollama          *api.Client
	llmModel        string
	temperature     float32
	maxOutputTokens int

	whisperEndpoint string
	whisperType     string // "openai" or "asr"
	vadFilter       bool
	defaultLanguage string
	client          *http.Client
}

// New creates a new local interpreter from config.
func New(cfg config.InterpreterConfig) (*Interpreter, error) {
	lc := cfg.Local
	host := lc.OllamaHost
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}

	wt := lc.WhisperType
	if wt == "" {
		wt = "openai"
	}
	model := lc.LLMModel
	if model == "" {
		model = "llava"
	}
	client := &http.Client{Timeout: cfg.Timeout}
	return &Interpreter{
		ollama:          api.NewClient(u, client),
		llmModel:        model,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
		whisperEndpoint: lc.WhisperEndpoint,
		whisperType:     wt,
		vadFilter:       lc.VADFilter,
		defaultLanguage: lc.Language,
		client:          client,
	}, nil
}

// Name returns the backend identifier.
func (i *Interpreter) Name() string { return "local" }

// Generate runs a non-streaming Ollama generation.
func (i *Interpreter) Generate(ctx context.Context, prompt string, img *interpreter.Image, opts interpreter.GenerateOpts) (string, error) {
	temp := i.temperature
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}
	maxTokens := i.maxOutputTokens
	if opts.MaxOutputTokens > 0 {
		maxTokens = opts.MaxOutputTokens
	}

	stream := false
	req := &api.GenerateRequest{
		Model:  i.llmModel,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]any{
			"temperature": temp,
		},
	}
	if maxTokens > 0 {
		req.Options["num_predict"] = maxTokens
	}
	if img != nil && len(img.Data) > 0 {
		req.Images = []api.ImageData{img.Data}
	}

	var text strings.Builder
	err := i.ollama.Generate(ctx, req, func(gr api.GenerateResponse) error {
		text.WriteString(gr.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("local LLM request: %w", err)
	}

	slog.Debug("local generation complete", "model", i.llmModel, "has_image", img != nil, "text_length", text.Len())
	return text.String(), nil
}

// Transcribe sends audio to the local Whisper-compatible endpoint.
// Supports two flavors:
//   - "openai": OpenAI-compatible API (whisper.cpp server, faster-whisper)
//   - "asr":    ahmetoner/whisper-asr-webservice (POST /asr with query params)
func (i *Interpreter) Transcribe(ctx context.Context, data []byte, contentType string, opts interpreter.TranscribeOpts) (*interpreter.TranscribeResult, error) {
	if i.whisperEndpoint == "" {
		return nil, fmt.Errorf("no whisper endpoint configured")
	}
	lang := opts.Language
	if lang == "" {
		lang = i.defaultLanguage
	}
	lang = baseLanguage(lang)

	switch i.whisperType {
	case "asr":
		return i.transcribeASR(ctx, data, contentType, lang, opts)
	default:
		return i.transcribeOpenAI(ctx, data, contentType, lang, opts)
	}
}

// transcribeASR handles the ahmetoner/whisper-asr-webservice format.
// API: POST /asr?task=transcribe&language=en&output=json&vad_filter=true
// Body: multipart/form-data with field "audio_file"
func (i *Interpreter) transcribeASR(ctx context.Context, data []byte, contentType, lang string, opts interpreter.TranscribeOpts) (*interpreter.TranscribeResult, error) {
	body, formType, err := multipartAudio("audio_file", data, contentType, nil)
	if err != nil {
		return nil, err
	}

	q := make(url.Values)
	q.Set("task", "transcribe")
	q.Set("output", "json")
	q.Set("encode", "true")
	if lang != "" {
		q.Set("language", lang)
	}
	if opts.Prompt != "" {
		q.Set("initial_prompt", opts.Prompt)
	}
	if i.vadFilter {
		q.Set("vad_filter", "true")
	}

	reqURL := i.whisperEndpoint + "?" + q.Encode()
	slog.Debug("whisper-asr request", "url", reqURL)
	return i.postTranscription(ctx, reqURL, body, formType)
}

// transcribeOpenAI handles OpenAI-compatible whisper endpoints.
func (i *Interpreter) transcribeOpenAI(ctx context.Context, data []byte, contentType, lang string, opts interpreter.TranscribeOpts) (*interpreter.TranscribeResult, error) {
	fields := map[string]string{"response_format": "verbose_json"}
	if opts.Model != "" {
		fields["model"] = opts.Model
	}
	if lang != "" {
		fields["language"] = lang
	}
	if opts.Prompt != "" {
		fields["prompt"] = opts.Prompt
	}

	body, formType, err := multipartAudio("file", data, contentType, fields)
	if err != nil {
		return nil, err
	}
	return i.postTranscription(ctx, i.whisperEndpoint, body, formType)
}

func (i *Interpreter) postTranscription(ctx context.Context, endpoint string, body io.Reader, formType string) (*interpreter.TranscribeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", formType)

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("local transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("local transcription failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding transcription: %w", err)
	}

	text := strings.TrimSpace(result.Text)
	slog.Debug("local transcription complete", "text_length", len(text), "language", result.Language)
	return &interpreter.TranscribeResult{
		Text:     text,
		Language: result.Language,
	}, nil
}

// Close is a no-op for the local interpreter.
func (i *Interpreter) Close() error { return nil }

// multipartAudio builds a multipart body with the audio under fileField and
// the given extra fields.
func multipartAudio(fileField string, data []byte, contentType string, fields map[string]string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(fileField, "audio"+audio.ExtFromContentType(contentType))
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("writing audio: %w", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func baseLanguage(lang string) string {
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return strings.ToLower(lang)
}
