// Package assistant implements the request orchestrator.
//
// An Assistant receives an AskRequest from a transport, runs it through the
// pipeline (decode screenshot → extract text → compose prompt → generate →
// format), and always returns a Result. Failures never escape as Go errors
// or panics; they become failure results with a human-readable message.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/nadzzz/glass/internal/apperr"
	"github.com/nadzzz/glass/internal/extract"
	"github.com/nadzzz/glass/internal/imaging"
	"github.com/nadzzz/glass/internal/interpreter"
	"github.com/nadzzz/glass/internal/message"
	"github.com/nadzzz/glass/internal/prompt"
	"github.com/nadzzz/glass/internal/response"
)

const (
	// ErrNoResponse is the failure message for an empty model response.
	ErrNoResponse = "No response generated from AI model"

	failurePrefix = "AI processing failed: "
)

// ErrModelNotConfigured is reported when no generation backend is available.
var ErrModelNotConfigured = apperr.Unavailable("AI model not configured", nil)

// Options configures an Assistant.
type Options struct {
	// Timeout bounds each remote call (text extraction and generation).
	Timeout time.Duration

	// MaxWidth and MaxHeight bound the image sent to the model.
	MaxWidth, MaxHeight int

	// MaxPixels bounds the decoded size of a posted screenshot.
	MaxPixels int
}

// Assistant is the request orchestrator. It owns the process-wide request
// counter and start time.
type Assistant struct {
	interp    interpreter.Interpreter // nil when no backend is configured
	extractor *extract.Extractor
	opts      Options

	requests atomic.Int64
	started  time.Time
	now      func() time.Time
}

// New creates an Assistant. interp may be nil, in which case every request
// fails with a "not configured" result. extractor may be nil to skip OCR.
func New(interp interpreter.Interpreter, extractor *extract.Extractor, opts Options) *Assistant {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxWidth <= 0 || opts.MaxHeight <= 0 {
		opts.MaxWidth, opts.MaxHeight = 1920, 1080
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = imaging.DefaultMaxPixels
	}
	return &Assistant{
		interp:    interp,
		extractor: extractor,
		opts:      opts,
		started:   time.Now(),
		now:       time.Now,
	}
}

// Handle processes a single request through the full pipeline.
func (a *Assistant) Handle(ctx context.Context, req message.AskRequest) (res *message.Result) {
	start := a.now()
	id := a.requests.Add(1)
	logger := slog.With("request_id", id)

	meta := message.Metadata{
		RequestID:     id,
		HasScreenshot: req.HasScreenshot(),
		HasContext:    req.HasContext(),
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("assistant panic", "panic", r)
			res = a.failure(start, meta, failurePrefix+fmt.Sprint(r))
		}
	}()

	logger.Info("ask started", "has_screenshot", meta.HasScreenshot, "has_context", meta.HasContext, "mode", req.Mode)

	if a.interp == nil {
		return a.failure(start, meta, failurePrefix+ErrModelNotConfigured.Error())
	}

	in := prompt.Input{
		Query:           req.Query,
		PersonalContext: req.PersonalContext,
	}

	// Step 1: Decode and read the screenshot (if present).
	var img *interpreter.Image
	if meta.HasScreenshot {
		decoded, _, err := imaging.DecodeBase64(req.ScreenshotData, a.opts.MaxPixels)
		if err != nil {
			logger.Warn("screenshot decode failed, continuing text-only", "error", err, "too_large", errors.Is(err, imaging.ErrTooLarge))
			in.ImageIssue = true
		} else {
			png, outcome, err := a.readScreenshot(ctx, decoded)
			if err != nil {
				return a.failure(start, meta, failurePrefix+err.Error())
			}
			img = &interpreter.Image{Data: png, MIMEType: imaging.MIMEPNG}
			in.HasImage = true

			if outcome != nil {
				meta.Extraction = outcome.Kind.String()
				meta.ExtractedTextLength = utf8.RuneCountInString(outcome.String())
				if outcome.Kind == extract.Found {
					in.ExtractedText = outcome.Text
				}
				logger.Debug("text extraction complete", "outcome", outcome.Kind, "length", meta.ExtractedTextLength)
			}
		}
	}

	// Step 2: Compose and generate.
	p := prompt.Compose(in)
	genCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	raw, err := a.interp.Generate(genCtx, p, img, interpreter.GenerateOpts{})
	if err != nil {
		logger.Error("generation failed", "error", err)
		return a.failure(start, meta, failurePrefix+a.errorMessage(err))
	}
	if strings.TrimSpace(raw) == "" {
		logger.Warn("empty model response")
		return a.failure(start, meta, ErrNoResponse)
	}

	// Step 3: Format.
	meta.ProcessingTime = a.elapsed(start)
	logger.Info("ask complete", "processing_time", meta.ProcessingTime, "response_length", len(raw))
	return &message.Result{
		Success:   true,
		Response:  raw,
		Formatted: response.Format(raw, req.Mode),
		Metadata:  meta,
	}
}

// readScreenshot normalizes img, runs text extraction and returns the PNG
// to attach to the generation request. The outcome is nil when no
// extractor is configured.
func (a *Assistant) readScreenshot(ctx context.Context, img image.Image) ([]byte, *extract.Outcome, error) {
	rgb := imaging.ToRGB(imaging.Fit(img, a.opts.MaxWidth, a.opts.MaxHeight))
	png, err := imaging.EncodePNG(rgb)
	if err != nil {
		return nil, nil, err
	}
	if a.extractor == nil {
		return png, nil, nil
	}

	ocrCtx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()
	outcome := a.extractor.Extract(ocrCtx, png)
	return png, &outcome, nil
}

func (a *Assistant) failure(start time.Time, meta message.Metadata, msg string) *message.Result {
	meta.ProcessingTime = a.elapsed(start)
	return &message.Result{
		Success:  false,
		Error:    msg,
		Metadata: meta,
	}
}

func (a *Assistant) elapsed(start time.Time) float64 {
	return math.Round(a.now().Sub(start).Seconds()*1000) / 1000
}

func (a *Assistant) errorMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("request timed out after %s", a.opts.Timeout)
	}
	return err.Error()
}

// Stats reports uptime and request counters. Device availability is filled
// in by the caller.
func (a *Assistant) Stats() message.Stats {
	uptime := a.now().Sub(a.started)
	total := a.requests.Load()
	hours := math.Max(uptime.Hours(), 1)

	s := message.Stats{
		UptimeSeconds:      uptime.Seconds(),
		TotalRequests:      total,
		AvgRequestsPerHour: float64(total) / hours,
		ModelConfigured:    a.interp != nil,
	}
	if a.interp != nil {
		s.ModelBackend = a.interp.Name()
	}
	return s
}
