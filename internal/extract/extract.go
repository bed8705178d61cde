// Package extract turns a screenshot into the text visible on it.
//
// The result is a tagged Outcome rather than a string: callers switch on
// Kind, and String renders the legacy text for logs and metadata.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nadzzz/glass/internal/imaging"
	"github.com/nadzzz/glass/internal/interpreter"
	"github.com/nadzzz/glass/internal/prompt"
)

// Kind tags an extraction outcome.
type Kind int

const (
	// Found means text was extracted.
	Found Kind = iota
	// NotFound means the image holds no readable text.
	NotFound
	// Failed means the reader could not be reached or returned an error.
	Failed
)

func (k Kind) String() string {
	switch k {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the result of a text extraction.
type Outcome struct {
	Kind Kind
	Text string // set when Kind == Found
	Err  error  // set when Kind == Failed
}

// String renders the outcome the way it has always been shown to users.
func (o Outcome) String() string {
	switch o.Kind {
	case Found:
		return o.Text
	case NotFound:
		return prompt.NoTextFound
	default:
		msg := "unknown error"
		if o.Err != nil {
			msg = o.Err.Error()
		}
		return "Error extracting text: " + msg
	}
}

// TextReader reads text from a PNG image.
type TextReader interface {
	ReadText(ctx context.Context, png []byte) (string, error)
}

// Extractor hands PNG screenshots to a TextReader and classifies the reply.
type Extractor struct {
	reader TextReader
}

// New creates an Extractor backed by r.
func New(r TextReader) *Extractor {
	return &Extractor{reader: r}
}

// Extract reads the text in an opaque PNG image. It never returns an
// error; failures are reported through a Failed outcome.
func (e *Extractor) Extract(ctx context.Context, png []byte) Outcome {
	if len(png) == 0 {
		return Outcome{Kind: Failed, Err: imaging.ErrEmpty}
	}

	text, err := e.reader.ReadText(ctx, png)
	if err != nil {
		slog.Warn("text extraction failed", "error", err)
		return Outcome{Kind: Failed, Err: err}
	}
	return classify(text)
}

func classify(text string) Outcome {
	text = strings.TrimSpace(text)
	if text == "" || text == prompt.NoTextFound {
		return Outcome{Kind: NotFound}
	}
	return Outcome{Kind: Found, Text: text}
}

// ocrInstruction asks a vision model for a verbatim transcription.
const ocrInstruction = "Extract all visible text from this image. " +
	"Preserve the original structure and line breaks as closely as possible. " +
	"Return only the extracted text without any commentary. " +
	"If no text is visible, return exactly: " + prompt.NoTextFound

// ocrTemperature keeps the model close to a literal transcription.
const ocrTemperature = 0.1

// ModelReader uses a multimodal model as the OCR engine.
type ModelReader struct {
	interp interpreter.Interpreter
}

// NewModelReader creates a TextReader backed by interp.
func NewModelReader(interp interpreter.Interpreter) *ModelReader {
	return &ModelReader{interp: interp}
}

// ReadText sends the image with the OCR instruction.
func (m *ModelReader) ReadText(ctx context.Context, png []byte) (string, error) {
	img := &interpreter.Image{Data: png, MIMEType: imaging.MIMEPNG}
	return m.interp.Generate(ctx, ocrInstruction, img, interpreter.GenerateOpts{
		Temperature: interpreter.Temperature(ocrTemperature),
	})
}
