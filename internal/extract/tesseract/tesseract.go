//go:build tesseract

// Package tesseract reads screen text with a local Tesseract installation.
// Building it requires the tesseract and leptonica development headers, so
// it is only compiled with -tags tesseract.
package tesseract

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Reader implements extract.TextReader using gosseract.
type Reader struct {
	languages []string

	// A gosseract client is not safe for concurrent use.
	mu sync.Mutex
}

// New creates a Tesseract reader for the given languages (e.g. "eng").
func New(languages []string) (*Reader, error) {
	return &Reader{languages: languages}, nil
}

// ReadText runs Tesseract over a PNG image.
func (r *Reader) ReadText(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	client := gosseract.NewClient()
	defer client.Close()

	if len(r.languages) > 0 {
		if err := client.SetLanguage(r.languages...); err != nil {
			return "", fmt.Errorf("setting tesseract languages: %w", err)
		}
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("loading image into tesseract: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}
