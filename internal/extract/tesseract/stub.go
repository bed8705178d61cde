//go:build !tesseract

// Package tesseract reads screen text with a local Tesseract installation.
// This build was compiled without -tags tesseract.
package tesseract

import (
	"context"
	"errors"
)

// ErrNotBuilt is returned when the binary was built without Tesseract support.
var ErrNotBuilt = errors.New("tesseract support not compiled in (build with -tags tesseract)")

// Reader is unavailable in this build.
type Reader struct{}

// New always fails in this build.
func New(languages []string) (*Reader, error) {
	return nil, ErrNotBuilt
}

// ReadText always fails in this build.
func (r *Reader) ReadText(ctx context.Context, png []byte) (string, error) {
	return "", ErrNotBuilt
}
