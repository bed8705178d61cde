// Package capture takes screenshots of the local display.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/kbinani/screenshot"

	"github.com/nadzzz/glass/internal/archive"
	"github.com/nadzzz/glass/internal/config"
	"github.com/nadzzz/glass/internal/imaging"
)

// ErrNoDisplay is returned when no active display can be captured.
var ErrNoDisplay = errors.New("no active display")

// Capturer grabs the current screen contents.
type Capturer interface {
	Capture(ctx context.Context) (image.Image, error)
}

// Display captures one display through the OS screenshot APIs.
type Display struct {
	index int
}

// NewDisplay creates a Capturer for display index (0 is the primary display).
func NewDisplay(index int) *Display {
	return &Display{index: index}
}

// Capture grabs the whole display.
func (d *Display) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, ErrNoDisplay
	}
	if d.index < 0 || d.index >= n {
		return nil, fmt.Errorf("display %d out of range (%d active)", d.index, n)
	}
	img, err := screenshot.CaptureDisplay(d.index)
	if err != nil {
		return nil, fmt.Errorf("capturing display %d: %w", d.index, err)
	}
	return img, nil
}

// Shot is an encoded screenshot ready to be returned to a client.
type Shot struct {
	Base64     string
	Width      int
	Height     int
	TakenAt    time.Time
	ArchivedAs string // blob name when archiving succeeded
}

// Service captures, downscales, encodes and optionally archives screenshots.
type Service struct {
	capturer  Capturer
	archiver  archive.Archiver
	maxWidth  int
	maxHeight int
	now       func() time.Time
}

// NewService creates a Service. archiver may be nil.
func NewService(c Capturer, archiver archive.Archiver, cfg config.CaptureConfig) *Service {
	if archiver == nil {
		archiver = archive.Nop{}
	}
	return &Service{
		capturer:  c,
		archiver:  archiver,
		maxWidth:  cfg.MaxWidth,
		maxHeight: cfg.MaxHeight,
		now:       time.Now,
	}
}

// Take captures the screen and returns it as base64 PNG. Archive failures
// are logged and do not fail the capture.
func (s *Service) Take(ctx context.Context) (*Shot, error) {
	img, err := s.capturer.Capture(ctx)
	if err != nil {
		return nil, err
	}
	takenAt := s.now()

	fitted := imaging.ToRGB(imaging.Fit(img, s.maxWidth, s.maxHeight))
	png, err := imaging.EncodePNG(fitted)
	if err != nil {
		return nil, err
	}

	shot := &Shot{
		Base64:  imaging.EncodeBase64(png),
		Width:   fitted.Bounds().Dx(),
		Height:  fitted.Bounds().Dy(),
		TakenAt: takenAt,
	}

	name, err := s.archiver.Store(ctx, png, takenAt)
	if err != nil {
		slog.Warn("screenshot archive failed", "error", err)
	} else {
		shot.ArchivedAs = name
	}

	slog.Debug("screenshot captured", "width", shot.Width, "height", shot.Height, "png_bytes", len(png))
	return shot, nil
}
