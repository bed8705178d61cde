package capture

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/nadzzz/glass/internal/config"
	"github.com/nadzzz/glass/internal/imaging"
)

type staticCapturer struct {
	img image.Image
	err error
}

func (s staticCapturer) Capture(context.Context) (image.Image, error) { return s.img, s.err }

type recordingArchiver struct {
	png  []byte
	name string
	err  error
}

func (r *recordingArchiver) Store(_ context.Context, png []byte, _ time.Time) (string, error) {
	r.png = png
	return r.name, r.err
}

func TestTakeRoundTrip(t *testing.T) {
	arch := &recordingArchiver{name: "screenshot-1.png"}
	svc := NewService(staticCapturer{img: image.NewRGBA(image.Rect(0, 0, 3840, 2160))}, arch,
		config.CaptureConfig{MaxWidth: 1920, MaxHeight: 1080})

	shot, err := svc.Take(context.Background())
	if err != nil {
		t.Fatalf("Take() error: %v", err)
	}
	if shot.Width != 1920 || shot.Height != 1080 {
		t.Errorf("size = %dx%d, want 1920x1080", shot.Width, shot.Height)
	}
	if shot.ArchivedAs != "screenshot-1.png" || len(arch.png) == 0 {
		t.Errorf("archive not called: %+v", shot)
	}

	img, format, err := imaging.DecodeBase64(shot.Base64, 0)
	if err != nil {
		t.Fatalf("screenshot must decode: %v", err)
	}
	if format != "png" || img.Bounds().Dx() != 1920 {
		t.Errorf("decoded %s %v", format, img.Bounds())
	}
}

func TestTakeArchiveFailureIsNotFatal(t *testing.T) {
	svc := NewService(staticCapturer{img: image.NewRGBA(image.Rect(0, 0, 10, 10))},
		&recordingArchiver{err: errors.New("network down")},
		config.CaptureConfig{MaxWidth: 1920, MaxHeight: 1080})

	shot, err := svc.Take(context.Background())
	if err != nil {
		t.Fatalf("Take() error: %v", err)
	}
	if shot.ArchivedAs != "" {
		t.Errorf("ArchivedAs = %q, want empty", shot.ArchivedAs)
	}
}

func TestTakeCaptureError(t *testing.T) {
	svc := NewService(staticCapturer{err: ErrNoDisplay}, nil, config.CaptureConfig{MaxWidth: 10, MaxHeight: 10})
	if _, err := svc.Take(context.Background()); !errors.Is(err, ErrNoDisplay) {
		t.Errorf("Take() error = %v, want ErrNoDisplay", err)
	}
}
