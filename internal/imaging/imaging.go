// Package imaging decodes, normalizes, resizes and encodes screenshots.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	// Register decoders for standard formats.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MIMEPNG is the content type of images produced by EncodePNG.
const MIMEPNG = "image/png"

// DefaultMaxPixels bounds the decoded size of an image when the caller
// passes no limit.
const DefaultMaxPixels = 50_000_000

var (
	// ErrEmpty is returned when there is no image data to decode.
	ErrEmpty = errors.New("empty image data")

	// ErrTooLarge is returned when the image header declares more pixels
	// than the decode budget allows.
	ErrTooLarge = errors.New("image too large")
)

// DecodeBase64 decodes a base64 image of at most maxPixels pixels.
// Browser-style data URLs ("data:image/png;base64,...") are accepted as well.
func DecodeBase64(data string, maxPixels int) (image.Image, string, error) {
	data = strings.TrimSpace(data)
	if strings.HasPrefix(data, "data:") {
		if i := strings.IndexByte(data, ','); i >= 0 {
			data = data[i+1:]
		}
	}
	if data == "" {
		return nil, "", ErrEmpty
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", fmt.Errorf("decoding base64: %w", err)
	}
	return Decode(raw, maxPixels)
}

// Decode decodes raw image bytes in any registered format. The header is
// checked first; images above maxPixels (DefaultMaxPixels when <= 0) fail
// with ErrTooLarge before any pixel buffer is allocated.
func Decode(raw []byte, maxPixels int) (image.Image, string, error) {
	if len(raw) == 0 {
		return nil, "", ErrEmpty
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image header: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}
	return img, format, nil
}

// ToRGB returns img as a fully opaque NRGBA image, discarding any alpha
// channel. Images that are already opaque NRGBA are returned as is.
func ToRGB(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Opaque() {
		return n
	}

	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// Fit shrinks img to fit within maxW x maxH, preserving aspect ratio.
// Images already inside the bounds are returned unchanged.
func Fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := fitDimensions(b.Dx(), b.Dy(), maxW, maxH)
	if w == b.Dx() && h == b.Dy() {
		return img
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// fitDimensions computes the largest size within maxW x maxH that keeps the
// aspect ratio of w x h. It never enlarges.
func fitDimensions(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	// Compare w/maxW with h/maxH without floating point.
	if w*maxH >= h*maxW {
		nh := h * maxW / w
		return maxW, max(nh, 1)
	}
	nw := w * maxH / h
	return max(nw, 1), maxH
}

// EncodePNG encodes img as PNG with the best compression level.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64 returns data as standard base64 text.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
