// Package artifact – image compression
//
// The provider returns arbitrarily large PNG or JPEG bytes. Before an image
// is cacheable it is re-encoded into a derivative bounded to 1024×1024
// (aspect preserved, never upscaled) at a fixed JPEG quality, trading
// fidelity for transfer size. The step is pure: no I/O, no external calls.
package artifact

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Compression bounds and quality target.
const (
	MaxDimension = 1024
	JPEGQuality  = 82
)

// Compress re-encodes src into the bounded JPEG derivative. The input must
// be a decodable image; the error is the caller's cue to fall back to the
// original bytes (with a logged warning) rather than failing the generation.
func Compress(src []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img = bound(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// bound shrinks img to fit MaxDimension×MaxDimension, preserving aspect
// ratio. Images already inside the bound pass through untouched so small
// inputs are never upscaled.
func bound(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= MaxDimension && b.Dy() <= MaxDimension {
		return img
	}
	return imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
}
