package images

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"math"

	xdraw "golang.org/x/image/draw"
)

// MaxProviderDimension caps the longest edge of images shipped to the OCR
// and face providers; larger renders are downscaled to keep payloads small.
const MaxProviderDimension = 2000

// EncodeJPEG encodes a rasterized page as JPEG at the given quality (1-100),
// downscaling first when either edge exceeds MaxProviderDimension.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to encode")
	}

	img = ResizeToFit(img, MaxProviderDimension, MaxProviderDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	bounds := img.Bounds()
	slog.Debug("Encoded page image", "width", bounds.Dx(), "height", bounds.Dy(), "bytes", buf.Len(), "quality", quality)
	return buf.Bytes(), nil
}

// ResizeToFit scales img down to fit within maxW×maxH, keeping the aspect
// ratio. Images already within the box are returned unchanged.
func ResizeToFit(src image.Image, maxW, maxH int) image.Image {
	bw := src.Bounds().Dx()
	bh := src.Bounds().Dy()

	if maxW <= 0 && maxH <= 0 {
		return src
	}
	if maxW <= 0 {
		scale := float64(maxH) / float64(bh)
		maxW = int(math.Round(float64(bw) * scale))
	}
	if maxH <= 0 {
		scale := float64(maxW) / float64(bw)
		maxH = int(math.Round(float64(bh) * scale))
	}

	scale := math.Min(float64(maxW)/float64(bw), float64(maxH)/float64(bh))
	if scale >= 1.0 {
		return src // already small enough
	}
	w := int(math.Max(1, math.Round(float64(bw)*scale)))
	h := int(math.Max(1, math.Round(float64(bh)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// CatmullRom = high quality, good for photos/faces
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}
