package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func TestEncodeJPEG_ProducesDecodableImage(t *testing.T) {
	data, err := EncodeJPEG(testImage(120, 80), 75)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 120, decoded.Bounds().Dx())
	require.Equal(t, 80, decoded.Bounds().Dy())
}

func TestEncodeJPEG_NilImage(t *testing.T) {
	_, err := EncodeJPEG(nil, 75)
	require.Error(t, err)
}

func TestEncodeJPEG_DownscalesOversizedImages(t *testing.T) {
	data, err := EncodeJPEG(testImage(MaxProviderDimension*2, 100), 75)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.LessOrEqual(t, decoded.Bounds().Dx(), MaxProviderDimension)
}

func TestResizeToFit_KeepsAspectRatio(t *testing.T) {
	resized := ResizeToFit(testImage(400, 200), 100, 100)
	require.Equal(t, 100, resized.Bounds().Dx())
	require.Equal(t, 50, resized.Bounds().Dy())
}

func TestResizeToFit_SmallImageUnchanged(t *testing.T) {
	src := testImage(50, 40)
	resized := ResizeToFit(src, 100, 100)
	require.Equal(t, src.Bounds(), resized.Bounds())
}
