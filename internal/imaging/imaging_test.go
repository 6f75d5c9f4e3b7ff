package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 128, 0, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessJPEG(t *testing.T) {
	result, err := Process(bytes.NewReader(testJPEG(t, 100, 100)))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", result.MIME)
	assert.NotEmpty(t, result.Data)
}

func TestProcessPNGConvertedToJPEG(t *testing.T) {
	result, err := Process(bytes.NewReader(testPNG(t, 100, 100)))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", result.MIME)
}

func TestProcessDownscalesLargePhoto(t *testing.T) {
	result, err := Process(bytes.NewReader(testJPEG(t, 2048, 1024)))
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.LessOrEqual(t, bounds.Dx(), MaxDimension)
	assert.LessOrEqual(t, bounds.Dy(), MaxDimension)
	// Aspect ratio preserved.
	assert.Equal(t, MaxDimension, bounds.Dx())
	assert.Equal(t, MaxDimension/2, bounds.Dy())
}

func TestProcessSmallPhotoNotUpscaled(t *testing.T) {
	result, err := Process(bytes.NewReader(testJPEG(t, 50, 50)))
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestProcessRejectsNonImage(t *testing.T) {
	_, err := Process(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestProcessRejectsGIF(t *testing.T) {
	_, err := Process(bytes.NewReader([]byte("GIF89a...")))
	assert.Error(t, err)
}
