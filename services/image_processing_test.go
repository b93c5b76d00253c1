package services

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

func pngFixture(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDetectImageType(t *testing.T) {
	mimeType, ext, err := DetectImageType(pngFixture(t, 4, 4))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, ".png", ext)

	_, _, err = DetectImageType([]byte("plain text is not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestDownscaleKeepsSmallImages(t *testing.T) {
	data := pngFixture(t, 40, 20)
	out, mimeType, err := Downscale(data, "image/png", 1920)
	require.NoError(t, err)
	assert.Equal(t, data, out)
	assert.Equal(t, "image/png", mimeType)
}

func TestDownscaleFitsLongestSide(t *testing.T) {
	data := pngFixture(t, 300, 150)
	out, mimeType, err := Downscale(data, "image/png", 100)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestThumbnailIsSquareJPEG(t *testing.T) {
	thumb, err := Thumbnail(pngFixture(t, 400, 100))
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, ThumbnailSize, img.Bounds().Dx())
	assert.Equal(t, ThumbnailSize, img.Bounds().Dy())

	// the wide fixture leaves the top rows as background
	r, g, b, _ := img.At(ThumbnailSize/2, 2).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	_, err := Thumbnail([]byte("nope"))
	assert.Error(t, err)
}
