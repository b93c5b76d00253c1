package services

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"net/http"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	ThumbnailSize        = 200
	thumbnailJPEGQuality = 80
	downscaleJPEGQuality = 90
)

var ErrUnsupportedImage = errors.New("unsupported image type")

// AllowedImageTypes maps accepted upload MIME types to object key extensions.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// DetectImageType sniffs the content and returns its MIME type together
// with the extension used for storage keys.
func DetectImageType(data []byte) (string, string, error) {
	mimeType := http.DetectContentType(data)
	ext, ok := AllowedImageTypes[mimeType]
	if !ok {
		return mimeType, "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mimeType)
	}
	return mimeType, ext, nil
}

func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Downscale shrinks the image so that its longest side is at most maxSide.
// Images already within bounds are returned untouched. WebP has no encoder
// here, so a resized WebP comes back as JPEG.
func Downscale(data []byte, mimeType string, maxSide int) ([]byte, string, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, "", err
	}
	bounds := img.Bounds()
	if maxSide <= 0 || (bounds.Dx() <= maxSide && bounds.Dy() <= maxSide) {
		return data, mimeType, nil
	}

	resized := imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)

	var buf bytes.Buffer
	switch mimeType {
	case "image/png":
		if err := imaging.Encode(&buf, resized, imaging.PNG); err != nil {
			return nil, "", fmt.Errorf("failed to encode png: %w", err)
		}
		return buf.Bytes(), mimeType, nil
	default:
		if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(downscaleJPEGQuality)); err != nil {
			return nil, "", fmt.Errorf("failed to encode jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	}
}

// Thumbnail renders a square JPEG with the whole garment centered on a
// white background.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	background := imaging.New(ThumbnailSize, ThumbnailSize, color.White)
	fitted := imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)
	thumb := imaging.OverlayCenter(background, fitted, 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(thumbnailJPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
