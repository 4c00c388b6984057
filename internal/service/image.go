package service

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
)

const (
	// DefaultMaxImageBytes caps profile image uploads when no limit is set.
	DefaultMaxImageBytes int64 = 5 << 20
	// DefaultMaxImageDimension bounds the stored avatar's width and height.
	DefaultMaxImageDimension = 512
	DefaultJPEGQuality       = 85

	// maxImagePixels rejects images whose header declares more pixels
	// than this before any pixel data is decoded.
	maxImagePixels = 40_000_000

	msgTooLarge = "is too large"
)

// allowedImageTypes are the declared content types accepted for upload.
// The bytes must also decode as an image.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ImageOptions controls how profile images are validated and stored.
type ImageOptions struct {
	MaxBytes     int64
	MaxDimension int
	JPEGQuality  int
}

func (o ImageOptions) withDefaults() ImageOptions {
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxImageBytes
	}
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxImageDimension
	}
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		o.JPEGQuality = DefaultJPEGQuality
	}
	return o
}

// processedImage is an upload re-encoded for storage.
type processedImage struct {
	data          []byte
	width, height int
}

const (
	processedImageType = "image/jpeg"
	processedImageExt  = ".jpg"
)

// processImage decodes the upload, fits it within MaxDimension and
// re-encodes it as JPEG. Anything that does not decode is invalid.
func processImage(upload *domain.ImageUpload, opts ImageOptions) (*processedImage, error) {
	contentType := strings.ToLower(strings.TrimSpace(upload.ContentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if !allowedImageTypes[contentType] || upload.Content == nil {
		return nil, domain.NewValidationError("image", domain.MsgInvalid)
	}
	if upload.Size > opts.MaxBytes {
		return nil, domain.NewValidationError("image", msgTooLarge)
	}

	raw, err := io.ReadAll(io.LimitReader(upload.Content, opts.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(raw)) > opts.MaxBytes {
		return nil, domain.NewValidationError("image", msgTooLarge)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, domain.NewValidationError("image", domain.MsgInvalid)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, domain.NewValidationError("image", domain.MsgInvalid)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, domain.NewValidationError("image", msgTooLarge)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.NewValidationError("image", domain.MsgInvalid)
	}

	b := img.Bounds()
	if b.Dx() > opts.MaxDimension || b.Dy() > opts.MaxDimension {
		img = imaging.Fit(img, opts.MaxDimension, opts.MaxDimension, imaging.Lanczos)
		b = img.Bounds()
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(opts.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	return &processedImage{data: buf.Bytes(), width: b.Dx(), height: b.Dy()}, nil
}
