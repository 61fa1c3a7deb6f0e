// Package imaging prepares product images for upload to the backend.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // registers the WebP decoder

	"github.com/erazemk/shopadmin/internal/apperr"
)

// DefaultMaxDimension is the maximum width or height of an uploaded image.
const DefaultMaxDimension = 1024

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Upload is a processed image ready to be attached to a multipart request.
type Upload struct {
	Filename string
	MIME     string
	Data     []byte
}

// Processor validates and downscales images.
type Processor struct {
	MaxDimension int
	MaxBytes     int64
}

// NewProcessor returns a processor; zero values fall back to defaults.
func NewProcessor(maxDimension int, maxBytes int64) *Processor {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Processor{MaxDimension: maxDimension, MaxBytes: maxBytes}
}

// Prepare reads an image, checks its format by sniffing bytes, downscales it
// if needed and re-encodes it as JPEG. The returned filename keeps the base
// name of the original with a .jpg extension.
func (p *Processor) Prepare(filename string, r io.Reader) (*Upload, error) {
	if p.MaxBytes > 0 {
		r = io.LimitReader(r, p.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if p.MaxBytes > 0 && int64(len(data)) > p.MaxBytes {
		return nil, apperr.Newf(apperr.CodeValidation, "image %s exceeds %d bytes", filename, p.MaxBytes)
	}

	// Sniff from bytes, never from client headers.
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, apperr.Newf(apperr.CodeValidation, "unsupported image format: %s (JPEG, PNG or WebP accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, err, "decoding image")
	}

	img = downscale(img, p.MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return &Upload{
		Filename: jpegName(filename),
		MIME:     "image/jpeg",
		Data:     buf.Bytes(),
	}, nil
}

func jpegName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "image"
	}
	return base + ".jpg"
}

// downscale resizes the image so neither dimension exceeds maxDim, keeping
// the aspect ratio. Images already within bounds are returned as is.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
