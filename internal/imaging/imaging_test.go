package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/erazemk/shopadmin/internal/apperr"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestPrepareJPEG(t *testing.T) {
	p := NewProcessor(0, 0)
	up, err := p.Prepare("front.jpeg", bytes.NewReader(createTestJPEG(100, 100)))
	if err != nil {
		t.Fatalf("Prepare JPEG: %v", err)
	}
	if up.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", up.MIME)
	}
	if up.Filename != "front.jpg" {
		t.Errorf("expected front.jpg, got %s", up.Filename)
	}
	if len(up.Data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestPreparePNG(t *testing.T) {
	up, err := NewProcessor(0, 0).Prepare(`C:\photos\side.png`, bytes.NewReader(createTestPNG(100, 100)))
	if err != nil {
		t.Fatalf("Prepare PNG: %v", err)
	}
	if up.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg (always outputs JPEG), got %s", up.MIME)
	}
	if up.Filename != "side.jpg" {
		t.Errorf("expected side.jpg, got %s", up.Filename)
	}
}

func TestPrepareDownscale(t *testing.T) {
	p := NewProcessor(256, 0)
	up, err := p.Prepare("big.jpg", bytes.NewReader(createTestJPEG(1024, 512)))
	if err != nil {
		t.Fatalf("Prepare large image: %v", err)
	}
	w, h := decodeSize(t, up.Data)
	if w != 256 || h != 128 {
		t.Errorf("expected 256x128, got %dx%d", w, h)
	}
}

func TestPrepareSmallImageNotUpscaled(t *testing.T) {
	up, err := NewProcessor(0, 0).Prepare("small.jpg", bytes.NewReader(createTestJPEG(50, 50)))
	if err != nil {
		t.Fatalf("Prepare small image: %v", err)
	}
	if w, h := decodeSize(t, up.Data); w != 50 || h != 50 {
		t.Errorf("small image should not be resized: got %dx%d", w, h)
	}
}

func TestPrepareRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		max  int64
	}{
		{"not an image", []byte("not an image"), 0},
		{"gif", []byte("GIF89a..."), 0},
		{"too large", createTestJPEG(64, 64), 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProcessor(0, tt.max).Prepare("x.jpg", bytes.NewReader(tt.data))
			if !apperr.IsCode(err, apperr.CodeValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestJPEGName(t *testing.T) {
	for in, want := range map[string]string{
		"a.png":       "a.jpg",
		"dir/b.webp":  "b.jpg",
		"":            "image.jpg",
		"noext":       "noext.jpg",
		"../../etc/x": "x.jpg",
	} {
		if got := jpegName(in); got != want {
			t.Errorf("jpegName(%q) = %q, want %q", in, got, want)
		}
	}
}
