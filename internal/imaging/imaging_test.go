package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	return img
}

func createTestJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, testImage(w, h), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, testImage(w, h))
	return buf.Bytes()
}

func createTestGIF(w, h int) []byte {
	var buf bytes.Buffer
	gif.Encode(&buf, testImage(w, h), nil)
	return buf.Bytes()
}

func TestInspectFormats(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		mime string
	}{
		{"jpeg", createTestJPEG(100, 80), "image/jpeg"},
		{"png", createTestPNG(100, 80), "image/png"},
		{"gif", createTestGIF(100, 80), "image/gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Inspect(tt.data)
			if err != nil {
				t.Fatalf("Inspect: %v", err)
			}
			if info.MIME != tt.mime {
				t.Errorf("expected %s, got %s", tt.mime, info.MIME)
			}
			if info.Width != 100 || info.Height != 80 {
				t.Errorf("expected 100x80, got %dx%d", info.Width, info.Height)
			}
		})
	}
}

func TestInspectRejectsText(t *testing.T) {
	_, err := Inspect([]byte("not an image"))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestInspectRejectsTruncatedPNG(t *testing.T) {
	// Valid signature, garbage after it.
	data := append([]byte("\x89PNG\r\n\x1a\n"), []byte("garbage")...)
	_, err := Inspect(data)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestInspectRejectsPDF(t *testing.T) {
	_, err := Inspect([]byte("%PDF-1.4\n%âãÏÓ\n"))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestExtension(t *testing.T) {
	jpegInfo := &Info{MIME: "image/jpeg"}
	if got := jpegInfo.Extension(".jpeg"); got != ".jpeg" {
		t.Errorf("expected .jpeg kept, got %s", got)
	}
	if got := jpegInfo.Extension(".png"); got != ".jpg" {
		t.Errorf("expected mismatched extension replaced with .jpg, got %s", got)
	}
	if got := jpegInfo.Extension(""); got != ".jpg" {
		t.Errorf("expected .jpg for missing extension, got %s", got)
	}
	pngInfo := &Info{MIME: "image/png"}
	if got := pngInfo.Extension(".png"); got != ".png" {
		t.Errorf("expected .png, got %s", got)
	}
}
