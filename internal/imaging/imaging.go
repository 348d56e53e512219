package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// ErrUnsupported is returned for content that is not an accepted image.
var ErrUnsupported = errors.New("unsupported image format")

// Allowed maps accepted MIME types to the extensions a stored file may keep.
// The first extension is used when the uploaded name has none of them.
var Allowed = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
	"image/webp": {".webp"},
}

// Info describes an inspected image.
type Info struct {
	MIME   string
	Width  int
	Height int
}

// Extension picks the file extension for a stored image: original when it
// belongs to the detected type, otherwise the type's canonical extension.
func (i *Info) Extension(original string) string {
	exts := Allowed[i.MIME]
	for _, e := range exts {
		if e == original {
			return e
		}
	}
	if len(exts) == 0 {
		return ""
	}
	return exts[0]
}

// Inspect sniffs the MIME type from the bytes (never trusting client headers)
// and verifies that the image header decodes.
func Inspect(data []byte) (*Info, error) {
	detected := mimetype.Detect(data).String()
	if _, ok := Allowed[detected]; !ok {
		return nil, fmt.Errorf("%w: %s (only JPEG, PNG, GIF and WebP accepted)", ErrUnsupported, detected)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %w", ErrUnsupported, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupported)
	}

	return &Info{MIME: detected, Width: cfg.Width, Height: cfg.Height}, nil
}
