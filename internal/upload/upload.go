// Package upload stores item photos under collision-free names and serves
// them back as static files.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/erazemk/lostfound/internal/imaging"
	"github.com/erazemk/lostfound/internal/model"
)

// Upload errors.
var (
	ErrTooLarge        = errors.New("image too large")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrStorage         = errors.New("image could not be stored")
	ErrTimeout         = errors.New("image upload timed out")
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultMaxBytes = 5 << 20
	DefaultTimeout  = 30 * time.Second
)

// Options configures an Uploader.
type Options struct {
	MaxBytes int64
	Timeout  time.Duration
}

// Uploader validates attachments and persists them to a Storage.
type Uploader struct {
	storage  Storage
	maxBytes int64
	timeout  time.Duration
	newName  func(ext string) (string, error)
}

// New returns an Uploader writing to storage.
func New(storage Storage, opts Options) *Uploader {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Uploader{
		storage:  storage,
		maxBytes: opts.MaxBytes,
		timeout:  opts.Timeout,
		newName:  uniqueName,
	}
}

// MaxBytes returns the largest accepted attachment.
func (u *Uploader) MaxBytes() int64 {
	return u.maxBytes
}

// MaxSize returns MaxBytes formatted for people, e.g. "5.2 MB".
func (u *Uploader) MaxSize() string {
	return humanize.Bytes(uint64(u.maxBytes))
}

// uniqueName returns a time-ordered random UUID with the given extension.
func uniqueName(ext string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String() + ext, nil
}

// Save validates the attachment read from r and stores it under a new unique
// name derived from filename's extension. It returns the public path
// (/uploads/<name>) to record on the item.
func (u *Uploader) Save(ctx context.Context, r io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: reading upload: %w", ErrStorage, err)
	}
	if int64(len(data)) > u.maxBytes {
		return "", fmt.Errorf("%w: exceeds %s", ErrTooLarge, u.MaxSize())
	}

	info, err := imaging.Inspect(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedType, err)
	}
	ext := info.Extension(strings.ToLower(filepath.Ext(filename)))

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	// A fresh UUIDv7 never repeats in practice; the retry only covers a
	// storage that already holds the name.
	for range 3 {
		name, err := u.newName(ext)
		if err != nil {
			return "", fmt.Errorf("%w: generating name: %w", ErrStorage, err)
		}

		err = u.storage.Put(ctx, name, bytes.NewReader(data), int64(len(data)), info.MIME)
		if errors.Is(err, ErrExists) {
			continue
		}
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return "", fmt.Errorf("%w: %w", ErrTimeout, err)
			}
			return "", fmt.Errorf("%w: %w", ErrStorage, err)
		}
		return model.UploadsPrefix + name, nil
	}
	return "", fmt.Errorf("%w: no free name after retries", ErrStorage)
}

// Discard removes a file previously returned by Save. It is used to roll back
// an upload whose item could not be created.
func (u *Uploader) Discard(ctx context.Context, path string) error {
	name, ok := strings.CutPrefix(path, model.UploadsPrefix)
	if !ok || !validName(name) {
		return fmt.Errorf("not an upload path: %q", path)
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	return u.storage.Remove(ctx, name)
}

// validName accepts flat file names only.
func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}
