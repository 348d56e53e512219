package upload

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Storage.Open for a name that was never stored.
var ErrNotFound = errors.New("object not found")

// ErrExists is returned by Storage.Put when the name is already taken.
var ErrExists = errors.New("object already exists")

// Object is a stored file opened for reading.
type Object struct {
	io.ReadSeekCloser
	Size        int64
	ModTime     time.Time
	ContentType string
}

// Storage persists uploaded files under flat names.
type Storage interface {
	// Put stores size bytes from r under name. It never overwrites an
	// existing object.
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (*Object, error)
	Remove(ctx context.Context, name string) error
}

// ctxReader stops a copy once the context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
