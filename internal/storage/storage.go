// Package storage writes product image blobs to the local disk or to
// Cloudinary and deletes them again by key.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"
)

// Object is a stored blob. Key is what Delete needs; URL is what clients load.
type Object struct {
	Key string
	URL string
}

// ObjectStore is implemented by every backend.
type ObjectStore interface {
	Put(ctx context.Context, filename string, r io.Reader) (Object, error)
	Delete(ctx context.Context, key string) error
}

// ObjectName builds "<unix-millis>-<filename>".
func ObjectName(now time.Time, filename string) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), cleanFilename(filename))
}

// stamper hands out strictly increasing millisecond times, so two objects
// named in the same millisecond still get different prefixes.
type stamper struct {
	mu   sync.Mutex
	last int64
}

func (s *stamper) next(now time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := now.UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return time.UnixMilli(ms)
}

func cleanFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "image"
	}
	return name
}
