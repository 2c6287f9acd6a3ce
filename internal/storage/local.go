package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxNameAttempts bounds how far Put moves the prefix past files already on disk.
const maxNameAttempts = 16

// Local keeps blobs in a directory served under a public URL prefix.
type Local struct {
	dir     string
	baseURL string
	now     func() time.Time
	stamps  stamper
}

// NewLocal creates dir if needed.
func NewLocal(dir, baseURL string) (*Local, error) {
	const op = "storage.NewLocal"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Local{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/"), now: time.Now}, nil
}

func (l *Local) Put(_ context.Context, filename string, r io.Reader) (Object, error) {
	const op = "storage.Local.Put"
	var (
		name, dst string
		f         *os.File
		err       error
	)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name = ObjectName(l.stamps.next(l.now()), filename)
		dst = filepath.Join(l.dir, name)
		f, err = os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if !errors.Is(err, os.ErrExist) {
			break
		}
	}
	if err != nil {
		return Object{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return Object{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return Object{}, fmt.Errorf("%s: %w", op, err)
	}
	return Object{Key: name, URL: l.baseURL + "/" + url.PathEscape(name)}, nil
}

// Delete removes the file named key. A missing file is reported as an error
// so callers can log it.
func (l *Local) Delete(_ context.Context, key string) error {
	const op = "storage.Local.Delete"
	name := filepath.Base(key)
	if name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("%s: invalid key %q", op, key)
	}
	if err := os.Remove(filepath.Join(l.dir, name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %s: %w", op, name, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
