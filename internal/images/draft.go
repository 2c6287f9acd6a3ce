package images

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"secondhand/internal/apperr"
)

// Attachment is an accepted upload with its file handle held open.
type Attachment struct {
	Filename    string
	Size        int64
	ContentType string

	f io.ReadSeekCloser
}

// Reader returns the content from the start.
func (a *Attachment) Reader() (io.Reader, error) {
	if a.f == nil {
		return nil, errors.New("attachment released")
	}
	if _, err := a.f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return a.f, nil
}

func (a *Attachment) release() error {
	if a.f == nil {
		return nil
	}
	err := a.f.Close()
	a.f = nil
	return err
}

// Draft collects the attachments of one submission. Every handle it opens is
// closed by Remove, Replace or Close; callers defer Close right after
// NewDraft.
type Draft struct {
	items  []*Attachment
	closed bool
}

func NewDraft() *Draft {
	return &Draft{}
}

// Add checks u and keeps it open. A rejected file leaves the draft unchanged.
func (d *Draft) Add(u Upload) error {
	a, err := d.accept(u)
	if err != nil {
		return err
	}
	d.items = append(d.items, a)
	return nil
}

// AddAll adds uploads in order and stops at the first rejected one.
func (d *Draft) AddAll(uploads []Upload) error {
	for _, u := range uploads {
		if err := d.Add(u); err != nil {
			return err
		}
	}
	return nil
}

// Remove drops the attachment at i and releases its handle.
func (d *Draft) Remove(i int) error {
	if i < 0 || i >= len(d.items) {
		return fmt.Errorf("images.Draft.Remove: index %d out of range", i)
	}
	a := d.items[i]
	d.items = append(d.items[:i], d.items[i+1:]...)
	return a.release()
}

// Replace swaps the attachment at i for u. The old handle is released only
// after u has been accepted.
func (d *Draft) Replace(i int, u Upload) error {
	if i < 0 || i >= len(d.items) {
		return fmt.Errorf("images.Draft.Replace: index %d out of range", i)
	}
	a, err := d.accept(u)
	if err != nil {
		return err
	}
	old := d.items[i]
	d.items[i] = a
	return old.release()
}

func (d *Draft) Attachments() []*Attachment {
	return d.items
}

func (d *Draft) Len() int {
	return len(d.items)
}

// Close releases every handle. It is safe to call more than once.
func (d *Draft) Close() error {
	var errs []error
	for _, a := range d.items {
		if err := a.release(); err != nil {
			errs = append(errs, err)
		}
	}
	d.items = nil
	d.closed = true
	return errors.Join(errs...)
}

func (d *Draft) accept(u Upload) (*Attachment, error) {
	if d.closed {
		return nil, errors.New("images.Draft: closed")
	}
	if err := checkSize(u); err != nil {
		return nil, err
	}
	f, err := u.Open()
	if err != nil {
		return nil, fmt.Errorf("images.Draft: open %s: %w", u.Filename(), err)
	}
	ct, err := sniff(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("images.Draft: read %s: %w", u.Filename(), err)
	}
	if !Allowed(strings.ToLower(ct)) {
		_ = f.Close()
		return nil, apperr.Validation(fmt.Sprintf("%s is not a JPEG, PNG or WebP image", u.Filename()))
	}
	return &Attachment{Filename: u.Filename(), Size: u.Size(), ContentType: ct, f: f}, nil
}
