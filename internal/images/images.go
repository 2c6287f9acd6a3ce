// Package images checks uploaded product pictures and holds them open while a
// request is being processed.
package images

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"

	"secondhand/internal/apperr"
)

// MaxSize is the per-file ceiling, 5 MiB.
const MaxSize = 5 << 20

// allowed lists the accepted content types. image/jpg is not a registered
// type but browsers still send it.
var allowed = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Allowed reports whether contentType is an accepted image type.
func Allowed(contentType string) bool {
	return allowed[contentType]
}

// Upload is a file received from a client.
type Upload interface {
	Filename() string
	Size() int64
	Open() (io.ReadSeekCloser, error)
}

type fileHeader struct {
	fh *multipart.FileHeader
}

// FromFileHeader adapts a multipart part.
func FromFileHeader(fh *multipart.FileHeader) Upload {
	return fileHeader{fh: fh}
}

func (f fileHeader) Filename() string { return f.fh.Filename }
func (f fileHeader) Size() int64      { return f.fh.Size }

func (f fileHeader) Open() (io.ReadSeekCloser, error) {
	return f.fh.Open()
}

// FromFileHeaders adapts every part under one form key.
func FromFileHeaders(fhs []*multipart.FileHeader) []Upload {
	out := make([]Upload, 0, len(fhs))
	for _, fh := range fhs {
		out = append(out, FromFileHeader(fh))
	}
	return out
}

// checkSize rejects files above MaxSize before anything is opened.
func checkSize(u Upload) error {
	if u.Size() > MaxSize {
		return apperr.Validation(fmt.Sprintf("%s is larger than 5 MB", u.Filename()))
	}
	return nil
}

// sniff detects the real content type from the first bytes and rewinds.
func sniff(f io.ReadSeeker) (string, error) {
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mt.String(), nil
}
