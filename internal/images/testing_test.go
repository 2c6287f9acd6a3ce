package images

import (
	"bytes"
	"io"
)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 32)...)
	webpBytes = append([]byte("RIFF\x24\x00\x00\x00WEBPVP8 "), make([]byte, 32)...)
	gifBytes  = append([]byte("GIF89a"), make([]byte, 32)...)
)

// fakeUpload counts how many handles were opened and closed.
type fakeUpload struct {
	name    string
	size    int64
	data    []byte
	opened  int
	closed  int
	openErr error
}

func newFake(name string, data []byte) *fakeUpload {
	return &fakeUpload{name: name, size: int64(len(data)), data: data}
}

func (f *fakeUpload) Filename() string { return f.name }
func (f *fakeUpload) Size() int64      { return f.size }

func (f *fakeUpload) Open() (io.ReadSeekCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened++
	return &countingFile{Reader: bytes.NewReader(f.data), owner: f}, nil
}

type countingFile struct {
	*bytes.Reader
	owner *fakeUpload
}

func (c *countingFile) Close() error {
	c.owner.closed++
	return nil
}
