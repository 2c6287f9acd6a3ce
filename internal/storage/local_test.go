package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	tests := []struct {
		in   string
		want string
	}{
		{"jaket.png", "1700000000123-jaket.png"},
		{"../../etc/passwd", "1700000000123-passwd"},
		{`C:\photos\kaos.jpg`, "1700000000123-kaos.jpg"},
		{"", "1700000000123-image"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ObjectName(now, tt.in), tt.in)
	}
}

func TestLocal_PutAndDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	l, err := NewLocal(dir, "/uploads/")
	require.NoError(t, err)
	l.now = func() time.Time { return time.UnixMilli(42) }

	obj, err := l.Put(context.Background(), "kaos polos.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "42-kaos polos.png", obj.Key)
	assert.Equal(t, "/uploads/42-kaos%20polos.png", obj.URL)

	data, err := os.ReadFile(filepath.Join(dir, obj.Key))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, l.Delete(context.Background(), obj.Key))
	_, err = os.Stat(filepath.Join(dir, obj.Key))
	assert.True(t, os.IsNotExist(err))
}

func TestLocal_SameNameGetsNextPrefix(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)
	l.now = func() time.Time { return time.UnixMilli(7) }

	first, err := l.Put(context.Background(), "image.jpg", strings.NewReader("first"))
	require.NoError(t, err)
	second, err := l.Put(context.Background(), "image.jpg", strings.NewReader("second"))
	require.NoError(t, err)

	assert.Equal(t, "7-image.jpg", first.Key)
	assert.Equal(t, "8-image.jpg", second.Key)

	data, err := os.ReadFile(filepath.Join(l.dir, first.Key))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestLocal_SkipsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "7-a.png"), []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "8-a.png"), []byte("old"), 0o644))

	l, err := NewLocal(dir, "/uploads")
	require.NoError(t, err)
	l.now = func() time.Time { return time.UnixMilli(7) }

	obj, err := l.Put(context.Background(), "a.png", strings.NewReader("new"))
	require.NoError(t, err)
	assert.Equal(t, "9-a.png", obj.Key)

	data, err := os.ReadFile(filepath.Join(dir, "7-a.png"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestLocal_DeleteMissing(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	err = l.Delete(context.Background(), "123-gone.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
