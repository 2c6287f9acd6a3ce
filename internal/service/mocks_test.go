package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"secondhand/internal/models"
	"secondhand/internal/repository"
	"secondhand/internal/storage"
)

type productRepoMock struct{ mock.Mock }

func (m *productRepoMock) List(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]models.Product)
	return items, args.Error(1)
}

func (m *productRepoMock) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *productRepoMock) Create(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *productRepoMock) Update(ctx context.Context, p *models.Product, images []models.ProductImage) error {
	return m.Called(ctx, p, images).Error(0)
}

func (m *productRepoMock) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *productRepoMock) GetImage(ctx context.Context, id uuid.UUID) (*models.ProductImage, error) {
	args := m.Called(ctx, id)
	img, _ := args.Get(0).(*models.ProductImage)
	return img, args.Error(1)
}

func (m *productRepoMock) DeleteImage(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type userRepoMock struct{ mock.Mock }

func (m *userRepoMock) user(args mock.Arguments) (*models.User, error) {
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *userRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *userRepoMock) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return m.user(m.Called(ctx, login))
}

func (m *userRepoMock) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *userRepoMock) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return m.user(m.Called(ctx, googleID))
}

func (m *userRepoMock) GetByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	return m.user(m.Called(ctx, token, now))
}

func (m *userRepoMock) Create(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *userRepoMock) SetGoogleID(ctx context.Context, id uuid.UUID, googleID string) error {
	return m.Called(ctx, id, googleID).Error(0)
}

func (m *userRepoMock) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *userRepoMock) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	return m.Called(ctx, id, token, expiresAt).Error(0)
}

func (m *userRepoMock) ResetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *userRepoMock) UpdateProfile(ctx context.Context, id uuid.UUID, p repository.Profile) error {
	return m.Called(ctx, id, p).Error(0)
}

type mailerMock struct{ mock.Mock }

func (m *mailerMock) Send(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

// memStore is an in-memory ObjectStore.
type memStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	putErr    error
	deleteErr error
	seq       int
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Put(_ context.Context, filename string, r io.Reader) (storage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return storage.Object{}, s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.Object{}, err
	}
	s.seq++
	key := storage.ObjectName(time.UnixMilli(int64(s.seq)), filename)
	s.objects[key] = data
	return storage.Object{Key: key, URL: "/uploads/" + key}, nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.objects[key]; !ok {
		return errors.New("no such object")
	}
	delete(s.objects, key)
	return nil
}

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	gifBytes = append([]byte("GIF89a"), make([]byte, 32)...)
)

type fakeUpload struct {
	name string
	size int64
	data []byte
}

func upload(name string, data []byte) *fakeUpload {
	return &fakeUpload{name: name, size: int64(len(data)), data: data}
}

func (f *fakeUpload) Filename() string { return f.name }
func (f *fakeUpload) Size() int64      { return f.size }

func (f *fakeUpload) Open() (io.ReadSeekCloser, error) {
	return nopCloser{bytes.NewReader(f.data)}, nil
}

type nopCloser struct{ *bytes.Reader }

func (nopCloser) Close() error { return nil }
