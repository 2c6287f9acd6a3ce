package otp

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb, err := Connect(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	return NewStore(rdb, 5*time.Minute), mr
}

func TestGenerate(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := Generate()
		require.NoError(t, err)
		assert.Len(t, code, Length)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', code)
		}
	}
}

func TestStore_ConsumeOnce(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "Rina@Example.com", "123456"))

	ok, err := s.Consume(ctx, "rina@example.com", "000000")
	require.NoError(t, err)
	assert.False(t, ok, "wrong code")

	ok, err = s.Consume(ctx, "rina@example.com", "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Consume(ctx, "rina@example.com", "123456")
	require.NoError(t, err)
	assert.False(t, ok, "codes are single use")
}

func TestStore_Expires(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "a@b.c", "111111"))
	mr.FastForward(6 * time.Minute)

	ok, err := s.Consume(ctx, "a@b.c", "111111")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SaveReplaces(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "a@b.c", "111111"))
	require.NoError(t, s.Save(ctx, "a@b.c", "222222"))

	ok, err := s.Consume(ctx, "a@b.c", "111111")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Consume(ctx, "a@b.c", "222222")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConnect_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = Connect(context.Background(), addr, "", 0)
	assert.Error(t, err)
}

func TestStore_DroppedAfterMaxAttempts(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "a@b.c", "424242"))
	for i := 0; i < MaxAttempts; i++ {
		ok, err := s.Consume(ctx, "a@b.c", "000000")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.False(t, mr.Exists("otp:a@b.c"), "code dropped")

	ok, err := s.Consume(ctx, "a@b.c", "424242")
	require.NoError(t, err)
	assert.False(t, ok, "right code after too many misses")
}

func TestStore_MissesResetOnSave(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "a@b.c", "111111"))
	for i := 0; i < MaxAttempts-1; i++ {
		ok, err := s.Consume(ctx, "a@b.c", "000000")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	ttl := mr.TTL("otp_tries:a@b.c")
	assert.True(t, ttl > 0 && ttl <= 5*time.Minute, ttl.String())

	require.NoError(t, s.Save(ctx, "a@b.c", "222222"))
	assert.False(t, mr.Exists("otp_tries:a@b.c"))

	ok, err := s.Consume(ctx, "a@b.c", "000000")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.Consume(ctx, "a@b.c", "222222")
	require.NoError(t, err)
	assert.True(t, ok, "one miss after a fresh code still allows the right one")
}
