// Package otp keeps one-time passcodes in Redis.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Length is the number of digits in a code.
const Length = 6

// MaxAttempts is how many wrong guesses a code survives. The code is dropped
// on the last one and a new one has to be requested.
const MaxAttempts = 5

// Connect opens a client and checks the server answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	const op = "otp.Connect"
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rdb, nil
}

// Store saves codes per email with a TTL.
type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func key(email string) string {
	return "otp:" + normalize(email)
}

func triesKey(email string) string {
	return "otp_tries:" + normalize(email)
}

// Generate returns a random numeric code.
func Generate() (string, error) {
	var b strings.Builder
	for i := 0; i < Length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("otp.Generate: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// Save stores code for email, replacing any earlier one and its failed
// attempts.
func (s *Store) Save(ctx context.Context, email, code string) error {
	const op = "otp.Store.Save"
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key(email), code, s.ttl)
		pipe.Del(ctx, triesKey(email))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Consume reports whether code matches the stored one and deletes it on a
// match, so a code is accepted at most once. After MaxAttempts wrong codes
// the stored code is deleted as well.
func (s *Store) Consume(ctx context.Context, email, code string) (bool, error) {
	const op = "otp.Store.Consume"
	k := key(email)
	stored, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		if err := s.recordMiss(ctx, email); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		return false, nil
	}
	n, err := s.rdb.Del(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if n != 1 {
		return false, nil
	}
	if err := s.rdb.Del(ctx, triesKey(email)).Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func (s *Store) recordMiss(ctx context.Context, email string) error {
	tk := triesKey(email)
	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, tk)
		pipe.Expire(ctx, tk, s.ttl)
		return nil
	})
	if err != nil {
		return err
	}
	if incr.Val() < MaxAttempts {
		return nil
	}
	return s.rdb.Del(ctx, key(email), tk).Err()
}
