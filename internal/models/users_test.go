package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("rahasia")
	require.NoError(t, err)
	assert.NotEqual(t, "rahasia", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, PasswordCost, cost)

	u := &User{PasswordHash: &hash}
	assert.NoError(t, u.CheckPassword("rahasia"))
	assert.Error(t, u.CheckPassword("salah"))
	assert.False(t, u.IsFederated())
}

func TestFederatedUserNeverMatches(t *testing.T) {
	sub := "google-sub"
	u := &User{GoogleID: &sub}

	assert.True(t, u.IsFederated())
	assert.True(t, errors.Is(u.CheckPassword(""), ErrNoLocalPassword))
	assert.True(t, errors.Is(u.CheckPassword("anything"), ErrNoLocalPassword))
}

func TestRoles(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleUser}).IsAdmin())
}

func TestBeforeCreateAssignsIDs(t *testing.T) {
	var b Base
	require.NoError(t, b.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, b.ID)

	fixed := uuid.New()
	img := ProductImage{ID: fixed}
	require.NoError(t, img.BeforeCreate(nil))
	assert.Equal(t, fixed, img.ID)
}
