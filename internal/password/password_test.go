package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptRoundTrip(t *testing.T) {
	h, err := NewBcrypt(bcrypt.MinCost)
	require.NoError(t, err)

	digest, err := h.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", digest)
	assert.True(t, strings.HasPrefix(digest, "$2a$"))

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(digest), []byte("s3cret")))
	assert.ErrorIs(t, bcrypt.CompareHashAndPassword([]byte(digest), []byte("wrong")), bcrypt.ErrMismatchedHashAndPassword)
}

func TestBcryptSalts(t *testing.T) {
	h, err := NewBcrypt(bcrypt.MinCost)
	require.NoError(t, err)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewBcryptCost(t *testing.T) {
	h, err := NewBcrypt(0)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)

	_, err = NewBcrypt(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}
