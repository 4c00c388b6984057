package credential

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
)

func TestSetPassword_RoundTrip(t *testing.T) {
	t.Parallel()
	s := NewStore(DefaultParams())

	for _, pw := range []string{"secret123", "", "ünïcødé pass", "a very long password with spaces and symbols !@#$%^&*()"} {
		u := &domain.User{}
		require.NoError(t, s.SetPassword(u, pw))

		assert.True(t, s.VerifyPassword(u, pw), "password %q", pw)
		assert.False(t, s.VerifyPassword(u, pw+"x"), "password %q", pw)
	}
}

func TestSetPassword_Layout(t *testing.T) {
	t.Parallel()
	s := NewStore(DefaultParams())
	u := &domain.User{}
	require.NoError(t, s.SetPassword(u, "secret123"))

	assert.Len(t, u.PasswordSalt, DefaultSaltLen*2, "hex encoded salt")
	assert.Len(t, u.PasswordHash, DefaultKeyLen*2, "hex encoded 512-bit hash")
}

func TestSetPassword_FreshSaltEachTime(t *testing.T) {
	t.Parallel()
	s := NewStore(DefaultParams())
	u := &domain.User{}

	require.NoError(t, s.SetPassword(u, "secret123"))
	firstSalt, firstHash := u.PasswordSalt, u.PasswordHash

	require.NoError(t, s.SetPassword(u, "secret123"))
	assert.NotEqual(t, firstSalt, u.PasswordSalt)
	assert.NotEqual(t, firstHash, u.PasswordHash)
}

func TestSetPassword_ReplacesOldPassword(t *testing.T) {
	t.Parallel()
	s := NewStore(DefaultParams())
	u := &domain.User{}

	require.NoError(t, s.SetPassword(u, "old-password"))
	require.NoError(t, s.SetPassword(u, "new-password"))

	assert.False(t, s.VerifyPassword(u, "old-password"))
	assert.True(t, s.VerifyPassword(u, "new-password"))
}

func TestVerifyPassword_WithoutCredentials(t *testing.T) {
	t.Parallel()
	s := NewStore(DefaultParams())

	assert.False(t, s.VerifyPassword(nil, "anything"))
	assert.False(t, s.VerifyPassword(&domain.User{}, ""))
	assert.False(t, s.VerifyPassword(&domain.User{PasswordHash: "abcd"}, "anything"))
	assert.False(t, s.VerifyPassword(&domain.User{PasswordSalt: "abcd", PasswordHash: "not-hex"}, "anything"))
}

func TestNewStore_EnforcesMinimums(t *testing.T) {
	t.Parallel()
	s := NewStore(Params{Iterations: 1, KeyLen: 8, SaltLen: 1})
	assert.Equal(t, DefaultParams(), s.params)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestSetPassword_RandomFailure(t *testing.T) {
	t.Parallel()
	s := NewStore(DefaultParams())
	s.random = failingReader{}

	u := &domain.User{PasswordSalt: "keep", PasswordHash: "keep"}
	assert.Error(t, s.SetPassword(u, "secret123"))
	assert.Equal(t, "keep", u.PasswordSalt)
}
