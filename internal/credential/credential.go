// Package credential stores and verifies salted PBKDF2 password hashes.
package credential

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/weiawesome/wes-io-conduit/internal/domain"
)

const (
	DefaultIterations = 10000
	DefaultKeyLen     = 64 // 512 bits
	DefaultSaltLen    = 16
)

// Params are the KDF parameters. Changing them invalidates existing hashes.
type Params struct {
	Iterations int
	KeyLen     int
	SaltLen    int
}

// DefaultParams returns PBKDF2-HMAC-SHA512, 10000 rounds, 512-bit output
// and a 16-byte salt.
func DefaultParams() Params {
	return Params{
		Iterations: DefaultIterations,
		KeyLen:     DefaultKeyLen,
		SaltLen:    DefaultSaltLen,
	}
}

// Store hashes passwords onto user records.
type Store struct {
	params Params
	random io.Reader
}

// NewStore creates a Store. Parameters below the minimums are raised.
func NewStore(params Params) *Store {
	if params.Iterations < DefaultIterations {
		params.Iterations = DefaultIterations
	}
	if params.KeyLen < DefaultKeyLen {
		params.KeyLen = DefaultKeyLen
	}
	if params.SaltLen < DefaultSaltLen {
		params.SaltLen = DefaultSaltLen
	}
	return &Store{params: params, random: rand.Reader}
}

// SetPassword draws a fresh salt and replaces the user's salt and hash.
func (s *Store) SetPassword(u *domain.User, plaintext string) error {
	salt := make([]byte, s.params.SaltLen)
	if _, err := io.ReadFull(s.random, salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	u.PasswordSalt = hex.EncodeToString(salt)
	u.PasswordHash = hex.EncodeToString(s.derive(plaintext, u.PasswordSalt))
	return nil
}

// VerifyPassword reports whether plaintext matches the stored hash. A user
// without a salt or hash never verifies.
func (s *Store) VerifyPassword(u *domain.User, plaintext string) bool {
	if u == nil || u.PasswordSalt == "" || u.PasswordHash == "" {
		return false
	}

	stored, err := hex.DecodeString(u.PasswordHash)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(stored, s.derive(plaintext, u.PasswordSalt)) == 1
}

// derive keys on the hex salt string as stored, so records stay portable.
func (s *Store) derive(plaintext, salt string) []byte {
	return pbkdf2.Key([]byte(plaintext), []byte(salt), s.params.Iterations, s.params.KeyLen, sha512.New)
}
