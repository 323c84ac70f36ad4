// Package services – password hashing
//
// Credential derivation for account passwords: PBKDF2-HMAC-SHA256 with
// 100000 iterations and a fixed application salt, hex-encoded. The scheme
// (including the shared salt) is pinned by the deployed client population;
// changing any parameter invalidates every stored credential.
package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// passwordSalt is the fixed application salt shared with the legacy
	// clients. Not a secret; uniqueness per deployment is not required by
	// the protocol.
	passwordSalt = "messenger"

	// pbkdf2Iterations matches the client-side derivation.
	pbkdf2Iterations = 100000

	// pbkdf2KeyLen is the derived key length in bytes (SHA-256 output size).
	pbkdf2KeyLen = 32
)

// HashPassword derives the storable hex digest for a plaintext password.
// The plaintext never reaches the repo layer.
func HashPassword(password string) string {
	key := pbkdf2.Key([]byte(password), []byte(passwordSalt), pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return hex.EncodeToString(key)
}

// VerifyPassword reports whether the plaintext password derives to the
// stored hash. Comparison is constant-time.
func VerifyPassword(storedHash, password string) bool {
	derived := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(derived)) == 1
}
