// Package cryptox holds the password hardening used by registration and
// login. The password never leaves the client: the server stores only the
// salt and a verifier derived from the argon2id key.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of the per-account random salt.
const SaltSize = 16

func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// VerifierFor derives the login verifier for password and salt.
func VerifierFor(password string, salt []byte) []byte {
	key := DeriveMasterKey([]byte(password), salt)
	defer wipe(key)
	return MakeVerifier(key)
}

// EqualVerifiers compares two verifiers in constant time.
func EqualVerifiers(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
