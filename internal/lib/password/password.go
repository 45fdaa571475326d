package password

import (
	"crypto/sha256"
	"encoding/base64"
	"golang.org/x/crypto/bcrypt"
)

// Hash returns a bcrypt hash of the password. Passwords of any length are
// accepted: bcrypt only sees a fixed size digest of the input.
func Hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword(digest(password), bcrypt.DefaultCost)
}

// Compare reports whether password matches a hash produced by Hash.
func Compare(hash []byte, password string) error {
	return bcrypt.CompareHashAndPassword(hash, digest(password))
}

// digest is 44 bytes, under bcrypt's 72 byte input limit.
func digest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
