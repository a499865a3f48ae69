// Package password implements the salted-SHA1 ({SSHA}) password hash scheme
// used by the credential backends.
package password

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Scheme prefixes every hash produced by Create.
	Scheme = "{SSHA}"
	// SaltLength is the length of generated salts, in bytes.
	SaltLength = 32

	saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Create hashes password with salt. A random alphanumeric salt is generated
// when salt is empty.
func Create(password, salt string) (string, error) {
	if salt == "" {
		var err error
		salt, err = NewSalt()
		if err != nil {
			return "", err
		}
	}
	return hash(password, salt), nil
}

// Verify reports whether password matches the encoded hash.
func Verify(password, encoded string) bool {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encoded, Scheme))
	if err != nil || len(raw) < SaltLength {
		return false
	}
	salt := string(raw[len(raw)-SaltLength:])
	candidate := hash(password, salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(encoded)) == 1
}

// NewSalt returns SaltLength random alphanumeric characters.
func NewSalt() (string, error) {
	max := big.NewInt(int64(len(saltAlphabet)))
	b := make([]byte, SaltLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate salt: %w", err)
		}
		b[i] = saltAlphabet[n.Int64()]
	}
	return string(b), nil
}

func hash(password, salt string) string {
	sum := sha1.Sum([]byte(password + salt))
	raw := make([]byte, 0, len(sum)+len(salt))
	raw = append(raw, sum[:]...)
	raw = append(raw, salt...)
	return Scheme + base64.StdEncoding.EncodeToString(raw)
}
