// Package credentials implements the password encoding scheme used for the
// users table: PBKDF2-HMAC-SHA256 serialized as
// "pbkdf2_sha256$<iterations>$<base64 salt>$<base64 digest>". The format is
// stable on disk; Verify reads the iteration count out of the encoded string
// so rows written under an older work factor keep verifying.
package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	algorithmTag = "pbkdf2_sha256"

	// Iterations is the PBKDF2 work factor for newly encoded passwords. The
	// high count is the defense against offline brute force; lowering it
	// weakens every credential encoded afterwards.
	Iterations = 390000

	saltSize   = 16
	digestSize = sha256.Size
)

// ErrMalformedEncoding reports an encoded credential that cannot be parsed.
// It is a caller error, distinct from a password mismatch.
var ErrMalformedEncoding = errors.New("malformed encoded credential")

// Hash derives the digest for password under salt at the current work factor.
func Hash(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, digestSize, sha256.New)
}

// MakeEncoded hashes password under a fresh random salt and serializes the
// result. Two calls with the same password yield different strings.
func MakeEncoded(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	digest := Hash(password, salt)

	return fmt.Sprintf("%s$%d$%s$%s",
		algorithmTag,
		Iterations,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(digest),
	), nil
}

// Verify recomputes the digest for password using the salt and iteration
// count extracted from encoded and compares in constant time. A false return
// with a nil error means the password does not match; ErrMalformedEncoding
// means encoded itself is broken.
func Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 {
		return false, ErrMalformedEncoding
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false, ErrMalformedEncoding
	}

	salt, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return false, ErrMalformedEncoding
	}

	want, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil || len(want) == 0 {
		return false, ErrMalformedEncoding
	}

	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
