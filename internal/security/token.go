package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

const (
	refreshTokenBytes = 48

	// APITokenPrefix marks non-interactive credentials so the auth
	// middleware can tell them apart from JWTs without parsing.
	APITokenPrefix = "slt_"
)

// NewRefreshPair generates a high-entropy opaque refresh token and its
// SHA-256 digest. Only the digest is ever persisted; the plaintext goes
// back to the caller exactly once.
func NewRefreshPair() (token string, hash string, err error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, HashOpaqueToken(token), nil
}

// HashOpaqueToken is the deterministic at-rest form of refresh and API
// tokens, so lookups go by hash instead of plaintext scans.
func HashOpaqueToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// NewSessionToken returns the opaque per-session discriminator.
func NewSessionToken() string { return uuid.NewString() }

// NewAPIToken generates a prefixed opaque API token and its hash.
func NewAPIToken() (token string, hash string, err error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate api token: %w", err)
	}
	token = APITokenPrefix + hex.EncodeToString(buf)
	return token, HashOpaqueToken(token), nil
}
