// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// # Opaque Tokens

const (
	// SessionTokenLength is the entropy of a bearer session token in bytes.
	SessionTokenLength = 32

	// DeleteTokenLength is the entropy of a vault delete capability in bytes.
	DeleteTokenLength = 24
)

// GenerateSecureToken returns byteLength random bytes encoded as unpadded base64url.
// The result is safe to embed in URL path segments and headers.
func GenerateSecureToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", fmt.Errorf("sec: invalid token length %d", byteLength)
	}

	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to read random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// HashToken returns the hex SHA-256 digest of a bearer token.
// Only digests are persisted, so a database read never yields a usable session.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
