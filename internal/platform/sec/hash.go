// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// # Key Derivation Parameters

const (
	// PasswordIterations is the PBKDF2 cost factor.
	PasswordIterations = 100_000

	// PasswordKeyLength is the derived key size in bytes.
	PasswordKeyLength = 64

	// PasswordSaltLength is the random salt size in bytes.
	PasswordSaltLength = 16

	// storedSeparator splits the hex salt from the hex hash in the stored form.
	storedSeparator = ":"
)

// HashPassword derives a salted PBKDF2-SHA512 hash of a plain-text password.
//
// The stored form is "hex(salt):hex(hash)". Every call uses a fresh salt, so
// hashing the same password twice yields different strings.
func HashPassword(plainTextPassword string) (string, error) {
	salt := make([]byte, PasswordSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("sec: failed to generate salt: %w", err)
	}

	saltHex := hex.EncodeToString(salt)
	derived := derive(plainTextPassword, saltHex)

	return saltHex + storedSeparator + hex.EncodeToString(derived), nil
}

// CheckPasswordHash re-derives the hash with the stored salt and compares in constant time.
//
// It fails closed: a malformed stored form, an empty input, or a length mismatch
// all return false. Stored values without the "salt:hash" shape are never
// compared by plain equality.
func CheckPasswordHash(plainTextPassword, storedHash string) bool {
	if storedHash == "" || plainTextPassword == "" {
		return false
	}

	saltHex, hashHex, found := strings.Cut(storedHash, storedSeparator)
	if !found || saltHex == "" || strings.Contains(hashHex, storedSeparator) {
		return false
	}

	expected, err := hex.DecodeString(hashHex)
	if err != nil || len(expected) != PasswordKeyLength {
		return false
	}

	return ConstantTimeEqual(expected, derive(plainTextPassword, saltHex))
}

// derive runs the KDF. The hex salt string itself is the salt input, matching
// the stored representation byte for byte.
func derive(password, saltHex string) []byte {
	return pbkdf2.Key([]byte(password), []byte(saltHex), PasswordIterations, PasswordKeyLength, sha512.New)
}

// ConstantTimeEqual compares two secrets without leaking timing information.
// Slices of different length compare unequal without panicking.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// ConstantTimeEqualString is [ConstantTimeEqual] for strings.
func ConstantTimeEqualString(a, b string) bool {
	return ConstantTimeEqual([]byte(a), []byte(b))
}
