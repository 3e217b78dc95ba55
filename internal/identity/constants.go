// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"github.com/taibuivan/vaultlink/internal/platform/constants"
	"github.com/taibuivan/vaultlink/internal/platform/sec"
)

// # Authentication Constraints

const (
	// SessionTTL is how long a login stays valid. Issuing a new session replaces the old one.
	SessionTTL = constants.SessionTTL

	// SessionTokenLength is the byte length of the random bearer token.
	SessionTokenLength = sec.SessionTokenLength

	// PasswordMinLength is the shortest password accepted at registration.
	PasswordMinLength = 8

	// EmailMaxLength bounds stored addresses (RFC 5321 path limit).
	EmailMaxLength = 254
)

// # Client Messages

// One message for every credential failure so responses do not reveal which
// part was wrong.
const (
	msgInvalidCredentials = "Invalid email or password"
	msgSessionInvalid     = "Session expired or missing"
	msgEmailTaken         = "Email is already registered"
)
