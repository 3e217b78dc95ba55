// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vault

import "github.com/taibuivan/vaultlink/internal/platform/sec"

// # Limits

const (
	// MaxTextBytes caps inline text payloads.
	MaxTextBytes = 1 << 20

	// MaxAllowedIdentities caps the allow-list of a single vault.
	MaxAllowedIdentities = 50

	// DeleteTokenLength is the entropy of a delete capability in bytes.
	DeleteTokenLength = sec.DeleteTokenLength

	// storageSuffixLength is the random part of a blob key.
	storageSuffixLength = 12

	// sniffLength is how much of an upload is read for content detection.
	sniffLength = 3072
)

// # Client Messages

const (
	msgNoLongerAccessible = "This vault is no longer accessible"
	msgRestricted         = "This vault is restricted to specific accounts"
	msgPasswordRequired   = "This vault is password protected"
	msgInvalidDeleteToken = "Invalid delete token"
	msgNotOwner           = "Only the owner can manage this vault"
)
