// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package vault implements the lifecycle and access control of shared items.

A vault is one piece of text or one file, reachable through a short share link
until it expires, runs out of views, or is deleted by whoever holds its delete
token. Every read path checks expiry explicitly and reclaims eagerly; a
background [Reclaimer] collects whatever nobody reads.

# Architecture

  - Record: The persisted item and its lifecycle predicates.
  - Policy: The fixed-order access evaluation (exhaustion, identity, password).
  - Service: Create, View, Download, Preview, Delete and ListOwned.
  - Reclaimer: Periodic removal of expired records and their blobs.
  - Repository: Abstracted storage, implemented on PostgreSQL.

Only the Service and the Reclaimer mutate records or blobs.
*/
package vault

import (
	"time"
)

// # Domain Entities

// Kind distinguishes inline text from file payloads. It never changes after creation.
type Kind string

const (
	KindText Kind = "text"
	KindFile Kind = "file"
)

// ParseKind maps a client-supplied type to a [Kind].
func ParseKind(value string) (Kind, bool) {
	switch Kind(value) {
	case KindText, KindFile:
		return Kind(value), true
	}
	return "", false
}

// FileMeta describes the bytes behind a File vault.
type FileMeta struct {
	StorageRef   string `json:"-"`
	OriginalName string `json:"file_name"`
	ByteSize     int64  `json:"file_size"`
	MIMEType     string `json:"mime_type"`
}

// Record is one shared item.
//
// Exactly one of Text and File is populated, matching Kind. Optional policy
// fields are pointers so that "absent" survives a round trip through storage.
type Record struct {
	ID                string
	Kind              Kind
	Text              string
	File              *FileMeta
	CreatedAt         time.Time
	ExpiresAt         time.Time
	ViewCount         int
	MaxViews          *int
	OneTimeView       bool
	PasswordHash      *string
	DeleteToken       *string
	OwnerID           *string
	AllowedIdentities []string
}

// # Lifecycle Predicates

// IsExpired reports whether the record's window has closed at now.
func (record *Record) IsExpired(now time.Time) bool {
	return !now.Before(record.ExpiresAt)
}

// IsExhausted reports whether the record has already used up its views.
// A consumed record is normally deleted, so this only holds when deletion lagged.
func (record *Record) IsExhausted() bool {
	if record.OneTimeView && record.ViewCount > 0 {
		return true
	}
	return record.MaxViews != nil && record.ViewCount >= *record.MaxViews
}

// IsConsumedAt reports whether reaching viewCount makes the record terminal.
func (record *Record) IsConsumedAt(viewCount int) bool {
	if record.OneTimeView {
		return true
	}
	return record.MaxViews != nil && viewCount >= *record.MaxViews
}

// HasPassword reports whether a password gate is set.
func (record *Record) HasPassword() bool {
	return record.PasswordHash != nil && *record.PasswordHash != ""
}

// IsRestricted reports whether only listed identities (and the owner) may read.
func (record *Record) IsRestricted() bool {
	return len(record.AllowedIdentities) > 0
}

// IsOwned reports whether an account created this record.
func (record *Record) IsOwned() bool {
	return record.OwnerID != nil && *record.OwnerID != ""
}

// StorageRef returns the blob key for File records, or "".
func (record *Record) StorageRef() string {
	if record.File == nil {
		return ""
	}
	return record.File.StorageRef
}

// RemainingViews returns how many views are left, or nil when unlimited.
func (record *Record) RemainingViews() *int {
	if record.OneTimeView {
		remaining := 1
		if record.ViewCount > 0 {
			remaining = 0
		}
		return &remaining
	}
	if record.MaxViews == nil {
		return nil
	}
	remaining := max(*record.MaxViews-record.ViewCount, 0)
	return &remaining
}

// # Field Identifiers

// Form and JSON field names shared by the HTTP layer and validation errors.
const (
	FieldType          = "type"
	FieldContent       = "content"
	FieldFile          = "file"
	FieldExpiryMinutes = "expiryMinutes"
	FieldExpiresAt     = "expiresAt"
	FieldPassword      = "password"
	FieldMaxViews      = "maxViews"
	FieldOneTimeView   = "oneTimeView"
	FieldAllowedEmails = "allowedEmails"
)
