// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and the authenticated principal.
//
// # Architecture
//
// This package isolates security-sensitive code (key derivation, token
// generation, constant-time comparison) from the domain logic. Domain packages
// depend on it; it depends on nothing in the application.
package sec

import "strings"

// Principal is the authenticated identity attached to a request.
//
// It is resolved from an opaque bearer session token by the identity service
// and carried through the request context by [middleware.Authenticate].
type Principal struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// Is reports whether the principal is the identity with the given id.
// A nil principal matches nothing.
func (p *Principal) Is(userID string) bool {
	return p != nil && userID != "" && p.UserID == userID
}

// HasEmail reports whether the principal's email matches, ignoring case.
func (p *Principal) HasEmail(email string) bool {
	return p != nil && p.Email != "" && strings.EqualFold(p.Email, email)
}
