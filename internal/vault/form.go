// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vault

import (
	"io"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/taibuivan/vaultlink/internal/platform/validate"
	"github.com/taibuivan/vaultlink/pkg/convert"
	"github.com/taibuivan/vaultlink/pkg/pointer"
)

// Upload is the file part of a create request.
// Content may also implement [io.Seeker]; it is rewound after sniffing when it does.
type Upload struct {
	Name    string
	Size    int64
	Content io.Reader
}

// CreateInput is a typed create request.
type CreateInput struct {
	Kind              Kind
	Text              string
	Upload            *Upload
	ExpiryMinutes     *int
	ExpiresAt         *time.Time
	Password          string
	MaxViews          *int
	OneTimeView       bool
	AllowedIdentities []string
}

/*
ParseCreateForm coerces loosely typed form values into a [CreateInput].

Form fields arrive as strings. Coercion follows these rules:

  - expiryMinutes: a positive integer, absent means the configured default.
  - expiresAt: an RFC 3339 timestamp; exclusive with expiryMinutes.
  - maxViews: ignored when it is not a positive integer.
  - oneTimeView: "true", "1", "on" or "yes" (case-insensitive).
  - allowedEmails: separated by commas, semicolons or whitespace; normalized and deduplicated.

Field problems are collected and returned together as one validation error.
*/
func ParseCreateForm(values url.Values) (*CreateInput, error) {
	input := &CreateInput{
		Text:        values.Get(FieldContent),
		Password:    values.Get(FieldPassword),
		OneTimeView: convert.ToBool(values.Get(FieldOneTimeView)),
	}

	v := &validate.Validator{}

	// 1. Kind
	kind, ok := ParseKind(strings.TrimSpace(values.Get(FieldType)))
	v.Custom(FieldType, !ok, "Must be one of: text, file")
	input.Kind = kind

	// 2. Expiry, relative or absolute
	rawMinutes := strings.TrimSpace(values.Get(FieldExpiryMinutes))
	rawExpiresAt := strings.TrimSpace(values.Get(FieldExpiresAt))

	v.Custom(FieldExpiresAt, rawMinutes != "" && rawExpiresAt != "", "Use either expiryMinutes or expiresAt, not both")

	if rawMinutes != "" {
		minutes, ok := convert.ToIntOK(rawMinutes)
		v.Custom(FieldExpiryMinutes, !ok || minutes <= 0, "Must be a positive number of minutes")
		if ok && minutes > 0 {
			input.ExpiryMinutes = pointer.To(minutes)
		}
	}

	if rawExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, rawExpiresAt)
		v.Custom(FieldExpiresAt, err != nil, "Must be an RFC 3339 timestamp")
		if err == nil {
			input.ExpiresAt = pointer.To(expiresAt)
		}
	}

	// 3. View cap, tolerant of junk
	if maxViews, ok := convert.ToIntOK(strings.TrimSpace(values.Get(FieldMaxViews))); ok && maxViews > 0 {
		input.MaxViews = pointer.To(maxViews)
	}

	// 4. Identity allow-list
	emails, invalid := parseEmailList(values.Get(FieldAllowedEmails))
	v.Custom(FieldAllowedEmails, len(invalid) > 0, "Invalid email: "+strings.Join(invalid, ", "))
	v.Custom(FieldAllowedEmails, len(emails) > MaxAllowedIdentities, "Too many emails")
	input.AllowedIdentities = emails

	if err := v.Err(); err != nil {
		return nil, err
	}

	return input, nil
}

// parseEmailList splits, normalizes and deduplicates a free-form email list.
// Entries that are not bare addresses are returned separately.
func parseEmailList(raw string) (emails, invalid []string) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})

	for _, field := range fields {
		email := validate.NormalizeEmail(field)
		if !validate.IsEmail(email) {
			invalid = append(invalid, field)
			continue
		}
		if !slices.Contains(emails, email) {
			emails = append(emails, email)
		}
	}

	return emails, invalid
}
