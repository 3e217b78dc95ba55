// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package filename cleans user-supplied upload names before they are stored
// or echoed back in a Content-Disposition header.
//
// # Usage
//
// Original names are display metadata only. They never become storage keys,
// so this package only needs to make them safe to show and to download under.
package filename

import (
	"net/url"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// Fallback is used when nothing printable is left after sanitizing.
	Fallback = "download"

	// maxBytes keeps names within common filesystem limits.
	maxBytes = 255

	// maxExtensionLength bounds what counts as an extension.
	maxExtensionLength = 10
)

// Sanitize returns a display-safe version of an uploaded filename.
//
// # Transformation Pipeline
//
// 1. Drops any directory part (both / and \ separators).
// 2. Normalizes to NFC so visually identical names compare equal.
// 3. Removes control characters and quotes.
// 4. Trims spaces and dots, then truncates to 255 bytes on a rune boundary.
func Sanitize(name string) string {
	// 1. Strip client-side paths ("C:\Users\me\a.pdf", "../../a.pdf")
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)

	// 2. Canonical composition
	name = norm.NFC.String(name)

	// 3. Remove characters that break headers or terminals
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == '"' || r == '/' {
			return -1
		}
		return r
	}, name)

	// 4. Trim and bound
	name = strings.Trim(name, " .")
	name = truncate(name, maxBytes)

	if name == "" {
		return Fallback
	}
	return name
}

// Extension returns the lowercase extension of name including the dot,
// or "" when the name has none or it is implausibly long.
func Extension(name string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(name, `\`, "/")))
	if len(ext) < 2 || len(ext) > maxExtensionLength {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

// ASCII folds name to printable ASCII for legacy header consumers.
//
// Accents are removed via NFD decomposition (é becomes e), anything else
// outside ASCII becomes an underscore.
func ASCII(name string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	folded, _, _ := transform.String(t, name)

	folded = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, folded)

	if strings.Trim(folded, "_ .") == "" {
		return Fallback
	}
	return folded
}

// ContentDisposition builds an attachment header carrying both an ASCII
// fallback and the RFC 5987 UTF-8 form of name.
func ContentDisposition(name string) string {
	clean := Sanitize(name)
	return `attachment; filename="` + ASCII(clean) + `"; filename*=UTF-8''` + url.PathEscape(clean)
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
