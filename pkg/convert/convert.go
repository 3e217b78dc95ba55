// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert provides quick type-conversion utilities.

It wraps standards like [strconv] to provide fault-tolerant conversions
(e.g., returning a default instead of an error when parsing fails). This is highly
useful in API handler contexts parsing query parameters.

Do not use this package if distinguishing between malformed data and zero values
is important in your domain logic; use explicit standard libraries instead.
*/
package convert

import (
	"strconv"
	"strings"
)

// ToIntOK parses a base-10 integer after trimming spaces.
// ok is false when the string is empty or malformed, so callers can tell
// "absent" from "zero".
func ToIntOK(s string) (value int, ok bool) {

	// Surrounding whitespace is common in form posts
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Try to parse the string as an integer
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ToIntD converts a string to an int, returning the provided default if parsing fails or string is empty.
func ToIntD(str string, def int) int {
	if v, ok := ToIntOK(str); ok {
		return v
	}
	return def
}

// ToBool parses a boolean string ("true", "1", "on", "false", "0").
// It returns false on empty string or parse error. "on" is what HTML checkboxes submit.
func ToBool(s string) bool {

	// Normalize the input
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return false
	}
	if s == "on" || s == "yes" {
		return true
	}

	// Try to parse the string as a boolean
	v, _ := strconv.ParseBool(s)
	return v
}
