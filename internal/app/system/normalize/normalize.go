// internal/app/system/normalize/normalize.go

// Package normalize holds the canonical-form rules for user-entered fields.
// Stores apply these before writing so that lookups and unique indexes see
// one spelling of each value.
package normalize

import "strings"

// Email lowercases and trims an email address. Empty or whitespace-only
// input normalizes to "".
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Phone strips spaces and common separators, preserving a leading +.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
