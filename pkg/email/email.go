// Package email holds small helpers for addressing outbound mail.
package email

import (
	"net/mail"
	"strings"
	"unicode"
)

// Normalize lowercases and trims an address, returning "" when it does not
// parse as a single RFC 5322 address.
func Normalize(address string) string {
	trimmed := strings.ToLower(strings.TrimSpace(address))
	if trimmed == "" {
		return ""
	}
	parsed, err := mail.ParseAddress(trimmed)
	if err != nil {
		return ""
	}
	return parsed.Address
}

// DisplayName derives a greeting name from the local part of an address,
// e.g. "asha.k@example.org" becomes "Asha". Used when a recipient has no
// stored name, such as a hospital inbox.
func DisplayName(address string) string {
	localPart := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		localPart = address[:at]
	}
	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "there"
	}
	return capitalize(parts[0])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
