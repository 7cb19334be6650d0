// Package strings holds slice helpers for recipient lists.
package strings

import "strings"

// Unique trims each value, drops blanks and keeps the first value for each
// key that fold produces. Order is preserved. A nil fold compares values as-is.
func Unique(values []string, fold func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := v
		if fold != nil {
			key = fold(v)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// Addresses lowercases and deduplicates email addresses.
func Addresses(values []string) []string {
	return Unique(values, strings.ToLower)
}
