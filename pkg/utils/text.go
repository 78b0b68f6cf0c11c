// Package utils provides shared utilities for text handling and logging.
package utils

import "unicode/utf8"

// Prefix returns the first n characters (runes) of s. If s is already n
// characters or shorter, or n is negative, s is returned unchanged.
func Prefix(s string, n int) string {
	if n < 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Truncate returns s cut to maxLen characters with "..." appended if it was cut.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return Prefix(s, maxLen) + "..."
}
