// Package utils contains small helpers shared across packages
package utils

import (
	"strings"
	"unicode"
)

// MaxLogStringLength bounds user-provided strings in log lines
const MaxLogStringLength = 200

// SanitizeLogString makes a user-controlled string safe to embed in a log
// line: it truncates long input, flattens control characters to spaces, and
// escapes format specifiers.
func SanitizeLogString(input string) string {
	if input == "" {
		return ""
	}

	if len(input) > MaxLogStringLength {
		input = input[:MaxLogStringLength] + "... (truncated)"
	}

	input = strings.ReplaceAll(input, "\r\n", "\n")
	sanitized := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, input)

	return strings.ReplaceAll(sanitized, "%", "%%")
}
