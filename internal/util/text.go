package util

import "strings"

// SanitizeJSONB makes encoded JSON storable in a jsonb column, which rejects
// invalid UTF-8 and NUL characters, raw or escaped.
func SanitizeJSONB(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	sanitized = strings.ReplaceAll(sanitized, "\x00", "")
	return strings.ReplaceAll(sanitized, `\u0000`, "")
}
