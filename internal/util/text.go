package util

import "strings"

// SanitizePostgresText strips invalid UTF-8 sequences and NUL bytes,
// which Postgres text columns reject.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}
	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// NormalizeDocumentText prepares scraped text for hashing and storage:
// valid UTF-8, LF line endings, no NUL bytes, no leading or trailing
// whitespace. Content hashes are computed over this form, so it must
// stay deterministic.
func NormalizeDocumentText(value string) string {
	value = SanitizePostgresText(value)
	value = strings.ReplaceAll(value, "\r\n", "\n")
	value = strings.ReplaceAll(value, "\r", "\n")
	return strings.TrimSpace(value)
}

// TruncateAtWord shortens s to at most max bytes without cutting a word
// in half. If the first word alone exceeds max, it is hard-cut.
func TruncateAtWord(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := strings.LastIndexAny(s[:max], " \t\n")
	if cut <= 0 {
		return s[:max]
	}
	return strings.TrimRight(s[:cut], " \t\n")
}
