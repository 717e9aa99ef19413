package helpers

import "strings"

// NilIfEmpty trims s and returns nil when nothing is left, so optional
// columns are stored as NULL instead of ''.
func NilIfEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// StringPtrIfNotEmpty is NilIfEmpty for plain strings
func StringPtrIfNotEmpty(s string) *string {
	return NilIfEmpty(&s)
}
