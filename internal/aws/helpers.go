package aws

import "time"

// SafeString safely dereferences a string pointer, returning empty string if nil.
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SafeInt64 safely dereferences an int64 pointer, returning 0 if nil.
func SafeInt64(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

// SafeTime safely dereferences a time pointer, returning the zero time if nil.
func SafeTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
