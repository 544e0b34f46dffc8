package model1

import "strings"

// ErrorColumn names the column carrying a row failure, if any.
const ErrorColumn = "ERROR"

// IsValid returns false when the row reports a failure in its error column.
func IsValid(h Header, r Row) bool {
	idx, ok := h.IndexOf(ErrorColumn, true)
	if !ok || idx >= len(r.Fields) {
		return true
	}

	return isPlaceholder(strings.TrimSpace(r.Fields[idx]))
}
