package sqlite

import (
	"strings"

	"github.com/benjamonnguyen/daybook"
)

type scannable interface {
	Scan(...any) error
}

// generateParameters returns "(?,?,...)" with n placeholders.
func generateParameters(n int) string {
	if n == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("(?")
	for range n - 1 {
		sb.WriteString(",?")
	}

	sb.WriteString(")")
	return sb.String()
}

// statusClause returns an " AND status IN (...)" filter, or nothing when no
// statuses are given.
func statusClause(statuses []daybook.Status) (string, []any) {
	if len(statuses) == 0 {
		return "", nil
	}
	args := make([]any, 0, len(statuses))
	for _, s := range statuses {
		args = append(args, string(s))
	}
	return " AND status IN " + generateParameters(len(statuses)), args
}
