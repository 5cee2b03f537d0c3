// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"
	"unicode"

	"github.com/dalemusser/bloodconnect/internal/domain/models"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses internal whitespace. Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Phone keeps only the digits of s, so "(555) 123-4567" becomes "5551234567".
func Phone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Role lowercases and trims a role. Unknown values return "".
func Role(s string) string {
	r := strings.ToLower(strings.TrimSpace(s))
	if !models.IsValidRole(r) {
		return ""
	}
	return r
}

// Status lowercases and trims a user status. Unknown values return "".
func Status(s string) string {
	st := strings.ToLower(strings.TrimSpace(s))
	if !models.IsValidStatus(st) {
		return ""
	}
	return st
}

// Urgency lowercases a request urgency; blank becomes "normal" and unknown
// values return "".
func Urgency(s string) string {
	u := strings.ToLower(strings.TrimSpace(s))
	if u == "" {
		return models.UrgencyNormal
	}
	if !models.IsValidUrgency(u) {
		return ""
	}
	return u
}

// QueryParam trims a raw query-string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
