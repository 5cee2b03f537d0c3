// Package htmlsanitize strips markup from user-supplied free text before it
// is stored. Request details, hospital names and donation locations are
// rendered by the browser, so they are kept as plain text only.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes every tag and attribute from s and trims the result.
// Entities produced by the policy are unescaped again so "A&B Clinic"
// round-trips unchanged.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
