// internal/app/system/inputval/inputval.go
package inputval

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dalemusser/bloodconnect/internal/domain/bloodtype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nameRe  = regexp.MustCompile(`^[a-zA-Z\s]+$`)
)

// PasswordSpecials is the set of characters that satisfy the special
// character rule.
const PasswordSpecials = `!@#$%^&*(),.?":{}|<>`

// MinPasswordLen is the shortest password accepted at registration.
const MinPasswordLen = 8

// IsValidEmail reports whether s looks like a deliverable address.
// Dots may not lead, trail or repeat in either part.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if !emailRe.MatchString(s) {
		return false
	}
	local, domain, _ := strings.Cut(s, "@")
	for _, part := range []string{local, domain} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}

// IsValidPhone reports whether s contains exactly ten digits once
// formatting characters are ignored.
func IsValidPhone(s string) bool {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n == 10
}

// IsValidName reports whether s is at least two characters of letters and
// spaces.
func IsValidName(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) >= 2 && nameRe.MatchString(s)
}

// PasswordProblems lists the rules pw breaks. An empty result means pw is
// acceptable.
func PasswordProblems(pw string) []string {
	var out []string
	if len(pw) < MinPasswordLen {
		out = append(out, "at least 8 characters")
	}
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSpecials, r):
			special = true
		}
	}
	if !upper {
		out = append(out, "one uppercase letter")
	}
	if !lower {
		out = append(out, "one lowercase letter")
	}
	if !digit {
		out = append(out, "one number")
	}
	if !special {
		out = append(out, "one special character")
	}
	return out
}

// IsValidBloodType reports whether s is exactly one of the eight blood types.
func IsValidBloodType(s string) bool {
	return bloodtype.Valid(s)
}

// IsValidObjectID reports whether s is a 24-character hex ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

// FieldError is a single failed rule.
type FieldError struct {
	Field   string
	Message string
}

// Result collects FieldErrors in the order checks ran.
type Result struct {
	Errors []FieldError
}

// Check records msg against field when ok is false.
func (r *Result) Check(ok bool, field, msg string) {
	if !ok {
		r.Errors = append(r.Errors, FieldError{Field: field, Message: msg})
	}
}

// HasErrors reports whether any check failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}
