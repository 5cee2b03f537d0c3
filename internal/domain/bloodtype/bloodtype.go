// Package bloodtype holds the ABO/Rh blood type vocabulary and the
// red-cell donor compatibility table.
package bloodtype

import "strings"

// The eight ABO/Rh blood types.
const (
	APos  = "A+"
	ANeg  = "A-"
	BPos  = "B+"
	BNeg  = "B-"
	ABPos = "AB+"
	ABNeg = "AB-"
	OPos  = "O+"
	ONeg  = "O-"
)

var all = []string{APos, ANeg, BPos, BNeg, ABPos, ABNeg, OPos, ONeg}

// donorsFor maps a recipient type to the donor types whose red cells it can
// receive. The recipient's own type is always listed first.
var donorsFor = map[string][]string{
	APos:  {APos, ANeg, OPos, ONeg},
	ANeg:  {ANeg, ONeg},
	BPos:  {BPos, BNeg, OPos, ONeg},
	BNeg:  {BNeg, ONeg},
	ABPos: {ABPos, ABNeg, APos, ANeg, BPos, BNeg, OPos, ONeg},
	ABNeg: {ABNeg, ANeg, BNeg, ONeg},
	OPos:  {OPos, ONeg},
	ONeg:  {ONeg},
}

// All returns the eight blood types in display order.
func All() []string {
	out := make([]string, len(all))
	copy(out, all)
	return out
}

// Valid reports whether s is exactly one of the eight blood types.
func Valid(s string) bool {
	_, ok := donorsFor[s]
	return ok
}

// Parse canonicalizes user or query-string input and reports whether the
// result is valid. Lowercase letters are accepted, and a trailing space is
// read as "+" since an unescaped "+" in a query string decodes to a space.
func Parse(s string) (string, bool) {
	s = strings.TrimLeft(s, " \t")
	if strings.HasSuffix(s, " ") {
		s = strings.TrimRight(s, " ") + "+"
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if !Valid(s) {
		return "", false
	}
	return s, true
}

// DonorsFor returns the donor types compatible with a recipient of type t,
// or nil if t is not a valid blood type.
func DonorsFor(t string) []string {
	d, ok := donorsFor[t]
	if !ok {
		return nil
	}
	out := make([]string, len(d))
	copy(out, d)
	return out
}

// CanReceive reports whether a recipient of type recipient can receive red
// cells from a donor of type donor.
func CanReceive(recipient, donor string) bool {
	for _, d := range donorsFor[recipient] {
		if d == donor {
			return true
		}
	}
	return false
}
