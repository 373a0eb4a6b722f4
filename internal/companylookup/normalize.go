package companylookup

import "strings"

// Normalize canonicalizes a national company identifier: uppercase, trim,
// drop a leading two-letter country prefix (e.g. "RO"), then keep digits
// only. The result may be empty when the input carries no digits.
func Normalize(identifier string) string {
	s := strings.ToUpper(strings.TrimSpace(identifier))
	if len(s) >= 2 && isLetter(s[0]) && isLetter(s[1]) {
		s = s[2:]
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z'
}
