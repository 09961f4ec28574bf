// Package phone normalizes contact phone numbers for submissions.
package phone

import "strings"

// Format renders North American numbers as "(AAA) BBB-CCCC" and 11-digit
// numbers with a leading 1 as "+1 (AAA) BBB-CCCC". Anything else is returned trimmed.
func Format(raw string) string {
	trimmed := strings.TrimSpace(raw)
	digits := Digits(trimmed)

	switch {
	case len(digits) == 10:
		return nanp(digits)
	case len(digits) == 11 && digits[0] == '1':
		return "+1 " + nanp(digits[1:])
	default:
		return trimmed
	}
}

// Digits strips everything but ASCII digits.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func nanp(d string) string {
	return "(" + d[0:3] + ") " + d[3:6] + "-" + d[6:10]
}
