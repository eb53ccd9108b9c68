package utils

import "strings"

// NormalizePhone converts a raw phone number into E.164-ish +<countrycode><digits>
// form. Ten-digit numbers are assumed to be US/Canada and get a "1" prefix.
// Returns an empty string when the input contains no digits.
func NormalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	s := digits.String()
	if s == "" {
		return ""
	}

	if len(s) == 10 {
		s = "1" + s
	}

	return "+" + s
}
