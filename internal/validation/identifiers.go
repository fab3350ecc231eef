package validation

import (
	"regexp"
	"strings"
)

var (
	ibanPattern       = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)
	bicPattern        = regexp.MustCompile(`^[A-Z]{6}[A-Z2-9][A-NP-Z0-9]([A-Z0-9]{3})?$`)
	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9+?/\-:().,' ]{1,35}$`)
)

// IsValidIBAN checks the IBAN shape and its ISO 7064 mod-97 check digits.
// The value must be compact (no spaces) and upper case.
func IsValidIBAN(iban string) bool {
	if !ibanPattern.MatchString(iban) {
		return false
	}
	return ibanMod97(iban) == 1
}

// ibanMod97 moves the first four characters to the end, expands letters to
// two digits (A=10 ... Z=35) and returns the remainder modulo 97.
func ibanMod97(iban string) int {
	rearranged := iban[4:] + iban[:4]
	remainder := 0
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			remainder = (remainder*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			v := int(r-'A') + 10
			remainder = (remainder*100 + v) % 97
		}
	}
	return remainder
}

// IsValidBIC checks an 8 or 11 character SWIFT BIC.
func IsValidBIC(bic string) bool {
	return bicPattern.MatchString(bic)
}

// IsValidIdentifier checks the restricted SEPA character set used for
// message ids and end-to-end references (1 to 35 characters).
func IsValidIdentifier(id string) bool {
	return identifierPattern.MatchString(id)
}

// CompactIBAN strips spaces and upper-cases an IBAN as printed on paper.
func CompactIBAN(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(iban), " ", ""))
}
