package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// NewIBAN generates a Dutch-format IBAN for the given 4-letter bank code:
// "NL" + two check digits + bank code + a random 10-digit account number.
// Randomness comes from crypto/rand, so collisions are negligible; the unique
// index on the accounts table is the backstop.
func NewIBAN(bankCode string) (string, error) {
	bankCode = strings.ToUpper(strings.TrimSpace(bankCode))
	if len(bankCode) != 4 {
		return "", fmt.Errorf("bank code must be exactly 4 letters, got %q", bankCode)
	}
	for _, ch := range bankCode {
		if ch < 'A' || ch > 'Z' {
			return "", fmt.Errorf("bank code must be exactly 4 letters, got %q", bankCode)
		}
	}

	max := big.NewInt(10_000_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate account number: %w", err)
	}

	bban := bankCode + fmt.Sprintf("%010d", n)
	check := 98 - mod97(bban+"NL00")

	return fmt.Sprintf("NL%02d%s", check, bban), nil
}

// ValidIBAN reports whether the string passes the ISO 13616 mod-97 check for
// the NL layout this service issues.
func ValidIBAN(iban string) bool {
	iban = strings.ToUpper(strings.TrimSpace(iban))
	if len(iban) != 18 || !strings.HasPrefix(iban, "NL") {
		return false
	}
	return mod97(iban[4:]+iban[:4]) == 1
}

// mod97 maps letters to 10..35, digits to themselves, and reduces the
// resulting number modulo 97 digit by digit.
func mod97(s string) int {
	rem := 0
	for _, ch := range s {
		switch {
		case ch >= '0' && ch <= '9':
			rem = (rem*10 + int(ch-'0')) % 97
		case ch >= 'A' && ch <= 'Z':
			v := int(ch-'A') + 10
			rem = (rem*100 + v) % 97
		default:
			return -1
		}
	}
	return rem
}
