package validate

import (
	"strings"

	"github.com/ShiraazMoollatjie/goluhn"
)

// IsCardNumber reports whether s is a 12-19 digit payment card number with
// a valid Luhn checksum. Spaces and dashes between digit groups are ignored.
func IsCardNumber(s string) bool {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(s)
	if len(digits) < 12 || len(digits) > 19 {
		return false
	}
	return goluhn.Validate(digits) == nil
}
