package password

import (
	"fmt"
	"unicode"
)

// Policy is a pluggable password strength predicate. It returns nil when
// the candidate password is acceptable and a descriptive error otherwise.
// Policy errors are safe to disclose to callers; they never contain the
// password itself.
type Policy func(password string) error

// NewPolicy builds the default strength policy: a minimum byte length and a
// minimum number of distinct character classes (lowercase, uppercase,
// digit, symbol) out of four.
func NewPolicy(minLength, minClasses int) Policy {
	return func(password string) error {
		if len(password) < minLength {
			return fmt.Errorf("password must be at least %d characters", minLength)
		}

		var lower, upper, digit, symbol bool
		for _, r := range password {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			default:
				symbol = true
			}
		}

		classes := 0
		for _, present := range []bool{lower, upper, digit, symbol} {
			if present {
				classes++
			}
		}
		if classes < minClasses {
			return fmt.Errorf("password must mix at least %d character classes", minClasses)
		}

		return nil
	}
}
