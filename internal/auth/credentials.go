package auth

import "regexp"

// PasswordPolicyMessage describes the password policy to clients.
const PasswordPolicyMessage = "Password must be at least 8 characters with uppercase, lowercase, and number"

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// EmailPattern is a shape check only: local@domain with a dotted domain.
var EmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether s looks like an email address. No DNS lookups.
func IsValidEmail(s string) bool {
	return EmailPattern.MatchString(s)
}

// IsValidPassword enforces length plus one lower, one upper and one digit.
func IsValidPassword(s string) bool {
	if len([]rune(s)) < MinPasswordLength {
		return false
	}

	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit
}
