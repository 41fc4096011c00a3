// Package validation provides field-level constraint checks applied to
// request payloads before they reach business logic. Validators are pure
// functions returning every violated constraint, not just the first.
package validation

import (
	"regexp"
	"strings"
)

// Violation messages returned to clients.
const (
	MsgUserName      = "Name must be between 20 and 60 characters"
	MsgStoreName     = "Name must be between 5 and 60 characters"
	MsgOwnerName     = "Owner name must be between 20 and 60 characters"
	MsgEmail         = "Valid email is required"
	MsgPassword      = "Password must be 8-16 characters with at least one uppercase letter and one special character"
	MsgOwnerPassword = "Owner password must be 8-16 characters with at least one uppercase letter and one special character"
	MsgAddress       = "Address is required and must not exceed 400 characters"
	MsgRating        = "Rating must be between 1 and 5"
)

// emailPattern requires a non-whitespace local part, a non-whitespace domain,
// a literal dot and a non-whitespace tail.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const passwordSpecials = "!@#$%^&*"

// ValidUserName reports whether name satisfies the 20-60 character rule.
func ValidUserName(name string) bool {
	return len(name) >= 20 && len(name) <= 60
}

// ValidStoreName reports whether name satisfies the 5-60 character rule.
func ValidStoreName(name string) bool {
	return len(name) >= 5 && len(name) <= 60
}

// ValidEmail reports whether email matches the local@domain.tld pattern.
func ValidEmail(email string) bool {
	return email != "" && emailPattern.MatchString(email)
}

// ValidAddress reports whether address is non-empty and at most 400 characters.
func ValidAddress(address string) bool {
	return address != "" && len(address) <= 400
}

// ValidPassword reports whether password is 8-16 characters drawn from
// letters, digits and !@#$%^&*, with at least one uppercase letter and at
// least one special character. Go's regexp has no lookahead, so the rule is
// checked with explicit scans rather than the single-pattern form.
func ValidPassword(password string) bool {
	if len(password) < 8 || len(password) > 16 {
		return false
	}
	var hasUpper, hasSpecial bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case strings.ContainsRune(passwordSpecials, c):
			hasSpecial = true
		default:
			return false
		}
	}
	return hasUpper && hasSpecial
}

// ValidRating reports whether value is within the legal [1,5] range.
func ValidRating(value int) bool {
	return value >= 1 && value <= 5
}

// User validates user fields. password is checked only when non-nil so the
// same validator serves payloads with and without a password field.
func User(name, email, address string, password *string) []string {
	var errs []string
	if !ValidUserName(name) {
		errs = append(errs, MsgUserName)
	}
	if !ValidEmail(email) {
		errs = append(errs, MsgEmail)
	}
	if password != nil && !ValidPassword(*password) {
		errs = append(errs, MsgPassword)
	}
	if !ValidAddress(address) {
		errs = append(errs, MsgAddress)
	}
	return errs
}

// Store validates store fields.
func Store(name, email, address string) []string {
	var errs []string
	if !ValidStoreName(name) {
		errs = append(errs, MsgStoreName)
	}
	if !ValidEmail(email) {
		errs = append(errs, MsgEmail)
	}
	if !ValidAddress(address) {
		errs = append(errs, MsgAddress)
	}
	return errs
}
