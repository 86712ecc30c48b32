package service

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLength = 8
	// SpecialChars is the symbol set accepted by the special-character rule.
	SpecialChars = "#?!@$%^&*-"
)

const (
	msgTooShort    = "password should be at least 8 characters"
	msgComposition = "password should include a lowercase letter, an uppercase letter and a digit"
	msgSpecialChar = "password should contain a special character (" + SpecialChars + ")"
)

// PasswordPolicy checks candidate passwords against composition rules.
// With RequireSpecialChar unset the special-character rule never fires.
type PasswordPolicy struct {
	RequireSpecialChar bool
}

func NewPasswordPolicy(requireSpecialChar bool) *PasswordPolicy {
	return &PasswordPolicy{RequireSpecialChar: requireSpecialChar}
}

// Validate returns every violated rule, or nil when the password is acceptable.
func (p *PasswordPolicy) Validate(password string) []string {
	var violations []string

	if utf8.RuneCountInString(password) < minPasswordLength {
		violations = append(violations, msgTooShort)
	}

	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		violations = append(violations, msgComposition)
	}

	if p.RequireSpecialChar && !strings.ContainsAny(password, SpecialChars) {
		violations = append(violations, msgSpecialChar)
	}

	return violations
}
