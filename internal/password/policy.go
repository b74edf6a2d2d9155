package password

import (
	"strings"
	"unicode"

	"blog-platform/internal/model"
	"blog-platform/pkg/apperr"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost factor for stored credentials.
const HashCost = 12

// specialChars is the fixed set satisfying the require-special rule.
const specialChars = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// Policy holds one tenant's password rules. It is data-driven so
// policy differences between tenants never fork code paths.
type Policy struct {
	MinLength        int
	RequireUppercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// PolicyForTenant extracts the password policy from a tenant row.
func PolicyForTenant(t *model.Tenant) Policy {
	return Policy{
		MinLength:        t.PasswordMinLength,
		RequireUppercase: t.PasswordRequireUppercase,
		RequireNumber:    t.PasswordRequireNumber,
		RequireSpecial:   t.PasswordRequireSpecial,
	}
}

// Validate checks the candidate against the policy, in order: minimum
// length, then each enabled character-class rule. It returns on the
// first failing rule with a message naming that rule and the tenant's
// active thresholds.
func Validate(policy Policy, candidate string) error {
	if len(candidate) < policy.MinLength {
		return apperr.Validation("password must be at least %d characters long", policy.MinLength)
	}
	if policy.RequireUppercase && !containsUppercase(candidate) {
		return apperr.Validation("password must contain at least one uppercase letter")
	}
	if policy.RequireNumber && !containsDigit(candidate) {
		return apperr.Validation("password must contain at least one number")
	}
	if policy.RequireSpecial && !strings.ContainsAny(candidate, specialChars) {
		return apperr.Validation("password must contain at least one special character")
	}
	return nil
}

// Hash returns the bcrypt hash of the plain password.
func Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), HashCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compares the stored hash against the plain password.
func Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func containsUppercase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
