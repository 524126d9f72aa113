package auth

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const specialChars = `!@#$%^&*(),.?":{}|<>`

// ValidatePassword enforces the registration/reset password policy. The
// returned message is shown to the user verbatim.
func ValidatePassword(password string) *Failure {
	if len(password) < 8 {
		return validationFailure("Password must be at least 8 characters long.")
	}

	var hasUpper, hasLower, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
		if strings.ContainsRune(specialChars, r) {
			hasSpecial = true
		}
	}

	if !hasUpper || !hasLower {
		return validationFailure("Password must contain uppercase and lowercase letters.")
	}
	if !hasSpecial {
		return validationFailure("Password must contain a special character.")
	}

	return nil
}

// HashPassword produces a salted bcrypt hash; the salt is embedded in the
// output so nothing needs to be stored alongside it.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored hash. Malformed
// hashes are treated as a mismatch, never an error.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
