package auth

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 5

// ValidatePassword checks that a password has at least 5 characters and contains at least one digit.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength || !strings.ContainsAny(password, "0123456789") {
		return fmt.Errorf("password must be at least %d characters long and contain at least one number", minPasswordLength)
	}
	return nil
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %v", err)
	}
	return string(b), nil
}

// VerifyPassword reports whether a password matches a hash, created by [HashPassword].
func VerifyPassword(password string, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
