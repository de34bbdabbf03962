package auth

import (
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a password with a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// BasicCredentials is a username/password pair extracted from an
// Authorization header.
type BasicCredentials struct {
	Username string
	Password string
}

// DecodeBasic parses a "Basic <base64>" Authorization header value. It is
// the single decode path shared by the admin gate and the per-resource gate.
// The boolean is false when no usable credentials were presented.
func DecodeBasic(header string) (BasicCredentials, bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return BasicCredentials{}, false
	}
	raw, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return BasicCredentials{}, false
	}
	username, password, found := strings.Cut(string(raw), ":")
	if !found {
		return BasicCredentials{}, false
	}
	return BasicCredentials{Username: username, Password: password}, true
}
