package utils

import "golang.org/x/crypto/bcrypt"

// bcryptCost mirrors the cost the registration flow has always used.
const bcryptCost = 10

// HashPassword derives a salted bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored hash.
// bcrypt's comparison is constant-time over the derived key.
func VerifyPassword(password, hashedPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
