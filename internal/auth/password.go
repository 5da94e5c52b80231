package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost is the work factor for password hashing.
const bcryptCost = 10

// HashPassword derives a salted one-way hash from a plaintext password. The
// plaintext is never logged or stored; a hashing failure is fatal to the
// calling operation.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword reports whether the plaintext password matches the stored
// hash. A wrong password yields false, not an error.
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
