// internal/app/system/authutil/authutil.go

// Package authutil holds the password hashing primitive. Hashing happens
// only at registration and password change; verification only at login.
package authutil

import "golang.org/x/crypto/bcrypt"

// BcryptCost balances login latency against brute-force resistance.
const BcryptCost = 12

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
