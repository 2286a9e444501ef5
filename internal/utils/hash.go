package utils

import "golang.org/x/crypto/bcrypt"

// HashAccessKey returns the bcrypt hash stored for an admin access key.
func HashAccessKey(key string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(hashed), err
}

// CheckAccessKey reports whether key matches the stored hash.
func CheckAccessKey(hashed, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(key)) == nil
}
