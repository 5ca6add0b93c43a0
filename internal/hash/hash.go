package hash

import "golang.org/x/crypto/bcrypt"

// cost 10 keeps verification under ~100ms while staying expensive enough
// for offline attacks.
const cost = 10

func HashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
