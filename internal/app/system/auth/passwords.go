package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and checks passwords with bcrypt.
type Hasher struct {
	Cost int
}

func (h Hasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Matches reports whether password matches hash. A malformed hash is an error;
// a plain mismatch is not.
func (h Hasher) Matches(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
