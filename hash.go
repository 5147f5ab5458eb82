package main

import "golang.org/x/crypto/bcrypt"

// PasswordHasher hashes and verifies operator and account passwords.
// bcrypt is pulled from golang.org/x/crypto, which soju's manifest
// depends on directly for the same purpose; it replaces the teacher's
// plaintext oper-password comparison (local_user.go's operCommand does
// a bare string == against config), which would be unacceptable once
// passwords are persisted to disk via AccountStore rather than compared
// in memory against a config value the operator trusts.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

type bcryptHasher struct {
	cost int
}

func newBcryptHasher() *bcryptHasher {
	return &bcryptHasher{cost: bcrypt.DefaultCost}
}

func (h *bcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *bcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
