// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored secrets.
const PasswordCost = 10

// HashPassword hashes a plain-text password using the bcrypt algorithm.
func HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("auth: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// VerifyPassword compares a plain-text password with a stored bcrypt hash.
//
// A mismatch yields (false, nil). A stored hash that bcrypt cannot parse yields
// (false, err); callers treat it as a failed verification and log it as a
// data-integrity problem.
func VerifyPassword(plainTextPassword, storedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plainTextPassword))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("auth: malformed password hash: %w", err)
}

// dummyHash is computed once, on the first login attempt for an unknown account.
var dummyHash = sync.OnceValue(func() string {
	hash, _ := bcrypt.GenerateFromPassword([]byte("modgate-unknown-account"), PasswordCost)
	return string(hash)
})

// DummyPasswordHash returns a fixed, valid hash at [PasswordCost]. Comparing a
// password against it costs the same as checking a real account.
func DummyPasswordHash() string {
	return dummyHash()
}
