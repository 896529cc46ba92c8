package utils

import (
	"fmt"

	"ayosnow_backend/internal/interfaces"

	"golang.org/x/crypto/bcrypt"
)

const (
	PasswordModePlain  = "plain"
	PasswordModeBcrypt = "bcrypt"
)

// PlainPasswords stores passwords as supplied and compares them with exact
// string equality.
type PlainPasswords struct{}

func (PlainPasswords) Encode(password string) (string, error) {
	return password, nil
}

func (PlainPasswords) Matches(stored, supplied string) bool {
	return stored == supplied
}

type BcryptPasswords struct {
	Cost int
}

func (b BcryptPasswords) Encode(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (BcryptPasswords) Matches(stored, supplied string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
}

// NewPasswordMatcher returns the matcher for a PASSWORD_MODE value.
func NewPasswordMatcher(mode string) (interfaces.PasswordMatcher, error) {
	switch mode {
	case PasswordModePlain, "":
		return PlainPasswords{}, nil
	case PasswordModeBcrypt:
		return BcryptPasswords{}, nil
	default:
		return nil, fmt.Errorf("unknown password mode %q", mode)
	}
}
