package service

import (
	"fmt"
	"unicode"

	"github.com/adamchat/account-service/internal/core/domain"
)

// MinPasswordLength is the shortest password accepted at sign-up or reset.
const MinPasswordLength = 8

// validatePassword rejects passwords that are too short or purely numeric.
func validatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", domain.ErrWeakPassword, MinPasswordLength)
	}
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot be entirely numeric", domain.ErrWeakPassword)
}
