package domain

import "time"

const (
	// ResetCodeLength is the number of decimal digits in a reset code.
	ResetCodeLength = 6
	// ResetCodeTTL is how long an issued code stays valid.
	ResetCodeTTL = 30 * time.Minute
)

// ResetCode authorises a single password change without the old password.
// Codes are not globally unique; only the latest code per email matters.
type ResetCode struct {
	Email     string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// Active reports whether the code can still be redeemed at now.
func (c *ResetCode) Active(now time.Time) bool {
	return !c.Used && now.Before(c.ExpiresAt)
}
