package ports

import "context"

// Notifier delivers a reset code to the account holder out of band.
type Notifier interface {
	SendResetCode(ctx context.Context, email, code string) error
}
