package notifier

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes reset codes to the log instead of delivering them. It
// exists for development and tests only; cmd/server refuses to wire it in
// production.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendResetCode(_ context.Context, email, code string) error {
	n.log.Warn().
		Bool("dev_mode", true).
		Str("email", email).
		Str("code", code).
		Msg("reset code (no notifier configured)")
	return nil
}
