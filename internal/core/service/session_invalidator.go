package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/adamchat/account-service/internal/core/ports"
)

var _ ports.SessionInvalidator = (*SessionInvalidator)(nil)

type sessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID string) error
}

// SessionInvalidator ends every session of a user. Password reset, password
// change and "log out everywhere" all go through it.
type SessionInvalidator struct {
	revoker sessionRevoker
	log     zerolog.Logger
}

func NewSessionInvalidator(revoker sessionRevoker, log zerolog.Logger) *SessionInvalidator {
	return &SessionInvalidator{revoker: revoker, log: log}
}

func (s *SessionInvalidator) Invalidate(ctx context.Context, userID string) error {
	if err := s.revoker.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}
	s.log.Debug().Str("user_id", userID).Msg("sessions invalidated")
	return nil
}
