package service

import (
	"context"

	"github.com/rs/zerolog"
)

// Mailer delivers the sign-up confirmation link
type Mailer interface {
	SendConfirmation(ctx context.Context, email, link string) error
}

// logMailer writes confirmation links to the log instead of sending mail
type logMailer struct {
	log zerolog.Logger
}

// NewLogMailer creates a Mailer that only logs
func NewLogMailer(log zerolog.Logger) Mailer {
	return &logMailer{log: log.With().Str("component", "mailer").Logger()}
}

func (m *logMailer) SendConfirmation(ctx context.Context, email, link string) error {
	m.log.Info().Str("email", email).Str("link", link).Msg("Confirmation link issued")
	return nil
}
