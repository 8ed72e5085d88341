package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

const defaultSendTimeout = 15 * time.Second

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// TLS is TLSStartTLS, TLSImplicit or TLSNone.
	TLS     string
	Timeout time.Duration
}

const (
	TLSStartTLS = "starttls"
	TLSImplicit = "tls"
	TLSNone     = "none"
)

// SMTPNotifier emails reset codes through an SMTP relay.
type SMTPNotifier struct {
	cfg SMTPConfig
	ttl time.Duration
}

// NewSMTPNotifier validates cfg. ttl is only used in the message body.
func NewSMTPNotifier(cfg SMTPConfig, ttl time.Duration) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("SMTP from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSendTimeout
	}
	return &SMTPNotifier{cfg: cfg, ttl: ttl}, nil
}

func (n *SMTPNotifier) SendResetCode(ctx context.Context, email, code string) error {
	msg, err := n.buildMessage(email, code)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(n.cfg.Host, n.clientOptions()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

func (n *SMTPNotifier) buildMessage(to, code string) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if n.cfg.FromName != "" {
		if err := msg.FromFormat(n.cfg.FromName, n.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else if err := msg.From(n.cfg.From); err != nil {
		return nil, fmt.Errorf("setting from address: %w", err)
	}

	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject("Your password reset code")
	msg.SetBodyString(mail.TypeTextPlain, resetBody(code, n.ttl))
	return msg, nil
}

func (n *SMTPNotifier) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithTimeout(n.cfg.Timeout),
	}

	switch strings.ToLower(n.cfg.TLS) {
	case TLSNone:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	case TLSImplicit:
		opts = append(opts, mail.WithSSL())
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	if n.cfg.Username != "" && n.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	}
	return opts
}

func resetBody(code string, ttl time.Duration) string {
	return fmt.Sprintf(
		"Your password reset code is %s.\n\nIt expires in %d minutes and can be used once. "+
			"If you did not ask to reset your password, ignore this message.\n",
		code, int(ttl.Minutes()),
	)
}
