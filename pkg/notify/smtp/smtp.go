// Package smtp delivers worker notifications over SMTP.
package smtp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/marmos91/workersvc/internal/logger"
)

// ErrNoHost is returned by Validate when no server host is configured.
var ErrNoHost = errors.New("smtp: host not configured")

// DefaultTimeout bounds dialing and each SMTP command.
const DefaultTimeout = 30 * time.Second

// Config describes the SMTP server.
type Config struct {
	Host      string
	Port      int
	EnableSSL bool
	Username  string
	Password  string
	Timeout   time.Duration
}

// Validate checks that the server is addressable.
func (c Config) Validate() error {
	if c.Host == "" {
		return ErrNoHost
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("smtp: invalid port %d", c.Port)
	}
	return nil
}

// client is the part of *mail.Client used by Sender.
type client interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Sender implements worker.NotificationSender. Each call opens its own
// connection; there is no retry.
type Sender struct {
	config    Config
	newClient func(Config) (client, error)
}

// NewSender validates config and returns a Sender.
func NewSender(config Config) (*Sender, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Sender{config: config, newClient: newMailClient}, nil
}

// SendHTML sends a single HTML message.
func (s *Sender) SendHTML(ctx context.Context, from, to, subject, htmlBody string) error {
	msg, err := buildMessage(from, to, subject, htmlBody)
	if err != nil {
		return err
	}

	c, err := s.newClient(s.config)
	if err != nil {
		return fmt.Errorf("smtp: create client for %s: %w", s.config.Host, err)
	}

	logger.DebugCtx(ctx, "Delivering message over SMTP", "host", s.config.Host, "port", s.config.Port, "ssl", s.config.EnableSSL)

	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, htmlBody string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("smtp: invalid sender %q: %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("smtp: invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	return msg, nil
}

func newMailClient(cfg Config) (client, error) {
	var opts []mail.Option

	// The TLS options pick a default port, so WithPort has to follow them.
	if cfg.EnableSSL {
		opts = append(opts, mail.WithSSLPort(false))
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSOpportunistic))
	}
	if cfg.Port != 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}
	opts = append(opts, mail.WithTimeout(cfg.Timeout))

	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}
