package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/synaptica-ai/noshow/pkg/common/logger"
	"github.com/wneessen/go-mail"
)

const implicitTLSPort = 465

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// mailSender is satisfied by *mail.Client.
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPNotifier sends plain-text mail through an authenticated relay.
type SMTPNotifier struct {
	cfg    SMTPConfig
	client mailSender
	now    func() time.Time
}

func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" || cfg.Port == "" {
		return nil, errors.New("smtp host and port required")
	}
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp port %q: %w", cfg.Port, err)
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.From == "" {
		return nil, errors.New("smtp sender address required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTimeout(cfg.Timeout),
	}
	if port == implicitTLSPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating smtp client: %w", err)
	}
	return &SMTPNotifier{cfg: cfg, client: client, now: time.Now}, nil
}

// SendEmail delivers one message. It gives up when ctx or the configured timeout expires.
func (n *SMTPNotifier) SendEmail(ctx context.Context, subject, body, recipient string) error {
	if strings.TrimSpace(recipient) == "" {
		return errors.New("recipient required")
	}

	msg, err := n.buildMessage(subject, body, recipient)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("sending email to %s: %w", recipient, ctx.Err())
		}
		return fmt.Errorf("sending email to %s: %w", recipient, err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"recipient": recipient,
		"subject":   subject,
	}).Info("Email sent")
	return nil
}

func (n *SMTPNotifier) buildMessage(subject, body, recipient string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", n.cfg.From, err)
	}
	if err := msg.To(recipient); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", recipient, err)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(n.now())
	msg.SetMessageIDWithValue(fmt.Sprintf("%s@%s", uuid.New().String(), n.cfg.Host))
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
