package notify

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 30 * time.Second

// SMTPConfig holds the outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
	Timeout  time.Duration
}

var _ Notifier = &SMTP{}

// SMTP sends plain-text mail through an SMTP relay, one connection per
// message.
type SMTP struct {
	conf SMTPConfig
}

// NewSMTP returns an SMTP notifier. From defaults to Username.
func NewSMTP(conf SMTPConfig) *SMTP {
	if conf.From == "" {
		conf.From = conf.Username
	}
	if conf.Timeout <= 0 {
		conf.Timeout = DefaultTimeout
	}
	return &SMTP{conf: conf}
}

// New returns an SMTP notifier when a host is configured, and Noop
// otherwise.
func New(conf SMTPConfig) Notifier {
	if conf.Host == "" {
		return Noop{}
	}
	return NewSMTP(conf)
}

// Send implements Notifier. The attempt is cut off after the configured
// timeout so a stuck relay cannot stall the caller.
func (s *SMTP) Send(ctx context.Context, recipients []string, subject, body string) bool {
	entry := logrus.WithFields(logrus.Fields{
		"recipients": recipients,
		"subject":    subject,
		"host":       s.conf.Host,
	})

	if len(recipients) == 0 {
		entry.Error("failed to send email: no recipients")
		return false
	}

	msg := mail.NewMsg()
	if err := msg.From(s.conf.From); err != nil {
		entry.Errorf("failed to send email: invalid sender %q: %v", s.conf.From, err)
		return false
	}
	if err := msg.To(recipients...); err != nil {
		entry.Errorf("failed to send email: invalid recipient: %v", err)
		return false
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.conf.Port),
		mail.WithTimeout(s.conf.Timeout),
	}
	if s.conf.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if s.conf.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.conf.Username),
			mail.WithPassword(s.conf.Password),
		)
	}

	client, err := mail.NewClient(s.conf.Host, opts...)
	if err != nil {
		entry.Errorf("failed to send email: %v", err)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, s.conf.Timeout)
	defer cancel()

	// The dial honours ctx, but a relay that stops talking after connect
	// can still block the SMTP exchange, so wait on ctx as well.
	done := make(chan error, 1)
	go func() {
		done <- client.DialAndSendWithContext(ctx, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			entry.Errorf("failed to send email: %v", err)
			return false
		}
	case <-ctx.Done():
		entry.Errorf("failed to send email: %v", ctx.Err())
		return false
	}

	entry.Infof("email sent to %v", recipients)
	return true
}
