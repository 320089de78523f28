package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Notifier delivers a message to recipients. Send reports whether the
// message was accepted for delivery; failures are logged, never returned.
type Notifier interface {
	Send(ctx context.Context, recipients []string, subject, body string) bool
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, recipients []string, subject, body string) bool

// Send implements Notifier.
func (f Func) Send(ctx context.Context, recipients []string, subject, body string) bool {
	return f(ctx, recipients, subject, body)
}

// Noop is used when no transport is configured. It logs the message and
// reports it as not sent.
type Noop struct{}

// Send implements Notifier.
func (Noop) Send(_ context.Context, recipients []string, subject, _ string) bool {
	logrus.WithFields(logrus.Fields{
		"recipients": recipients,
		"subject":    subject,
	}).Warn("no mail transport configured, alert not sent")
	return false
}
