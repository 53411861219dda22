// Package notify delivers user-facing notifications for marketplace events.
// Real email delivery is out of scope; the slog implementation stands in and
// keeps the call sites honest.
package notify

import (
	"context"
	"log/slog"
)

type Notification struct {
	Recipient string // user email
	Subject   string
	Body      string
}

type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, n Notification) error {
	slog.InfoContext(ctx, "notification", "to", n.Recipient, "subject", n.Subject, "body", n.Body)
	return nil
}
