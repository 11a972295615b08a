// Package email delivers transactional and broadcast mail over SMTP.
package email

import "context"

// Sender delivers portal mail. Implementations render HTML templates and
// deliver via the configured transport.
type Sender interface {
	// SendBroadcastEmail delivers one announcement email to a member.
	SendBroadcastEmail(ctx context.Context, toEmail, subject, body string) error

	// SendRegistrationConfirmation confirms an event registration.
	SendRegistrationConfirmation(ctx context.Context, toEmail, eventTitle, startsAt string) error
}

// NopSender discards all mail. Used when SMTP is not configured.
type NopSender struct{}

func (NopSender) SendBroadcastEmail(context.Context, string, string, string) error { return nil }

func (NopSender) SendRegistrationConfirmation(context.Context, string, string, string) error {
	return nil
}
