package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements Sender using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// SendBroadcastEmail delivers one announcement email to a member.
func (s *SMTPSender) SendBroadcastEmail(ctx context.Context, toEmail, subject, body string) error {
	content, err := renderEmailTemplate("broadcast.html", broadcastEmailData{
		baseEmailData: baseEmailData{
			Title:   subject,
			Heading: subject,
		},
		Body: body,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

// SendRegistrationConfirmation confirms an event registration.
func (s *SMTPSender) SendRegistrationConfirmation(ctx context.Context, toEmail, eventTitle, startsAt string) error {
	subject := fmt.Sprintf(subjectRegistrationConfirmedFmt, eventTitle)
	content, err := renderEmailTemplate("registration_confirmed.html", registrationEmailData{
		baseEmailData: baseEmailData{
			Title:   "Registration confirmed",
			Heading: "Registration confirmed",
		},
		EventTitle: eventTitle,
		StartsAt:   startsAt,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}
