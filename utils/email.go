package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/meinhoongagan/trucktrack/logging"
	"gopkg.in/gomail.v2"
)

// Mailer delivers HTML email.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, user, pass string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   user,
	}
}

func (m *SMTPMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogMailer writes messages to the log instead of sending them.
// It is used when no SMTP host is configured.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	m.log.Info(ctx, "email not sent, SMTP disabled", "to", to, "subject", subject, "body", body)
	return nil
}

// SendOTPEmail sends a registration code valid for ttl.
func SendOTPEmail(ctx context.Context, m Mailer, to, otp string, ttl time.Duration) error {
	subject := "Your TruckTrack verification code"
	body := fmt.Sprintf(`
		<p>Welcome to TruckTrack.</p>
		<p>Your verification code is <strong>%s</strong>.</p>
		<p>The code expires in %d minutes. If you did not register, ignore this email.</p>
	`, otp, int(ttl.Minutes()))

	return m.SendEmail(ctx, to, subject, body)
}
