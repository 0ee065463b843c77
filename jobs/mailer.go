package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/timewise-hq/timewise/internal/notify"
)

// SMTPMailer sends mail through a plain SMTP relay (Mailpit in development).
type SMTPMailer struct {
	Addr string
	From string
}

// SendMail implements Mailer.
func (m *SMTPMailer) SendMail(ctx context.Context, to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")

	if err := smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// QueueSender bridges the notification dispatcher to asynq: each drained
// message becomes a mail:send task, so SMTP retries ride on asynq's retry
// machinery instead of blocking the dispatcher.
type QueueSender struct {
	Client *Client
	Logger *slog.Logger
}

// Send implements notify.Sender.
func (s *QueueSender) Send(ctx context.Context, m notify.Message) error {
	info, err := s.Client.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      m.Recipient,
		Subject: m.Subject,
		Body:    m.Body,
	})
	if err != nil {
		return fmt.Errorf("enqueue mail task: %w", err)
	}
	s.Logger.Debug("mail task enqueued",
		slog.String("task_id", info.ID),
		slog.String("recipient", m.Recipient))
	return nil
}
