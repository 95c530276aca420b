package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/taskhub/taskhub/internal/jobs"
)

// MailSender delivers a composed plain-text message to one recipient.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	Addr string
	From string
}

// Send composes the RFC 5322 envelope and hands it to the relay.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(s.Addr, nil, s.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("jobs: send mail: %w", err)
	}
	return nil
}

var _ MailSender = (*SMTPSender)(nil)

// ReminderMailer handles TaskTypeSendReminder tasks.
type ReminderMailer struct {
	Sender  MailSender
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle delivers one due-date reminder.
func (m *ReminderMailer) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SendReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if m == nil || m.Sender == nil {
		return errors.New("send reminder: no mail sender configured")
	}

	tracker := m.Metrics.Track(TaskTypeSendReminder)
	err := m.Sender.Send(ctx, payload.To, reminderSubject(payload), reminderBody(payload))
	if err == nil && m.Logger != nil {
		m.Logger.Info("reminder delivered",
			slog.String("task_id", payload.TaskID),
			slog.String("to", payload.To))
	}
	return tracker.End(err)
}

func reminderSubject(p SendReminderPayload) string {
	return fmt.Sprintf("Reminder: %q is due soon", p.TaskTitle)
}

func reminderBody(p SendReminderPayload) string {
	return fmt.Sprintf("Your task %q is due %s.\n\nOpen TaskHub to update it.\n", p.TaskTitle, p.DueDate)
}
