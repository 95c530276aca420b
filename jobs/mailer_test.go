package jobs

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/taskhub/taskhub/internal/jobs"
)

type recordedMail struct {
	to      string
	subject string
	body    string
}

type recordingSender struct {
	mu   sync.Mutex
	fail error
	mail []recordedMail
}

func (s *recordingSender) Send(ctx context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.mail = append(s.mail, recordedMail{to: to, subject: subject, body: body})
	return nil
}

func scrapeMetrics(t *testing.T, registry *prometheus.Registry) string {
	t.Helper()
	res := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP(res, req)
	return res.Body.String()
}

func TestReminderMailerDeliversMail(t *testing.T) {
	sender := &recordingSender{}
	registry := prometheus.NewRegistry()
	mailer := &ReminderMailer{Sender: sender, Metrics: jobmetrics.NewMetrics(registry)}

	task, err := NewSendReminderTask(SendReminderPayload{
		To:        "a@x.com",
		TaskID:    "task-1",
		TaskTitle: "file taxes",
		DueDate:   "2026-09-01T00:00:00Z",
	})
	require.NoError(t, err)
	require.NoError(t, mailer.Handle(context.Background(), task))

	require.Len(t, sender.mail, 1)
	got := sender.mail[0]
	require.Equal(t, "a@x.com", got.to)
	require.Contains(t, got.subject, "file taxes")
	require.Contains(t, got.body, "2026-09-01T00:00:00Z")

	require.Contains(t, scrapeMetrics(t, registry),
		`taskhub_jobs_total{job="mail:send_reminder",status="success"} 1`)
}

func TestReminderMailerRecordsFailures(t *testing.T) {
	sender := &recordingSender{fail: errors.New("relay down")}
	registry := prometheus.NewRegistry()
	mailer := &ReminderMailer{Sender: sender, Metrics: jobmetrics.NewMetrics(registry)}

	task, err := NewSendReminderTask(SendReminderPayload{To: "a@x.com", TaskID: "task-1"})
	require.NoError(t, err)
	require.Error(t, mailer.Handle(context.Background(), task))

	require.Contains(t, scrapeMetrics(t, registry),
		`taskhub_jobs_failures_total{job="mail:send_reminder"} 1`)
}

func TestReminderMailerRejectsBadPayload(t *testing.T) {
	mailer := &ReminderMailer{Sender: &recordingSender{}}

	err := mailer.Handle(context.Background(), asynq.NewTask(TaskTypeSendReminder, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
