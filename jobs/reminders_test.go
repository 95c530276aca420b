package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/taskhub/taskhub/internal/jobs"
)

type stubTaskSource struct {
	targets []ReminderTarget
}

func (s *stubTaskSource) ListDueSoon(ctx context.Context, window time.Duration) ([]ReminderTarget, error) {
	return s.targets, nil
}

type recordingEnqueuer struct {
	mu       sync.Mutex
	payloads []SendReminderPayload
}

func (r *recordingEnqueuer) EnqueueSendReminder(ctx context.Context, payload SendReminderPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, payload)
	return nil
}

func (r *recordingEnqueuer) sent() []SendReminderPayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SendReminderPayload(nil), r.payloads...)
}

func newScanJob(t *testing.T, source TaskSource, enqueuer ReminderEnqueuer) *DueSoonScanJob {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDueSoonScanJob(source, enqueuer, client, nil, nil)
}

func TestDueSoonScanEnqueuesReminders(t *testing.T) {
	due := time.Now().UTC().Add(6 * time.Hour)
	source := &stubTaskSource{targets: []ReminderTarget{
		{TaskID: "task-1", Title: "file taxes", DueDate: due, Email: "a@x.com"},
		{TaskID: "task-2", Title: "renew passport", DueDate: due, Email: "b@x.com"},
	}}
	enqueuer := &recordingEnqueuer{}
	job := newScanJob(t, source, enqueuer)

	task, err := NewDueSoonScanTask(DueSoonScanPayload{WindowHours: 24})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	sent := enqueuer.sent()
	require.Len(t, sent, 2)
	byTask := map[string]SendReminderPayload{}
	for _, p := range sent {
		byTask[p.TaskID] = p
	}
	require.Equal(t, "a@x.com", byTask["task-1"].To)
	require.Equal(t, "file taxes", byTask["task-1"].TaskTitle)
	require.Equal(t, due.Format(time.RFC3339), byTask["task-1"].DueDate)
}

func TestDueSoonScanDedupesPerDay(t *testing.T) {
	source := &stubTaskSource{targets: []ReminderTarget{
		{TaskID: "task-1", Title: "file taxes", DueDate: time.Now().UTC(), Email: "a@x.com"},
	}}
	enqueuer := &recordingEnqueuer{}
	job := newScanJob(t, source, enqueuer)

	task, err := NewDueSoonScanTask(DueSoonScanPayload{})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.NoError(t, job.Handle(context.Background(), task))

	require.Len(t, enqueuer.sent(), 1, "second run the same day must not re-enqueue")
}

func TestDueSoonScanRejectsBadPayload(t *testing.T) {
	job := newScanJob(t, &stubTaskSource{}, &recordingEnqueuer{})

	badTask := asynq.NewTask(TaskTypeDueSoonScan, []byte("{"))
	err := job.Handle(context.Background(), badTask)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type flakyEnqueuer struct {
	mu           sync.Mutex
	failuresLeft int
	payloads     []SendReminderPayload
}

func (f *flakyEnqueuer) EnqueueSendReminder(ctx context.Context, payload SendReminderPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return errors.New("queue unavailable")
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestDueSoonScanRetriesAfterEnqueueFailure(t *testing.T) {
	source := &stubTaskSource{targets: []ReminderTarget{
		{TaskID: "task-1", Title: "file taxes", DueDate: time.Now().UTC(), Email: "a@x.com"},
	}}
	enqueuer := &flakyEnqueuer{failuresLeft: 1}
	job := newScanJob(t, source, enqueuer)

	task, err := NewDueSoonScanTask(DueSoonScanPayload{})
	require.NoError(t, err)

	require.Error(t, job.Handle(context.Background(), task))
	require.Empty(t, enqueuer.payloads)

	// The dedupe slot was released, so a later scan can still deliver today.
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, enqueuer.payloads, 1)
}

func TestDueSoonScanRecordsMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	job := NewDueSoonScanJob(&stubTaskSource{}, &recordingEnqueuer{}, client, nil, jobmetrics.NewMetrics(registry))

	task, err := NewDueSoonScanTask(DueSoonScanPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	require.Contains(t, scrapeMetrics(t, registry),
		`taskhub_jobs_total{job="tasks:due_soon_scan",status="success"} 1`)
}
