package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/taskhub/taskhub/internal/jobs"
)

// ReminderTarget is one task due soon, joined with its owner's email.
type ReminderTarget struct {
	TaskID  string
	Title   string
	DueDate time.Time
	Email   string
}

// TaskSource lists tasks approaching their due date.
type TaskSource interface {
	ListDueSoon(ctx context.Context, window time.Duration) ([]ReminderTarget, error)
}

// PGTaskSource implements TaskSource against the tasks table.
type PGTaskSource struct {
	pool *pgxpool.Pool
}

// NewPGTaskSource constructs a PGTaskSource.
func NewPGTaskSource(pool *pgxpool.Pool) *PGTaskSource {
	return &PGTaskSource{pool: pool}
}

// ListDueSoon returns non-completed tasks whose due date falls inside the
// window, newest deadline first.
func (s *PGTaskSource) ListDueSoon(ctx context.Context, window time.Duration) ([]ReminderTarget, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT t.id, t.title, t.due_date, u.email
		 FROM tasks t JOIN users u ON u.id = t.owner_id
		 WHERE t.status <> 'completed'
		   AND t.due_date IS NOT NULL
		   AND t.due_date BETWEEN now() AND now() + $1
		 ORDER BY t.due_date`, window)
	if err != nil {
		return nil, fmt.Errorf("jobs: list due soon: %w", err)
	}
	defer rows.Close()

	var targets []ReminderTarget
	for rows.Next() {
		var target ReminderTarget
		if err := rows.Scan(&target.TaskID, &target.Title, &target.DueDate, &target.Email); err != nil {
			return nil, fmt.Errorf("jobs: scan due soon: %w", err)
		}
		targets = append(targets, target)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("jobs: due soon rows: %w", err)
	}
	return targets, nil
}

// ReminderEnqueuer submits reminder email tasks to the queue.
type ReminderEnqueuer interface {
	EnqueueSendReminder(ctx context.Context, payload SendReminderPayload) error
}

// DueSoonScanJob finds tasks nearing their due date and enqueues one
// reminder per task per day.
type DueSoonScanJob struct {
	Source   TaskSource
	Enqueuer ReminderEnqueuer
	Redis    *redis.Client
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewDueSoonScanJob initialises the scan handler.
func NewDueSoonScanJob(source TaskSource, enqueuer ReminderEnqueuer, redisClient *redis.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *DueSoonScanJob {
	return &DueSoonScanJob{
		Source:   source,
		Enqueuer: enqueuer,
		Redis:    redisClient,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the due-soon scan.
func (j *DueSoonScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Source == nil || j.Enqueuer == nil {
		return errors.New("due soon scan: handler not configured")
	}
	var payload DueSoonScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowHours <= 0 {
		payload.WindowHours = 24
	}

	tracker := j.metrics().Track(TaskTypeDueSoonScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	window := time.Duration(payload.WindowHours) * time.Hour
	targets, err := j.Source.ListDueSoon(ctx, window)
	if err != nil {
		resultErr = err
		return resultErr
	}

	day := j.now().Format("2006-01-02")
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(4)
	for _, target := range targets {
		group.Go(func() error {
			key := reminderKey(target.TaskID, day)
			fresh, err := j.markSent(ctx, key)
			if err != nil {
				return err
			}
			if !fresh {
				return nil
			}
			if err := j.Enqueuer.EnqueueSendReminder(ctx, SendReminderPayload{
				To:        target.Email,
				TaskID:    target.TaskID,
				TaskTitle: target.Title,
				DueDate:   target.DueDate.UTC().Format(time.RFC3339),
			}); err != nil {
				// The key was claimed before the enqueue; release it so the
				// next scan can retry today instead of going silent for 48h.
				j.clearSent(ctx, key)
				return err
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		resultErr = err
		return resultErr
	}

	if j.Logger != nil {
		j.Logger.Info("due soon scan complete", slog.Int("candidates", len(targets)))
	}
	return nil
}

func reminderKey(taskID, day string) string {
	return fmt.Sprintf("reminder:%s:%s", taskID, day)
}

// markSent claims the reminder slot and reports whether this is the first
// attempt for the task today. Without Redis the dedupe degrades to
// at-least-once.
func (j *DueSoonScanJob) markSent(ctx context.Context, key string) (bool, error) {
	if j.Redis == nil {
		return true, nil
	}
	return j.Redis.SetNX(ctx, key, "1", 48*time.Hour).Result()
}

func (j *DueSoonScanJob) clearSent(ctx context.Context, key string) {
	if j.Redis == nil {
		return
	}
	if err := j.Redis.Del(ctx, key).Err(); err != nil && j.Logger != nil {
		j.Logger.Warn("release reminder slot", slog.String("key", key), slog.Any("error", err))
	}
}

func (j *DueSoonScanJob) metrics() *jobmetrics.Metrics {
	if j == nil {
		return nil
	}
	return j.Metrics
}

func (j *DueSoonScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
