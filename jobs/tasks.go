package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeDueSoonScan scans for tasks approaching their due date.
	TaskTypeDueSoonScan = "tasks:due_soon_scan"
	// TaskTypeSendReminder delivers a single due-date reminder email.
	TaskTypeSendReminder = "mail:send_reminder"
)

// DueSoonScanPayload parameterises a due-soon scan run.
type DueSoonScanPayload struct {
	WindowHours int `json:"window_hours"`
}

// NewDueSoonScanTask constructs the periodic scan task.
func NewDueSoonScanTask(payload DueSoonScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDueSoonScan, data), nil
}

// SendReminderPayload describes one reminder email.
type SendReminderPayload struct {
	To        string `json:"to"`
	TaskID    string `json:"task_id"`
	TaskTitle string `json:"task_title"`
	DueDate   string `json:"due_date"`
}

// NewSendReminderTask constructs a reminder email task.
func NewSendReminderTask(payload SendReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendReminder, data), nil
}
