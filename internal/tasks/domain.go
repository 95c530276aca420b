package tasks

import (
	"fmt"
	"time"

	"github.com/taskhub/taskhub/internal/shared"
)

// Status enumerates the task lifecycle states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusInProgress, StatusCompleted:
		return Status(raw), nil
	}
	return "", fmt.Errorf("%w: status must be one of pending, in-progress, completed", shared.ErrValidation)
}

// Task is a to-do item owned by exactly one user. OwnerID is fixed at
// creation and never reassigned.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	OwnerID     string     `json:"ownerId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Page is a paginated task listing.
type Page struct {
	Tasks      []Task            `json:"tasks"`
	Pagination shared.Pagination `json:"pagination"`
}

// ParseDueDate accepts a full RFC3339 timestamp or a bare YYYY-MM-DD date,
// which normalizes to midnight UTC. Anything else is rejected rather than
// silently passed through.
func ParseDueDate(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}
	if day, err := time.Parse("2006-01-02", raw); err == nil {
		return day.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: dueDate must be RFC3339 or YYYY-MM-DD", shared.ErrValidation)
}
