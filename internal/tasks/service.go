package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub/internal/shared"
)

// CreateInput carries the caller-supplied fields for a new task. There is
// deliberately no owner field; ownership always comes from the
// authenticated identity.
type CreateInput struct {
	Title       string
	Description string
	Status      string
	DueDate     string
}

// UpdateInput is a partial patch; nil fields are left untouched.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
	DueDate     *string
}

// ListQuery narrows and paginates a listing of the requester's own tasks.
type ListQuery struct {
	Status  string
	Search  string
	Page    int
	PerPage int
}

// Service enforces the ownership boundary around task persistence.
type Service struct {
	repo  Repository
	cache *ListCache
}

// NewService constructs a new Service. cache may be nil.
func NewService(repo Repository, cache *ListCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Create stores a new task owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", shared.ErrValidation)
	}

	status := StatusPending
	if in.Status != "" {
		parsed, err := ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	var dueDate *time.Time
	if in.DueDate != "" {
		ts, err := ParseDueDate(in.DueDate)
		if err != nil {
			return nil, err
		}
		dueDate = &ts
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: in.Description,
		Status:      status,
		DueDate:     dueDate,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, ownerID)
	return task, nil
}

// Get returns the task if it exists and belongs to ownerID. An absent task
// and a foreign task are indistinguishable to the caller.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*Task, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

// List returns the owner's tasks matching the query. The owner scope is
// applied before any optional filter.
func (s *Service) List(ctx context.Context, ownerID string, q ListQuery) (*Page, error) {
	if q.Status != "" {
		if _, err := ParseStatus(q.Status); err != nil {
			return nil, err
		}
	}

	pagination := shared.NewPagination(q.Page, q.PerPage, 0)
	filter := ListFilter{
		OwnerID: ownerID,
		Status:  Status(q.Status),
		Search:  q.Search,
		Limit:   pagination.PerPage,
		Offset:  pagination.Offset(),
	}

	if page, ok := s.cache.Get(ctx, filter); ok {
		return page, nil
	}

	result, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []Task{}
	}
	page := &Page{
		Tasks:      result,
		Pagination: shared.NewPagination(pagination.Page, pagination.PerPage, total),
	}
	s.cache.Set(ctx, filter, page)
	return page, nil
}

// Update applies a partial patch to a task owned by ownerID.
func (s *Service) Update(ctx context.Context, ownerID, id string, in UpdateInput) (*Task, error) {
	task, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", shared.ErrValidation)
		}
		task.Title = title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Status != nil {
		status, err := ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		task.Status = status
	}
	if in.DueDate != nil {
		if *in.DueDate == "" {
			task.DueDate = nil
		} else {
			ts, err := ParseDueDate(*in.DueDate)
			if err != nil {
				return nil, err
			}
			task.DueDate = &ts
		}
	}

	task.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, ownerID)
	return task, nil
}

// Delete removes a task owned by ownerID.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, ownerID)
	return nil
}
