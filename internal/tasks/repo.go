package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhub/taskhub/internal/platform/db"
	"github.com/taskhub/taskhub/internal/shared"
)

// ListFilter narrows a listing within one owner's tasks. OwnerID is
// mandatory; the optional filters apply only inside that scope.
type ListFilter struct {
	OwnerID string
	Status  Status
	Search  string
	Limit   int
	Offset  int
}

// Repository defines persistence operations for tasks. Every lookup is
// scoped by owner id so a foreign task behaves exactly like an absent one.
type Repository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, ownerID, id string) (*Task, error)
	List(ctx context.Context, filter ListFilter) ([]Task, int, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, ownerID, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const taskColumns = `id, title, description, status, due_date, owner_id, created_at, updated_at`

// Create inserts a new task row.
func (r *PGRepository) Create(ctx context.Context, task *Task) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tasks (id, title, description, status, due_date, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		task.ID, task.Title, task.Description, task.Status, task.DueDate, task.OwnerID, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("tasks: insert: %w", err)
	}
	return nil
}

// GetByID fetches a task owned by ownerID.
func (r *PGRepository) GetByID(ctx context.Context, ownerID, id string) (*Task, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	return scanTask(row)
}

// List returns the owner's tasks matching the filter plus the unpaginated
// total, newest first.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Task, int, error) {
	where := []string{"owner_id = $1"}
	args := []any{filter.OwnerID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM tasks WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("tasks: count: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		taskColumns, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("tasks: list: %w", err)
	}
	defer rows.Close()

	var result []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("tasks: list rows: %w", err)
	}
	return result, total, nil
}

// Update rewrites a task row inside a transaction, re-checking ownership
// under lock so a concurrent delete cannot resurrect the row.
func (r *PGRepository) Update(ctx context.Context, task *Task) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx,
			`SELECT id FROM tasks WHERE id = $1 AND owner_id = $2 FOR UPDATE`,
			task.ID, task.OwnerID).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return fmt.Errorf("tasks: lock for update: %w", err)
		}
		_, err = tx.Exec(ctx,
			`UPDATE tasks SET title = $1, description = $2, status = $3, due_date = $4, updated_at = $5
			 WHERE id = $6 AND owner_id = $7`,
			task.Title, task.Description, task.Status, task.DueDate, task.UpdatedAt, task.ID, task.OwnerID,
		)
		if err != nil {
			return fmt.Errorf("tasks: update: %w", err)
		}
		return nil
	})
}

// Delete removes a task owned by ownerID.
func (r *PGRepository) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("tasks: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*Task, error) {
	var task Task
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Status, &task.DueDate,
		&task.OwnerID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("tasks: scan: %w", err)
	}
	return &task, nil
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search terms.
func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

var _ Repository = (*PGRepository)(nil)
