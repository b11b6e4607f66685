package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for task persistence.
//
// Update and Delete take the owner ID as part of the predicate, not just the
// task ID. A mutation keyed on both can never touch another user's row, even
// if the authorisation check upstream were wrong.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id, ownerID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*Task, error)
	ListByOwners(ctx context.Context, ownerIDs []string) ([]*Task, error)
}

// SQLiteTaskRepository implements Repository using SQLite.
type SQLiteTaskRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed task repository.
func NewRepository(db *sql.DB) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{db: db}
}

// Create inserts a new task. The ID is generated if empty.
func (r *SQLiteTaskRepository) Create(ctx context.Context, t *Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	if t.ID == "" {
		t.ID = "tsk-" + uuid.NewString()
	}

	now := time.Now().UTC().Truncate(time.Second)
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, owner_id, title, description, due_date, progress, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Title, t.Description,
		nullTime(t.DueDate), string(t.Progress),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	return nil
}

// GetByID retrieves a task by its unique ID.
func (r *SQLiteTaskRepository) GetByID(ctx context.Context, id string) (*Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, description, due_date, progress, created_at, updated_at
		 FROM tasks WHERE id = ?`, id)
	return scanTaskFrom(row)
}

// Update persists the task's mutable fields. The WHERE clause matches both
// id and owner_id; a row that exists but belongs to someone else is reported
// as ErrTaskNotFound, the same as a missing row.
func (r *SQLiteTaskRepository) Update(ctx context.Context, t *Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)

	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, due_date = ?, progress = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		t.Title, t.Description, nullTime(t.DueDate), string(t.Progress),
		now.Format(time.RFC3339), t.ID, t.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}

	t.UpdatedAt = now
	return nil
}

// Delete removes a task. Like Update, the predicate includes the owner, so a
// foreign task is indistinguishable from an absent one at this layer.
func (r *SQLiteTaskRepository) Delete(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// ListByOwner returns all tasks owned by one user, newest first. Rows with
// identical timestamps keep insertion order.
func (r *SQLiteTaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]*Task, error) {
	return r.listTasks(ctx,
		`SELECT id, owner_id, title, description, due_date, progress, created_at, updated_at
		 FROM tasks WHERE owner_id = ?
		 ORDER BY created_at DESC, rowid ASC`, ownerID)
}

// ListByOwners returns all tasks owned by any of the given users, in one
// query, with the same ordering as ListByOwner. An empty ID list yields an
// empty result without touching the database.
func (r *SQLiteTaskRepository) ListByOwners(ctx context.Context, ownerIDs []string) ([]*Task, error) {
	if len(ownerIDs) == 0 {
		return []*Task{}, nil
	}

	placeholders := strings.Repeat("?,", len(ownerIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ownerIDs))
	for i, id := range ownerIDs {
		args[i] = id
	}

	return r.listTasks(ctx,
		`SELECT id, owner_id, title, description, due_date, progress, created_at, updated_at
		 FROM tasks WHERE owner_id IN (`+placeholders+`)
		 ORDER BY created_at DESC, rowid ASC`, args...)
}

// listTasks executes a query and scans all task results.
func (r *SQLiteTaskRepository) listTasks(ctx context.Context, query string, args ...any) ([]*Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*Task{}
	for rows.Next() {
		t, err := scanTaskFrom(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}

	return tasks, nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanTaskFrom scans a task from any scanner (Row or Rows).
func scanTaskFrom(s scanner) (*Task, error) {
	var t Task
	var dueDate sql.NullString
	var progress string
	var createdAt, updatedAt string

	err := s.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description,
		&dueDate, &progress, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	t.Progress = Progress(progress)
	if dueDate.Valid {
		parsed, err := time.Parse(time.RFC3339, dueDate.String)
		if err != nil {
			return nil, fmt.Errorf("parsing due date: %w", err)
		}
		t.DueDate = &parsed
	}

	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}
