package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user account persistence.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListStudentIDs(ctx context.Context, teacherID string) ([]string, error)
	GetManyByID(ctx context.Context, ids []string) (map[string]*User, error)
}

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

// Create inserts a new user account. The ID is generated if empty.
//
// The email uniqueness race between concurrent signups is resolved here, by
// the unique index: the losing insert fails with ErrEmailExists. There is no
// application-level check-then-insert.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	if user.ID == "" {
		user.ID = "usr-" + uuid.NewString()
	}

	now := time.Now().UTC().Format(time.RFC3339)
	user.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, role, teacher_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, string(user.Role),
		nullString(user.TeacherID), now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their unique ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getUser(ctx,
		"SELECT id, email, password_hash, role, teacher_id, created_at FROM users WHERE id = ?", id)
}

// GetByEmail retrieves a user by their canonical email address.
// The argument is normalised before lookup, so callers may pass raw input.
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx,
		"SELECT id, email, password_hash, role, teacher_id, created_at FROM users WHERE email = ?",
		NormalizeEmail(email))
}

// ListStudentIDs returns the IDs of all students assigned to the given
// teacher. This is the reverse lookup half of the teacher visibility union.
func (r *SQLiteUserRepository) ListStudentIDs(ctx context.Context, teacherID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM users WHERE role = ? AND teacher_id = ?",
		string(RoleStudent), teacherID)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning student id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating students: %w", err)
	}

	return ids, nil
}

// GetManyByID returns the users for the given IDs, keyed by ID. IDs that do
// not resolve are simply absent from the map; callers treat a missing owner
// as a resolution failure, never as data to display.
func (r *SQLiteUserRepository) GetManyByID(ctx context.Context, ids []string) (map[string]*User, error) {
	users := make(map[string]*User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, email, password_hash, role, teacher_id, created_at FROM users WHERE id IN ("+placeholders+")",
		args...)
	if err != nil {
		return nil, fmt.Errorf("listing users by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUserFrom(rows)
		if err != nil {
			return nil, err
		}
		users[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	return users, nil
}

// getUser executes a query and scans a single user result.
func (r *SQLiteUserRepository) getUser(ctx context.Context, query string, args ...any) (*User, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	return scanUserFrom(row)
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanUserFrom scans a user from any scanner (Row or Rows).
func scanUserFrom(s scanner) (*User, error) {
	var u User
	var teacherID sql.NullString
	var role string
	var createdAt string

	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &teacherID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.Role = Role(role)
	if teacherID.Valid {
		u.TeacherID = teacherID.String
	}

	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled

	return &u, nil
}

// Helper functions.

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "unique constraint"))
}
