package task

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/classtask/classtask-core/internal/auth"
)

// testDB creates a temporary SQLite database with the users and tasks
// schemas applied. The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "task-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrationSQL := `
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('student', 'teacher')),
			teacher_id TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (teacher_id) REFERENCES users(id),
			CHECK ((role = 'student') = (teacher_id IS NOT NULL))
		) STRICT;

		CREATE UNIQUE INDEX idx_users_email ON users(email);
		CREATE INDEX idx_users_teacher ON users(teacher_id);

		CREATE TABLE tasks (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			due_date TEXT,
			progress TEXT NOT NULL DEFAULT 'not-started'
				CHECK (progress IN ('not-started', 'in-progress', 'completed')),
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (owner_id) REFERENCES users(id)
		) STRICT;

		CREATE INDEX idx_tasks_owner_created ON tasks(owner_id, created_at DESC);
		CREATE INDEX idx_tasks_created ON tasks(created_at DESC);
	`
	if _, err := db.Exec(migrationSQL); err != nil {
		t.Fatalf("applying test migration: %v", err)
	}

	return db
}

// seedUser inserts a user directly, bypassing the auth service. Pass an
// empty teacherID for teachers.
func seedUser(t *testing.T, db *sql.DB, id, email string, role auth.Role, teacherID string) *auth.User {
	t.Helper()

	var tid sql.NullString
	if teacherID != "" {
		tid = sql.NullString{String: teacherID, Valid: true}
	}

	_, err := db.Exec(
		`INSERT INTO users (id, email, password_hash, role, teacher_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, email, "x", string(role), tid, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		t.Fatalf("seeding user %s: %v", email, err)
	}

	return &auth.User{ID: id, Email: email, Role: role, TeacherID: teacherID}
}

// seedTask creates a task through the repository and returns it.
func seedTask(t *testing.T, db *sql.DB, ownerID, title string) *Task {
	t.Helper()

	repo := NewRepository(db)
	tk, err := New(ownerID, title, "a description", nil, "")
	if err != nil {
		t.Fatalf("building test task: %v", err)
	}
	if err := repo.Create(context.Background(), tk); err != nil {
		t.Fatalf("creating test task %q: %v", title, err)
	}
	return tk
}
