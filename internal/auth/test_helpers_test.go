package auth

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the users schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "auth-test-*.db")
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
	`
	if _, err := db.Exec(migrationSQL); err != nil {
		t.Fatalf("applying users migration: %v", err)
	}

	return db
}

// seedTeacher inserts a teacher account and returns it.
func seedTeacher(t *testing.T, db *sql.DB, email string) *User {
	t.Helper()

	hash, err := HashPassword("test-password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	repo := NewUserRepository(db)
	user := NewTeacher(email, hash)
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("creating test teacher %s: %v", email, err)
	}
	return user
}

// seedStudent inserts a student account assigned to the given teacher.
func seedStudent(t *testing.T, db *sql.DB, email, teacherID string) *User {
	t.Helper()

	hash, err := HashPassword("test-password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	repo := NewUserRepository(db)
	user := NewStudent(email, hash, teacherID)
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("creating test student %s: %v", email, err)
	}
	return user
}
