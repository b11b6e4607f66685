package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/classtask/classtask-core/internal/auth"
	"github.com/classtask/classtask-core/internal/infrastructure/config"
	"github.com/classtask/classtask-core/internal/infrastructure/logging"
	"github.com/classtask/classtask-core/internal/task"
)

const testJWTSecret = "test-secret-key-at-least-32-characters-long"

// testServer creates a Server backed by a temporary SQLite database with the
// full schema applied. The router is built but the listener is not started.
func testServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	db := setupTestDB(t)

	cfg := &config.Config{
		API: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{
				Secret:         testJWTSecret,
				AccessTokenTTL: 1,
			},
			RateLimit: config.RateLimitConfig{
				Enabled:       true,
				LoginAttempts: 5,
				WindowMinutes: 15,
			},
		},
		Features: config.FeaturesConfig{
			EnableAssistant: true,
			AssistantModel:  "gpt-5-mini",
		},
	}

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	users := auth.NewUserRepository(db)
	tasks := task.NewRepository(db)
	authSvc := auth.NewService(users, cfg.Security.JWT.Secret, cfg.GetAccessTokenTTL())

	srv, err := New(Deps{
		Config:   cfg,
		Logger:   log,
		Auth:     authSvc,
		Tasks:    tasks,
		Resolver: task.NewResolver(tasks, users),
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	return srv, srv.buildRouter()
}

// setupTestDB creates a temporary SQLite database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "api-test-*.db")
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

	schema := `
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
	if _, execErr := db.Exec(schema); execErr != nil {
		t.Fatalf("creating test schema: %v", execErr)
	}

	return db
}

// doRequest executes a request against the router and returns the recorder.
// A non-empty token is sent as a bearer credential; a non-nil body is JSON
// encoded.
func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// response is the decoded envelope shape.
type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// decodeResponse parses the envelope from a recorder.
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) response {
	t.Helper()

	var resp response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return resp
}

// sessionData is the decoded auth session payload.
type sessionData struct {
	Token string `json:"token"`
	User  struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		Role      string `json:"role"`
		TeacherID string `json:"teacherId"`
	} `json:"user"`
	Teacher *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"teacher"`
}

// signupUser registers an account through the API and returns the session.
func signupUser(t *testing.T, router http.Handler, email, role, teacherID string) sessionData {
	t.Helper()

	w := doRequest(t, router, http.MethodPost, "/auth/signup", "", map[string]string{
		"email":     email,
		"password":  "password1",
		"role":      role,
		"teacherId": teacherID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup %s: status = %d, body = %s", email, w.Code, w.Body.String())
	}

	var session sessionData
	resp := decodeResponse(t, w)
	if err := json.Unmarshal(resp.Data, &session); err != nil {
		t.Fatalf("decoding session: %v", err)
	}
	return session
}

// createTask creates a task through the API and returns its id.
func createTask(t *testing.T, router http.Handler, token, title string) string {
	t.Helper()

	w := doRequest(t, router, http.MethodPost, "/tasks", token, map[string]any{
		"title":       title,
		"description": "a description",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create task %q: status = %d, body = %s", title, w.Code, w.Body.String())
	}

	var created struct {
		ID string `json:"id"`
	}
	resp := decodeResponse(t, w)
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		t.Fatalf("decoding created task: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created task has no id")
	}
	return created.ID
}
