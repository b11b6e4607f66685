package auth

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// emailPattern is deliberately loose: something@something.something.
// Real validation happens when the confirmation mail bounces, not here.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// NormalizeEmail canonicalises an email address for storage and lookup.
// Addresses are compared case-insensitively and without surrounding whitespace.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail checks if an email address meets format requirements.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// MinPasswordLength is the minimum accepted password length at signup.
const MinPasswordLength = 6

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleStudent is a learner account. Students see and manage only their
	// own tasks and carry exactly one teacher association, fixed at signup.
	RoleStudent Role = "student"

	// RoleTeacher is an educator account. Teachers additionally see (but
	// never modify) the tasks of students assigned to them.
	RoleTeacher Role = "teacher"
)

// ValidRoles is the set of roles accepted at signup.
var ValidRoles = []Role{RoleStudent, RoleTeacher}

// IsValidRole returns true if the role is one a user account may hold.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// User represents an account. The role is immutable after signup, and the
// teacher association is present if and only if the role is student. The
// schema enforces this with a CHECK constraint, and NewStudent/NewTeacher
// are the only constructors, so the invariant holds on both sides of the
// database boundary.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	TeacherID    string    `json:"teacherId,omitempty"` // set iff Role == RoleStudent
	CreatedAt    time.Time `json:"createdAt"`
}

// NewStudent builds a student account associated with the given teacher.
// The association is validated against the identity store at signup
// (CanAssignTeacher); this constructor only establishes the shape.
func NewStudent(email, passwordHash, teacherID string) *User {
	return &User{
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         RoleStudent,
		TeacherID:    teacherID,
	}
}

// NewTeacher builds a teacher account. Teachers carry no teacher association.
func NewTeacher(email, passwordHash string) *User {
	return &User{
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         RoleTeacher,
	}
}

// Validate checks the role/association invariant. The repository calls this
// before insert so a malformed User can never reach the database.
func (u *User) Validate() error {
	if !IsValidRole(u.Role) {
		return ErrInvalidRole
	}
	if u.Role == RoleStudent && u.TeacherID == "" {
		return ErrTeacherRequired
	}
	if u.Role == RoleTeacher && u.TeacherID != "" {
		return ErrTeacherForbidden
	}
	if !IsValidEmail(u.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// PublicIdentity is the owner metadata attached to another user's view of a
// resource (a teacher reading a student's task). It deliberately carries no
// credential or association fields.
type PublicIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Identity returns the user's public identity.
func (u *User) Identity() PublicIdentity {
	return PublicIdentity{ID: u.ID, Email: u.Email, Role: u.Role}
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrTeacherNotFound    = errors.New("teacher not found")
	ErrTeacherRequired    = errors.New("teacher id is required for students")
	ErrTeacherForbidden   = errors.New("teacher id is not allowed for teachers")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrTokenMissing       = errors.New("authentication token required")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
)
