package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service implements the signup/login flow and bearer token resolution on
// top of a UserRepository. It owns every credential decision; callers only
// see a User (the authenticated subject) or a sentinel error.
type Service struct {
	users  UserRepository
	secret string
	ttl    time.Duration
}

// NewService creates an auth service.
//
// Parameters:
//   - users: user account repository
//   - secret: HMAC secret for JWT signing
//   - ttl: access token lifetime
func NewService(users UserRepository, secret string, ttl time.Duration) *Service {
	return &Service{users: users, secret: secret, ttl: ttl}
}

// Session is the result of a successful signup or login: a bearer token and
// the subject it identifies. Teacher carries the assigned teacher's public
// identity when the subject is a student, so clients can display it without
// a second request.
type Session struct {
	Token   string          `json:"token"`
	User    *User           `json:"user"`
	Teacher *PublicIdentity `json:"teacher,omitempty"`
}

// Signup registers a new account and returns an authenticated session.
//
// Failure modes:
//   - ErrInvalidEmail / ErrInvalidRole: malformed input
//   - ErrTeacherRequired / ErrTeacherForbidden: teacher association shape
//     does not match the role (teacherID is required for students and
//     rejected for teachers)
//   - ErrTeacherNotFound: teacherID does not resolve to a teacher account
//   - ErrEmailExists: the email is already registered (decided by the
//     store's unique index, so concurrent signups cannot both win)
//
// All checks run before the insert; a failed signup never persists a
// partial user record.
func (s *Service) Signup(ctx context.Context, email, password string, role Role, teacherID string) (*Session, error) {
	if !IsValidRole(role) {
		return nil, ErrInvalidRole
	}
	if role == RoleTeacher && teacherID != "" {
		return nil, ErrTeacherForbidden
	}
	if role == RoleStudent {
		if teacherID == "" {
			return nil, ErrTeacherRequired
		}
		ok, err := CanAssignTeacher(ctx, s.users, teacherID)
		if err != nil {
			return nil, fmt.Errorf("validating teacher association: %w", err)
		}
		if !ok {
			return nil, ErrTeacherNotFound
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	var user *User
	if role == RoleStudent {
		user = NewStudent(email, hash, teacherID)
	} else {
		user = NewTeacher(email, hash)
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.newSession(ctx, user)
}

// Login authenticates an email/password pair and returns a session.
//
// Unknown email and wrong password both fail with ErrInvalidCredentials.
// The uniformity is deliberate: a distinguishable failure would let an
// attacker enumerate registered addresses.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.newSession(ctx, user)
}

// ResolveToken verifies a bearer token and loads the subject it identifies.
//
// Failure modes map one-to-one onto the token taxonomy: ErrTokenMissing for
// an absent credential, ErrTokenExpired for a stale one, ErrTokenInvalid for
// anything else, including a structurally valid token whose subject no
// longer exists.
func (s *Service) ResolveToken(ctx context.Context, tokenString string) (*User, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	claims, err := ParseToken(tokenString, s.secret)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("loading subject: %w", err)
	}

	return user, nil
}

// newSession issues a token for the user and attaches the teacher identity
// for students. A dangling teacher reference is tolerated here: the session
// is still valid, the enrichment is just absent. The association was
// validated at signup and there is no user-delete path.
func (s *Service) newSession(ctx context.Context, user *User) (*Session, error) {
	token, err := GenerateToken(user, s.secret, s.ttl)
	if err != nil {
		return nil, err
	}

	session := &Session{Token: token, User: user}

	if user.Role == RoleStudent && user.TeacherID != "" {
		teacher, err := s.users.GetByID(ctx, user.TeacherID)
		if err == nil {
			identity := teacher.Identity()
			session.Teacher = &identity
		} else if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("loading teacher identity: %w", err)
		}
	}

	return session, nil
}
