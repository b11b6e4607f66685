package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/classtask/classtask-core/internal/auth"
)

// signupRequest is the request body for POST /auth/signup.
type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	TeacherID string `json:"teacherId"`
}

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleSignup registers a new account and returns a session.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if !auth.IsValidEmail(req.Email) {
		writeBadRequest(w, "invalid email address")
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		writeBadRequest(w, "password must be at least 6 characters")
		return
	}

	session, err := s.auth.Signup(r.Context(), req.Email, req.Password, auth.Role(req.Role), req.TeacherID)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidRole):
			writeBadRequest(w, "role must be student or teacher")
		case errors.Is(err, auth.ErrTeacherRequired):
			writeBadRequest(w, "students must specify a teacher")
		case errors.Is(err, auth.ErrTeacherForbidden):
			writeBadRequest(w, "teachers cannot specify a teacher")
		case errors.Is(err, auth.ErrTeacherNotFound):
			writeBadRequest(w, "teacher not found")
		case errors.Is(err, auth.ErrEmailExists):
			writeBadRequest(w, "email already registered")
		case errors.Is(err, auth.ErrInvalidEmail):
			writeBadRequest(w, "invalid email address")
		default:
			s.logger.Error("signup failed", "error", err)
			writeInternalError(w, "failed to create account")
		}
		return
	}

	writeSuccess(w, http.StatusCreated, session)
}

// handleLogin authenticates an email/password pair and returns a session.
// The failure response is identical for an unknown email and a wrong
// password.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	session, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeUnauthorized(w, "invalid email or password")
			return
		}
		s.logger.Error("login failed", "error", err)
		writeInternalError(w, "failed to log in")
		return
	}

	writeSuccess(w, http.StatusOK, session)
}
