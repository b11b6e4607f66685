// Package auth provides authentication and authorisation for ClassTask Core.
//
// It implements a two-role model (student, teacher) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - Stateless HS256 JWT access tokens (7-day lifetime by default)
//   - A single student-teacher association, fixed at signup and validated
//     against the identity store before any record is persisted
//   - Pure policy functions (policy.go) deciding read and write access
//
// The authorisation model is read-broadened, write-narrowed: a teacher can
// read the tasks of students assigned to them, but mutation rights never
// leave the task owner. That asymmetry is the core design decision of the
// system and every handler routes its decision through this package.
package auth
