package auth

import (
	"context"
	"errors"
)

// This file is the single source of truth for the authorisation model.
//
// The model is deliberately asymmetric: teacher oversight broadens READ
// access to assigned students' tasks, but WRITE access never extends beyond
// the owner. No role, association, or other attribute grants mutation rights
// on someone else's task.

// CanReadTasksOf reports whether subject may read tasks owned by owner.
//
// A task is visible to its owner and, if the owner is a student, to that
// student's assigned teacher. Nothing else: a student never sees another
// user's tasks, and a teacher never sees tasks of students assigned to a
// different teacher.
func CanReadTasksOf(subject, owner *User) bool {
	if subject == nil || owner == nil {
		return false
	}
	if subject.ID == owner.ID {
		return true
	}
	return subject.Role == RoleTeacher &&
		owner.Role == RoleStudent &&
		owner.TeacherID == subject.ID
}

// CanMutateTask reports whether subject may update or delete a task with the
// given owner. Ownership is the sole basis: a teacher can read an assigned
// student's task but can never modify it.
func CanMutateTask(subject *User, ownerID string) bool {
	return subject != nil && ownerID != "" && subject.ID == ownerID
}

// CanAssignTeacher reports whether candidateID may be used as a student's
// teacher association: a user with that ID must exist and hold the teacher
// role. Consulted once, at signup; a false result must reject the signup
// before any user record is persisted.
func CanAssignTeacher(ctx context.Context, users UserRepository, candidateID string) (bool, error) {
	if candidateID == "" {
		return false, nil
	}
	candidate, err := users.GetByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return candidate.Role == RoleTeacher, nil
}
