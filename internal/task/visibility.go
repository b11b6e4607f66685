package task

import (
	"context"
	"fmt"

	"github.com/classtask/classtask-core/internal/auth"
)

// Resolver computes the set of tasks a subject may see and enriches each
// with its owner's public identity.
//
// The visible set mirrors auth.CanReadTasksOf exactly: a student sees their
// own tasks, a teacher sees their own tasks plus those of every assigned
// student. A task whose owner cannot be resolved is dropped from the result
// rather than surfaced half-populated.
type Resolver struct {
	tasks Repository
	users auth.UserRepository
}

// NewResolver creates a visibility resolver.
func NewResolver(tasks Repository, users auth.UserRepository) *Resolver {
	return &Resolver{tasks: tasks, users: users}
}

// ListVisible returns every task the subject may read, newest first.
func (r *Resolver) ListVisible(ctx context.Context, subject *auth.User) ([]*Task, error) {
	ownerIDs := []string{subject.ID}

	if subject.Role == auth.RoleTeacher {
		studentIDs, err := r.users.ListStudentIDs(ctx, subject.ID)
		if err != nil {
			return nil, fmt.Errorf("resolving assigned students: %w", err)
		}
		ownerIDs = append(ownerIDs, studentIDs...)
	}

	tasks, err := r.tasks.ListByOwners(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	return r.attachOwners(ctx, tasks)
}

// attachOwners resolves each task's owner to a public identity. Tasks with
// an unresolvable owner are excluded.
func (r *Resolver) attachOwners(ctx context.Context, tasks []*Task) ([]*Task, error) {
	if len(tasks) == 0 {
		return tasks, nil
	}

	seen := make(map[string]bool, len(tasks))
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if !seen[t.OwnerID] {
			seen[t.OwnerID] = true
			ids = append(ids, t.OwnerID)
		}
	}

	owners, err := r.users.GetManyByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving task owners: %w", err)
	}

	visible := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		owner, ok := owners[t.OwnerID]
		if !ok {
			continue
		}
		identity := owner.Identity()
		t.Owner = &identity
		visible = append(visible, t)
	}

	return visible, nil
}
