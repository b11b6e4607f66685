package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/classtask/classtask-core/internal/auth"
)

// Validation limits for task fields.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// Progress represents a task's completion state.
type Progress string

// Valid progress states.
const (
	ProgressNotStarted Progress = "not-started"
	ProgressInProgress Progress = "in-progress"
	ProgressCompleted  Progress = "completed"
)

// ValidProgress lists all valid progress states.
var ValidProgress = []Progress{ProgressNotStarted, ProgressInProgress, ProgressCompleted}

// IsValidProgress checks whether p is a recognised progress state.
func IsValidProgress(p Progress) bool {
	for _, v := range ValidProgress {
		if p == v {
			return true
		}
	}
	return false
}

// Sentinel errors for task operations.
var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrTitleRequired       = errors.New("title is required")
	ErrTitleTooLong        = fmt.Errorf("title exceeds %d characters", MaxTitleLength)
	ErrDescriptionRequired = errors.New("description is required")
	ErrDescriptionTooLong  = fmt.Errorf("description exceeds %d characters", MaxDescriptionLength)
	ErrInvalidProgress     = errors.New("invalid progress state")
	ErrOwnerRequired       = errors.New("owner is required")
)

// Task is a single unit of work owned by exactly one user.
//
// DueDate is genuinely optional: nil means "no due date" and survives a
// store round trip as JSON null, never as a zero timestamp. Owner is a
// presentation field populated by the visibility resolver; it is not
// persisted with the task.
type Task struct {
	ID          string               `json:"id"`
	OwnerID     string               `json:"ownerId"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	DueDate     *time.Time           `json:"dueDate"`
	Progress    Progress             `json:"progress"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
	Owner       *auth.PublicIdentity `json:"owner,omitempty"`
}

// New creates a task for the given owner. Progress defaults to not-started
// when empty. The returned task is validated; an invalid one is never
// constructed.
func New(ownerID, title, description string, dueDate *time.Time, progress Progress) (*Task, error) {
	if progress == "" {
		progress = ProgressNotStarted
	}

	t := &Task{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		DueDate:     dueDate,
		Progress:    progress,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the task's field constraints.
func (t *Task) Validate() error {
	if t.OwnerID == "" {
		return ErrOwnerRequired
	}
	if t.Title == "" {
		return ErrTitleRequired
	}
	if len(t.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if t.Description == "" {
		return ErrDescriptionRequired
	}
	if len(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if !IsValidProgress(t.Progress) {
		return ErrInvalidProgress
	}
	return nil
}

// NullableTime distinguishes an absent JSON field from an explicit null.
// Set is true when the field appeared in the payload at all; Value is nil
// for an explicit null. This is what lets an update clear a due date
// without a sentinel timestamp.
type NullableTime struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON implements json.Unmarshaler. It is only invoked when the
// field is present, which is what makes Set meaningful.
func (n *NullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("parsing due date: %w", err)
	}
	n.Value = &t
	return nil
}

// Update is a partial change to a task. Nil pointer fields (and an unset
// DueDate) leave the current value untouched.
type Update struct {
	Title       *string
	Description *string
	DueDate     NullableTime
	Progress    *Progress
}

// Apply merges the update into the task and re-validates the result.
// A validation failure leaves the task unchanged.
func (t *Task) Apply(u Update) error {
	next := *t

	if u.Title != nil {
		next.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		next.Description = strings.TrimSpace(*u.Description)
	}
	if u.DueDate.Set {
		next.DueDate = u.DueDate.Value
	}
	if u.Progress != nil {
		next.Progress = *u.Progress
	}

	if err := next.Validate(); err != nil {
		return err
	}

	*t = next
	return nil
}
