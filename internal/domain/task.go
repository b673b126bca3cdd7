package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TaskStatus represents the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "OPEN"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// AllTaskStatuses contains all valid statuses in lifecycle order
var AllTaskStatuses = []TaskStatus{TaskStatusOpen, TaskStatusInProgress, TaskStatusDone}

// IsValid checks if a status is valid
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// String returns the string representation of the status
func (s TaskStatus) String() string {
	return string(s)
}

// ParseTaskStatus converts a raw string into a TaskStatus
func ParseTaskStatus(raw string) (TaskStatus, error) {
	status := TaskStatus(raw)
	if !status.IsValid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

type Task struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OwnerID     uuid.UUID      `json:"ownerId" gorm:"type:uuid;not null;index"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description"`
	Status      TaskStatus     `json:"status" gorm:"not null;default:'OPEN'"`
	Labels      datatypes.JSON `json:"labels" gorm:"type:jsonb;default:'[]'"` // ["work", "urgent"]
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// TaskFilter narrows a task listing. Both fields are optional; the owner
// constraint is not part of the filter because it is never optional.
type TaskFilter struct {
	Status TaskStatus
	Search string
}
