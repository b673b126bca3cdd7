package repository

import (
	"context"

	"github.com/dom/task-tracker/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// TaskRepository is the ownership-scoped task store. Every method takes the
// owner's user ID so that a query without owner scoping cannot be expressed.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error)
	List(ctx context.Context, ownerID uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}

type Repositories struct {
	User UserRepository
	Task TaskRepository
}
