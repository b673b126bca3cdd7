package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dom/task-tracker/internal/domain"
	"github.com/dom/task-tracker/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Task event types delivered over the websocket feed.
const (
	EventTaskCreated       = "task.created"
	EventTaskStatusUpdated = "task.status_updated"
	EventTaskDeleted       = "task.deleted"
)

// TaskEventPublisher receives task change notifications for delivery to the
// owner's connected clients. Implemented by the websocket hub.
type TaskEventPublisher interface {
	PublishTaskEvent(ownerID uuid.UUID, event string, task *domain.Task)
}

type TaskService struct {
	taskRepo repository.TaskRepository
	events   TaskEventPublisher
}

func NewTaskService(taskRepo repository.TaskRepository, events TaskEventPublisher) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		events:   events,
	}
}

type CreateTaskInput struct {
	Title       string
	Description string
	Labels      []string
}

// Create stores a new task for ownerID. Status and ownership are stamped
// here; nothing the client sends can override them.
func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, input CreateTaskInput) (*domain.Task, error) {
	labels := input.Labels
	if labels == nil {
		labels = []string{}
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.TaskStatusOpen,
		Labels:      datatypes.JSON(labelsJSON),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.publish(ownerID, EventTaskCreated, task)
	return task, nil
}

func (s *TaskService) List(ctx context.Context, ownerID uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error) {
	return s.taskRepo.List(ctx, ownerID, filter)
}

func (s *TaskService) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// UpdateStatus fetches the task scoped by owner, then persists the new
// status. A task owned by someone else is ErrTaskNotFound, same as a task
// that does not exist.
func (s *TaskService) UpdateStatus(ctx context.Context, id, ownerID uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
	if !status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	task, err := s.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	task.Status = status
	task.UpdatedAt = time.Now()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}

	s.publish(ownerID, EventTaskStatusUpdated, task)
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	err := s.taskRepo.Delete(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrTaskNotFound
		}
		return err
	}

	s.publish(ownerID, EventTaskDeleted, &domain.Task{ID: id, OwnerID: ownerID})
	return nil
}

func (s *TaskService) publish(ownerID uuid.UUID, event string, task *domain.Task) {
	if s.events != nil {
		s.events.PublishTaskEvent(ownerID, event, task)
	}
}
