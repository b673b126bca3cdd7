package service

import (
	"time"

	"github.com/dom/task-tracker/internal/config"
	"github.com/dom/task-tracker/internal/repository"
)

type Services struct {
	Auth *AuthService
	Task *TaskService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, events TaskEventPublisher) *Services {
	hasher := NewPasswordHasher(cfg.BcryptCost)
	tokens := NewTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTExpirationHours)*time.Hour)

	return &Services{
		Auth: NewAuthService(repos.User, hasher, tokens),
		Task: NewTaskService(repos.Task, events),
	}
}
