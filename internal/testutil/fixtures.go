package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/task-tracker/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	password string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		username: fmt.Sprintf("testuser_%s", uuid.New().String()[:8]),
		password: "Testpassword123",
	}
}

// WithUsername sets the username
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     b.username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// SigninResponse matches the API signin response
type SigninResponse struct {
	AccessToken string `json:"accessToken"`
}

// BuildAndAuthenticate creates a user via the API and returns the user and
// access token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	reqBody := map[string]string{
		"username": b.username,
		"password": b.password,
	}
	body, _ := json.Marshal(reqBody)

	resp, err := http.Post(ts.APIURL("/auth/signup"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to sign up user: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected signup status code: %d", resp.StatusCode)
	}

	resp, err = http.Post(ts.APIURL("/auth/signin"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to sign in user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected signin status code: %d", resp.StatusCode)
	}

	var signinResp SigninResponse
	if err := json.NewDecoder(resp.Body).Decode(&signinResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	var user domain.User
	if err := ts.DB.DB.First(&user, "username = ?", b.username).Error; err != nil {
		t.Fatalf("failed to load created user: %v", err)
	}

	return &user, signinResp.AccessToken
}

// TaskBuilder creates test tasks with a builder pattern
type TaskBuilder struct {
	owner       *domain.User
	title       string
	description string
	status      domain.TaskStatus
	labels      []string
}

// NewTaskBuilder creates a new TaskBuilder with default values
func NewTaskBuilder() *TaskBuilder {
	return &TaskBuilder{
		title:       fmt.Sprintf("task_%s", uuid.New().String()[:8]),
		description: "test task description",
		status:      domain.TaskStatusOpen,
		labels:      []string{},
	}
}

// WithOwner sets the owning user
func (b *TaskBuilder) WithOwner(user *domain.User) *TaskBuilder {
	b.owner = user
	return b
}

// WithTitle sets the title
func (b *TaskBuilder) WithTitle(title string) *TaskBuilder {
	b.title = title
	return b
}

// WithDescription sets the description
func (b *TaskBuilder) WithDescription(description string) *TaskBuilder {
	b.description = description
	return b
}

// WithStatus sets the status
func (b *TaskBuilder) WithStatus(status domain.TaskStatus) *TaskBuilder {
	b.status = status
	return b
}

// WithLabels sets the labels
func (b *TaskBuilder) WithLabels(labels ...string) *TaskBuilder {
	b.labels = labels
	return b
}

// Build creates the task in the database
func (b *TaskBuilder) Build(t *testing.T, db *gorm.DB) *domain.Task {
	t.Helper()

	if b.owner == nil {
		user, _ := NewUserBuilder().Build(t, db)
		b.owner = user
	}

	labels, err := json.Marshal(b.labels)
	if err != nil {
		t.Fatalf("failed to marshal labels: %v", err)
	}

	task := &domain.Task{
		ID:          uuid.New(),
		OwnerID:     b.owner.ID,
		Title:       b.title,
		Description: b.description,
		Status:      b.status,
		Labels:      datatypes.JSON(labels),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	return task
}
