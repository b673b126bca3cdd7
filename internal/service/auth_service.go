package service

import (
	"context"
	"errors"
	"time"

	"github.com/dom/task-tracker/internal/domain"
	"github.com/dom/task-tracker/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthService struct {
	userRepo repository.UserRepository
	hasher   *PasswordHasher
	tokens   *TokenManager
}

func NewAuthService(userRepo repository.UserRepository, hasher *PasswordHasher, tokens *TokenManager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
	}
}

type SignupInput struct {
	Username string
	Password string
}

type SigninInput struct {
	Username string
	Password string
}

type SigninResult struct {
	User        *domain.User
	AccessToken string
}

// Signup hashes the password and inserts the user. Username uniqueness is
// enforced by the database constraint, so two concurrent signups with the
// same name resolve to exactly one user and one ErrUsernameTaken.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*domain.User, error) {
	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     input.Username,
		PasswordHash: hashed,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, err
	}

	return user, nil
}

// Signin verifies credentials and issues an access token. A missing user and
// a wrong password both come back as ErrInvalidCredentials so callers cannot
// probe which usernames exist.
func (s *AuthService) Signin(ctx context.Context, input SigninInput) (*SigninResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &SigninResult{
		User:        user,
		AccessToken: token,
	}, nil
}

// VerifyToken checks a bearer token and returns the subject user ID.
func (s *AuthService) VerifyToken(tokenString string) (uuid.UUID, error) {
	return s.tokens.Verify(tokenString)
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
