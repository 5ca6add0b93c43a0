package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/comphility/backend/internal/apperr"
	"github.com/comphility/backend/internal/events"
	"github.com/comphility/backend/internal/hash"
	"github.com/comphility/backend/internal/logging"
	"github.com/comphility/backend/internal/models"
	"github.com/comphility/backend/internal/repository"
	"github.com/comphility/backend/internal/token"
)

// AuthService verifies credentials and issues session tokens.
type AuthService struct {
	users    repository.UserRepository
	secret   []byte
	tokenTTL time.Duration
	producer *events.Producer
}

func NewAuthService(users repository.UserRepository, secret []byte, tokenTTL time.Duration, producer *events.Producer) *AuthService {
	return &AuthService{
		users:    users,
		secret:   secret,
		tokenTTL: tokenTTL,
		producer: producer,
	}
}

type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

type AuthResult struct {
	Token string
	User  *models.User
}

// NormalizeEmail lowercases and trims an address so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a customer account and returns a fresh session. The
// read-before-write existence check gives a friendly conflict message; the
// unique index on email closes the race window and is the final arbiter.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if in.Password != in.ConfirmPassword {
		return nil, apperr.Validation("Passwords do not match")
	}

	email := NormalizeEmail(in.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("Email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.FromStore(err)
	}

	passwordHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("hashing password: %w", err))
	}

	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("Email already registered")
		}
		return nil, apperr.FromStore(err)
	}

	signed, err := token.Sign(user, s.secret, s.tokenTTL)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("signing token: %w", err))
	}

	s.publish(ctx, map[string]interface{}{
		"type":    "user_registered",
		"user_id": user.ID,
		"email":   user.Email,
	}, fmt.Sprint(user.ID))

	return &AuthResult{Token: signed, User: user}, nil
}

// Login never reveals whether the email exists; a missing account and a
// wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Authentication("Invalid credentials")
		}
		return nil, apperr.FromStore(err)
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.Authentication("Invalid credentials")
	}

	signed, err := token.Sign(user, s.secret, s.tokenTTL)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("signing token: %w", err))
	}

	s.publish(ctx, map[string]interface{}{
		"type":    "user_logged_in",
		"user_id": user.ID,
	}, fmt.Sprint(user.ID))

	return &AuthResult{Token: signed, User: user}, nil
}

// Me returns the current account from the store, not the token.
func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.FromStore(err)
	}
	return user, nil
}

// UpdateProfile changes name and email. A new email owned by another
// account is a conflict.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, name, email string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.FromStore(err)
	}

	email = NormalizeEmail(email)
	taken, err := s.users.EmailTaken(ctx, email, userID)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	if taken {
		return nil, apperr.Conflict("Email already in use")
	}

	user.Name = strings.TrimSpace(name)
	user.Email = email
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("Email already in use")
		}
		return nil, apperr.FromStore(err)
	}
	return user, nil
}

// ChangePassword verifies the current password before accepting the new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, newPassword, confirm string) error {
	if newPassword != confirm {
		return apperr.Validation("Passwords do not match")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.FromStore(err)
	}

	if !hash.CheckPassword(user.PasswordHash, current) {
		return apperr.Authentication("Current password is incorrect")
	}

	newHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(fmt.Errorf("hashing password: %w", err))
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		return apperr.FromStore(err)
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, event map[string]interface{}, key string) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.producer.PublishEvent(pubCtx, events.TopicUserEvents, key, event); err != nil {
		logging.FromContext(ctx).Error("event publish failed", "topic", events.TopicUserEvents, "error", err)
	}
}
