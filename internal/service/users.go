package service

import (
	"context"
	"errors"
	"strings"

	"github.com/comphility/backend/internal/apperr"
	"github.com/comphility/backend/internal/models"
	"github.com/comphility/backend/internal/repository"
	"github.com/comphility/backend/internal/util"
)

// UserAdminService backs the admin console's user management. Role changes
// go through here and nowhere else.
type UserAdminService struct {
	users repository.UserRepository
}

func NewUserAdminService(users repository.UserRepository) *UserAdminService {
	return &UserAdminService{users: users}
}

type UserPage struct {
	Items []models.User
	Page  int
	Limit int
	Total int64
	Pages int64
}

func (s *UserAdminService) List(ctx context.Context, searchText, role string, page, limit int) (*UserPage, error) {
	offset, limit := util.Paginate(page, limit)
	if page < 1 {
		page = 1
	}

	users, total, err := s.users.List(ctx, searchText, role, offset, limit)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	return &UserPage{
		Items: users,
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: util.TotalPages(total, limit),
	}, nil
}

func (s *UserAdminService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.FromStore(err)
	}
	return user, nil
}

// Update changes name, email and role of an account.
func (s *UserAdminService) Update(ctx context.Context, id uint, name, email, role string) (*models.User, error) {
	if role != models.RoleCustomer && role != models.RoleAdmin {
		return nil, apperr.Validation("Role must be customer or admin")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.FromStore(err)
	}

	email = NormalizeEmail(email)
	taken, err := s.users.EmailTaken(ctx, email, id)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	if taken {
		return nil, apperr.Conflict("Email already in use")
	}

	user.Name = strings.TrimSpace(name)
	user.Email = email
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("Email already in use")
		}
		return nil, apperr.FromStore(err)
	}
	return user, nil
}

// Delete removes the account; cart lines go with it via the FK cascade.
func (s *UserAdminService) Delete(ctx context.Context, id uint) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.FromStore(err)
	}
	return nil
}
