package app

import (
	"context"
	"strings"

	"ponyfiction/internal/model"
	"ponyfiction/internal/repository"
)

type UserService struct {
	userRepo repository.Users
}

func NewUserService(userRepo repository.Users) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetByID returns nil without error when the user does not exist.
func (s *UserService) GetByID(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, nil
	}
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	user, err := s.userRepo.GetByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CanSeeEmail limits email addresses to their owner and staff.
func CanSeeEmail(viewer, user *model.User) bool {
	if viewer == nil || user == nil {
		return false
	}
	return viewer.ID == user.ID || viewer.IsStaff()
}
