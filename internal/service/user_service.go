package service

import (
	"context"
	"log/slog"

	"github.com/maheshrc27/slotcast/internal/models"
	"github.com/maheshrc27/slotcast/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
	RemoveUser(ctx context.Context, userID int64) error
}

type userService struct {
	u repository.UserRepository
}

func NewUserService(u repository.UserRepository) UserService {
	return &userService{
		u: u,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	if id == 0 {
		return nil, newError(CodeUnauthenticated, ErrUnauthenticated)
	}
	user, isExist, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, errorf(CodeInternal, "loading user: %w", err)
	}
	if !isExist {
		slog.Info("user not found", "user_id", id)
		return nil, errorf(CodeNotFound, "user doesn't exist")
	}
	return user, nil
}

func (s *userService) RemoveUser(ctx context.Context, userID int64) error {
	if userID == 0 {
		return newError(CodeUnauthenticated, ErrUnauthenticated)
	}
	if err := s.u.Remove(ctx, userID); err != nil {
		return errorf(CodeInternal, "removing user: %w", err)
	}
	return nil
}
