package usecase

import (
	"context"
	"fmt"

	"storefront-auth/internal/data/repository"
	"storefront-auth/internal/dto/request"
	"storefront-auth/internal/dto/response"
	"storefront-auth/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
	GetAllUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

type userService struct {
	repo     *repository.Repository
	registry SessionRegistry
	log      *zap.Logger
}

func NewUserService(repo *repository.Repository, registry SessionRegistry, log *zap.Logger) UserService {
	return &userService{
		repo:     repo,
		registry: registry,
		log:      log.With(zap.String("service", "user")),
	}
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		s.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to find user")
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *userService) GetAllUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	perPage := req.Limit()
	offset := utils.CalculateOffset(page, perPage)

	users, err := s.repo.User.FindAll(ctx, perPage, offset)
	if err != nil {
		s.log.Error("Failed to list users", zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve users")
	}

	total, err := s.repo.User.CountAll(ctx)
	if err != nil {
		s.log.Error("Failed to count users", zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve users")
	}

	result := make([]response.UserResponse, 0, len(users))
	for _, user := range users {
		result = append(result, response.UserToResponse(user))
	}

	return response.NewPaginatedResponse(result, page, perPage, total), nil
}

// DeleteUser soft-deletes the account and revokes all of its sessions so
// outstanding tokens die with it.
func (s *userService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		s.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", userID.String()))
		return fmt.Errorf("failed to find user")
	}
	if user == nil {
		return fmt.Errorf("user not found")
	}

	if err := s.repo.User.Delete(ctx, userID); err != nil {
		s.log.Error("Failed to delete user", zap.Error(err), zap.String("user_id", userID.String()))
		return fmt.Errorf("failed to delete user")
	}

	if count, err := s.registry.RevokeAllOthers(ctx, "", userID); err != nil {
		s.log.Error("Failed to revoke sessions of deleted user",
			zap.Error(err),
			zap.String("user_id", userID.String()))
	} else if count > 0 {
		s.log.Info("Revoked sessions of deleted user",
			zap.String("user_id", userID.String()),
			zap.Int64("count", count))
	}

	s.log.Info("User deleted", zap.String("user_id", userID.String()))
	return nil
}
