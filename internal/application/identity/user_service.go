package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

// UserService manages back-office accounts
type UserService struct {
	userRepo identity.UserRepository
	auth     core.Authorizer
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo identity.UserRepository, auth core.Authorizer, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{userRepo: userRepo, auth: auth, logger: logger}
}

// CreateUserCommand contains input for creating a user
type CreateUserCommand struct {
	Username    string        `json:"username" validate:"required,min=3,max=100"`
	Password    string        `json:"password" validate:"required,min=8,max=72"`
	DisplayName string        `json:"display_name" validate:"max=200"`
	Role        identity.Role `json:"role" validate:"required,oneof=admin manager cashier storekeeper"`
}

// CreateUser creates an account. Only admins may create accounts once any
// user exists; the very first account is the bootstrap admin.
func (s *UserService) CreateUser(ctx context.Context, cmd CreateUserCommand, actorID uuid.UUID) (*identity.User, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	if actorID != uuid.Nil {
		if err := s.auth.RequireRole(ctx, actorID, identity.RoleAdmin); err != nil {
			return nil, err
		}
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, cmd.Username)
	if err != nil {
		s.logger.Error("Failed to check username existence", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, shared.NewConflictError("USERNAME_EXISTS", "Username already exists")
	}

	user, err := identity.NewUser(cmd.Username, cmd.Password, cmd.Role)
	if err != nil {
		return nil, err
	}
	user.DisplayName = cmd.DisplayName
	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", user.Role.String()))
	return user, nil
}

// GetUser returns a user by ID
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// ChangeRole assigns a new role. Admins only.
func (s *UserService) ChangeRole(ctx context.Context, id uuid.UUID, role identity.Role, actorID uuid.UUID) (*identity.User, error) {
	if err := s.auth.RequireRole(ctx, actorID, identity.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.SetRole(role); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User role changed", zap.String("user_id", id.String()), zap.String("role", role.String()))
	return user, nil
}

// DeactivateUser disables an account. Admins only.
func (s *UserService) DeactivateUser(ctx context.Context, id, actorID uuid.UUID) error {
	if err := s.auth.RequireRole(ctx, actorID, identity.RoleAdmin); err != nil {
		return err
	}
	if id == actorID {
		return shared.NewValidationError("CANNOT_DEACTIVATE_SELF", "Cannot deactivate your own account")
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	user.Deactivate()
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}
	s.logger.Info("User deactivated", zap.String("user_id", id.String()))
	return nil
}
