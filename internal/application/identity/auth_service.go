package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

// AuthService answers who may do what. It backs the role checks of privileged
// operations and the password confirmation required to unlock a count.
type AuthService struct {
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo identity.UserRepository, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{userRepo: userRepo, logger: logger}
}

var _ core.Authorizer = (*AuthService)(nil)

// RequireRole fails unless the user exists, is active and holds one of roles
func (s *AuthService) RequireRole(ctx context.Context, userID uuid.UUID, roles ...identity.Role) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewAuthorizationError("UNKNOWN_USER", "User is not known")
		}
		return err
	}
	if !user.HasAnyRole(roles...) {
		names := make([]string, 0, len(roles))
		for _, r := range roles {
			names = append(names, r.String())
		}
		s.logger.Warn("Permission denied",
			zap.String("user_id", userID.String()),
			zap.String("role", user.Role.String()),
			zap.Strings("required", names))
		return shared.NewAuthorizationError("INSUFFICIENT_ROLE",
			"This action requires one of the roles: "+strings.Join(names, ", "))
	}
	return nil
}

// VerifyPassword re-authenticates the acting user
func (s *AuthService) VerifyPassword(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewAuthorizationError("UNKNOWN_USER", "User is not known")
		}
		return err
	}
	if !user.Active || !user.VerifyPassword(password) {
		s.logger.Warn("Password confirmation failed", zap.String("user_id", userID.String()))
		return shared.NewAuthorizationError("INVALID_CREDENTIALS", "Password confirmation failed")
	}
	return nil
}

// Authenticate checks a username and password and returns the user. Token
// issuance is left to the caller.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*identity.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("User not found during login", zap.String("username", username))
			return nil, shared.NewAuthorizationError("INVALID_CREDENTIALS", "Invalid username or password")
		}
		return nil, err
	}
	if !user.Active {
		return nil, shared.NewAuthorizationError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	}
	if !user.VerifyPassword(password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", username))
		return nil, shared.NewAuthorizationError("INVALID_CREDENTIALS", "Invalid username or password")
	}
	user.RecordLogin()
	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}
	return user, nil
}
