package core

import (
	"context"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/identity"
)

// Authorizer answers role and re-authentication questions about the acting user
type Authorizer interface {
	// RequireRole returns an authorization error unless the user is active and holds one of roles
	RequireRole(ctx context.Context, userID uuid.UUID, roles ...identity.Role) error
	// VerifyPassword returns an authorization error unless password matches the user's
	VerifyPassword(ctx context.Context, userID uuid.UUID, password string) error
}
