package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                testSecret,
		Issuer:                "test-issuer",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func newTestUser(role identity.Role) *identity.User {
	return &identity.User{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: shared.BaseEntity{ID: uuid.New()}},
		Username:          "cashier1",
		Role:              role,
		Active:            true,
	}
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := newTestJWTService()
	user := newTestUser(identity.RoleCashier)

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, identity.RoleCashier, claims.Role)
	assert.Equal(t, "cashier1", claims.Username)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.WithinDuration(t, expiresAt, claims.ExpiresAtTime(), time.Second)
}

func TestValidateAccessToken_ExpiredToken(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:                testSecret,
		Issuer:                "test-issuer",
		AccessTokenExpiration: -1 * time.Hour,
	})

	token, _, err := svc.GenerateAccessToken(newTestUser(identity.RoleAdmin))
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_InvalidToken(t *testing.T) {
	svc := newTestJWTService()

	_, err := svc.ValidateAccessToken("invalid-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	other := NewJWTService(config.JWTConfig{
		Secret:                "another-secret-key-of-32-characters",
		Issuer:                "test-issuer",
		AccessTokenExpiration: time.Minute,
	})
	token, _, err := other.GenerateAccessToken(newTestUser(identity.RoleAdmin))
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_WrongIssuer(t *testing.T) {
	other := NewJWTService(config.JWTConfig{
		Secret:                testSecret,
		Issuer:                "someone-else",
		AccessTokenExpiration: time.Minute,
	})
	token, _, err := other.GenerateAccessToken(newTestUser(identity.RoleAdmin))
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_ClaimChecks(t *testing.T) {
	svc := newTestJWTService()
	sign := func(claims *Claims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return token
	}
	registered := func(sub string) jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}
	}

	tests := []struct {
		name    string
		claims  *Claims
		wantErr error
	}{
		{
			name:    "missing subject",
			claims:  &Claims{RegisteredClaims: registered(""), Role: identity.RoleAdmin},
			wantErr: ErrMissingSubject,
		},
		{
			name:    "subject is not a user id",
			claims:  &Claims{RegisteredClaims: registered("not-a-uuid"), Role: identity.RoleAdmin},
			wantErr: ErrInvalidClaims,
		},
		{
			name:    "unknown role",
			claims:  &Claims{RegisteredClaims: registered(uuid.NewString()), Role: "superuser"},
			wantErr: ErrInvalidRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(sign(tt.claims))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateAccessToken_RejectsOtherAlgorithms(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Role: identity.RoleAdmin,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
