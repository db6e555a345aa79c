package testutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/infrastructure/logger"
	"github.com/retail/backoffice/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestContext(t *testing.T) {
	tc := NewTestContext(t)

	assert.NotNil(t, tc.Context)
	assert.NotNil(t, tc.Recorder)
	assert.NotNil(t, tc.Engine)
	assert.Equal(t, http.MethodGet, tc.Context.Request.Method)
}

func TestTestContext_SetRequestID(t *testing.T) {
	tc := NewTestContext(t)

	tc.SetRequestID("req-123")

	val, exists := tc.Context.Get(logger.GinRequestIDKey)
	assert.True(t, exists)
	assert.Equal(t, "req-123", val)
}

func TestTestContext_SetUser(t *testing.T) {
	tc := NewTestContext(t)
	id := NewTestUUID("cashier")

	tc.SetUser(id, identity.RoleCashier)

	assert.Equal(t, id.String(), middleware.GetJWTUserID(tc.Context))
	assert.Equal(t, identity.RoleCashier, middleware.GetJWTRole(tc.Context))
}

func TestTestContext_SetHeader(t *testing.T) {
	tc := NewTestContext(t)

	tc.SetHeader("Authorization", "Bearer token")

	assert.Equal(t, "Bearer token", tc.Context.Request.Header.Get("Authorization"))
}

func TestTestContext_ResponseCode(t *testing.T) {
	tc := NewTestContext(t)
	tc.Recorder.WriteHeader(http.StatusCreated)

	assert.Equal(t, http.StatusCreated, tc.ResponseCode())
}

func TestNewTestUUID(t *testing.T) {
	uuid1 := NewTestUUID("test-seed")
	uuid2 := NewTestUUID("test-seed")
	uuid3 := NewTestUUID("different-seed")

	// Same seed should produce same UUID
	assert.Equal(t, uuid1, uuid2)

	// Different seed should produce different UUID
	assert.NotEqual(t, uuid1, uuid3)
}

func TestRunHTTPTestCases(t *testing.T) {
	handler := func(c *gin.Context) {
		var in map[string]string
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "BAD_REQUEST"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "method": c.Request.Method, "echo": in["name"]})
	}

	var validated int
	RunHTTPTestCases(t, handler, []HTTPTestCase{
		{
			Name:           "json body is sent",
			Method:         http.MethodPost,
			Body:           map[string]string{"name": "milk"},
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, tc *TestContext) {
				validated++
				AssertSuccessResponse(t, tc)
				resp := JSONResponse(t, tc)
				assert.Equal(t, http.MethodPost, resp["method"])
				assert.Equal(t, "milk", resp["echo"])
			},
		},
		{
			Name:           "missing body",
			ExpectedStatus: http.StatusBadRequest,
			Setup: func(t *testing.T, tc *TestContext) {
				assert.Equal(t, http.MethodGet, tc.Context.Request.Method)
			},
			Validate: func(t *testing.T, tc *TestContext) {
				validated++
				AssertErrorResponse(t, tc, "BAD_REQUEST")
			},
		},
	})
	assert.Equal(t, 2, validated)
}

func TestJSONResponse(t *testing.T) {
	tc := NewTestContext(t)
	tc.Context.JSON(http.StatusOK, gin.H{"key": "value"})

	resp := JSONResponse(t, tc)
	assert.Equal(t, "value", resp["key"])
}

func TestJSONResponseAs(t *testing.T) {
	type Response struct {
		Key string `json:"key"`
	}

	tc := NewTestContext(t)
	tc.Context.JSON(http.StatusOK, gin.H{"key": "value"})

	resp := JSONResponseAs[Response](t, tc)
	assert.Equal(t, "value", resp.Key)
}

func TestAssertSuccessResponse(t *testing.T) {
	tc := NewTestContext(t)
	tc.Context.JSON(http.StatusOK, gin.H{"success": true})

	AssertSuccessResponse(t, tc)
}

func TestNewStack(t *testing.T) {
	s := NewStack(t)
	ctx := context.Background()

	for _, u := range []*identity.User{s.Admin, s.Manager, s.Cashier, s.Storekeeper} {
		stored, err := s.Users.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Role, stored.Role)
		assert.True(t, stored.VerifyPassword(TestPassword))
	}

	p := s.SeedProduct(t, ProductSpec{Code: "P-1", BuyPrice: 6, SellPrice: 10, WarehouseQty: 4, ShopQty: 1})
	reloaded := s.Product(t, p.ID)
	RequireDecimal(t, Dec(4), reloaded.WarehouseQty)
	RequireDecimal(t, Dec(1), reloaded.ShopQty)

	s.FundTreasury(t, 100)
	RequireDecimal(t, Dec(100), s.Balance(t))
	s.RequireBalanced(t)
}
