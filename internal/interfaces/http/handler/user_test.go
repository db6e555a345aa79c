package handler_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/interfaces/http/dto"
	"github.com/retail/backoffice/internal/interfaces/http/handler"
	"github.com/retail/backoffice/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_Me(t *testing.T) {
	s := testutil.NewStack(t)
	h := handler.NewUserHandler(s.Users)

	testutil.RunHTTPTestCases(t, h.Me, []testutil.HTTPTestCase{
		{
			Name:           "anonymous",
			ExpectedStatus: http.StatusUnauthorized,
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				testutil.AssertErrorResponse(t, tc, dto.ErrCodeUnauthorized)
			},
		},
		{
			Name:           "signed in",
			ExpectedStatus: http.StatusOK,
			Setup: func(t *testing.T, tc *testutil.TestContext) {
				tc.SetUser(s.Cashier.ID, identity.RoleCashier)
			},
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				testutil.AssertSuccessResponse(t, tc)
				resp := testutil.JSONResponseAs[dto.Response](t, tc)
				data, ok := resp.Data.(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, "cashier", data["username"])
				assert.Equal(t, "cashier", data["role"])
			},
		},
		{
			Name:           "stale token for a missing user",
			ExpectedStatus: http.StatusNotFound,
			Setup: func(t *testing.T, tc *testutil.TestContext) {
				tc.SetUser(testutil.NewTestUUID("deleted-user"), identity.RoleCashier)
			},
		},
	})
}

func TestUserHandler_ChangeRole(t *testing.T) {
	s := testutil.NewStack(t)
	h := handler.NewUserHandler(s.Users)
	target := gin.Params{{Key: "id", Value: s.Cashier.ID.String()}}

	testutil.RunHTTPTestCases(t, h.ChangeRole, []testutil.HTTPTestCase{
		{
			Name:           "unknown role",
			Method:         http.MethodPut,
			Body:           map[string]string{"role": "owner"},
			ExpectedStatus: http.StatusBadRequest,
			Setup: func(t *testing.T, tc *testutil.TestContext) {
				tc.SetUser(s.Admin.ID, identity.RoleAdmin)
				tc.Context.Params = target
			},
		},
		{
			Name:           "managers cannot change roles",
			Method:         http.MethodPut,
			Body:           map[string]string{"role": "manager"},
			ExpectedStatus: http.StatusForbidden,
			Setup: func(t *testing.T, tc *testutil.TestContext) {
				tc.SetUser(s.Manager.ID, identity.RoleManager)
				tc.Context.Params = target
			},
		},
		{
			Name:           "malformed id",
			Method:         http.MethodPut,
			Body:           map[string]string{"role": "manager"},
			ExpectedStatus: http.StatusBadRequest,
			Setup: func(t *testing.T, tc *testutil.TestContext) {
				tc.SetUser(s.Admin.ID, identity.RoleAdmin)
				tc.Context.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
			},
		},
		{
			Name:           "admin promotes a cashier",
			Method:         http.MethodPut,
			Body:           map[string]string{"role": "manager"},
			ExpectedStatus: http.StatusOK,
			Setup: func(t *testing.T, tc *testutil.TestContext) {
				tc.SetUser(s.Admin.ID, identity.RoleAdmin)
				tc.Context.Params = target
			},
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				resp := testutil.JSONResponse(t, tc)
				data := resp["data"].(map[string]interface{})
				assert.Equal(t, "manager", data["role"])
			},
		},
	})
}
