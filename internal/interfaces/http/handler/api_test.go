package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/interfaces/http/dto"
	"github.com/retail/backoffice/internal/interfaces/http/handler"
	"github.com/retail/backoffice/internal/interfaces/http/middleware"
	"github.com/retail/backoffice/internal/interfaces/http/router"
	"github.com/retail/backoffice/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testUserHeader = "X-Test-User"
	testRoleHeader = "X-Test-Role"
)

// fakeAuth stands in for the JWT middleware: it trusts the test headers
func fakeAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader(testUserHeader); id != "" {
			c.Set(middleware.JWTUserIDKey, id)
		}
		if role := c.GetHeader(testRoleHeader); role != "" {
			c.Set(middleware.JWTRoleKey, identity.Role(role))
		}
		c.Next()
	}
}

type apiFixture struct {
	*testutil.Stack
	engine *gin.Engine
}

func newAPI(t *testing.T, checks map[string]handler.HealthCheck) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := testutil.NewStack(t)

	hs := handler.Handlers{
		Sales:    handler.NewSalesHandler(s.Orchestrator),
		Purchase: handler.NewPurchaseHandler(s.Orchestrator),
		Debt:     handler.NewDebtHandler(s.Debts, s.Orchestrator),
		Treasury: handler.NewTreasuryHandler(s.Treasury),
		Stock:    handler.NewStockHandler(s.Stock),
		Ledger:   handler.NewLedgerHandler(s.Ledger),
		Partner:  handler.NewPartnerHandler(s.Customers, s.Suppliers),
		Count:    handler.NewCountHandler(s.Counts),
		User:     handler.NewUserHandler(s.Users),
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	r := router.NewRouter(engine, router.WithMiddleware(fakeAuth()))
	r.RegisterPublic(handler.SystemGroup(handler.NewSystemHandler("Retail Back Office", "test", checks)))
	for _, g := range hs.DomainGroups(zap.NewNop()) {
		r.Register(g)
	}
	r.Setup()
	return &apiFixture{Stack: s, engine: engine}
}

func (f *apiFixture) do(t *testing.T, method, path string, user *identity.User, body any, headers map[string]string) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set(testUserHeader, user.ID.String())
		req.Header.Set(testRoleHeader, string(user.Role))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

// dataInto re-decodes the generic response data into out
func dataInto(t *testing.T, resp dto.Response, out any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestAPI_SaleFlow(t *testing.T) {
	api := newAPI(t, nil)
	p := api.SeedProduct(t, testutil.ProductSpec{Code: "RICE", BuyPrice: 6, SellPrice: 10, ShopQty: 5})

	sale := map[string]any{
		"payment_type": "cash",
		"items":        []map[string]any{{"product_id": p.ID, "quantity": "2"}},
	}
	idem := map[string]string{middleware.IdempotencyKeyHeader: "till-3-0042"}

	w, resp := api.do(t, http.MethodPost, "/sales", api.Cashier, sale, idem)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created handler.SaleResponse
	dataInto(t, resp, &created)
	require.NotNil(t, created.Invoice)
	assert.Equal(t, "INV-000001", created.Invoice.Number)
	assert.True(t, created.Invoice.Total.Equal(decimal.NewFromInt(20)))

	t.Run("retry with the same key is rejected", func(t *testing.T) {
		w, resp := api.do(t, http.MethodPost, "/sales", api.Cashier, sale, idem)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, shared.ErrDuplicateRequest.Code, resp.Error.Code)
	})

	w, resp = api.do(t, http.MethodGet, "/treasury/balance", api.Cashier, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var balance handler.BalanceResponse
	dataInto(t, resp, &balance)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(20)), balance.Balance.String())

	t.Run("cashiers cannot reverse", func(t *testing.T) {
		w, resp := api.do(t, http.MethodPost, "/sales/invoices/"+created.Invoice.ID.String()+"/reverse", api.Cashier,
			map[string]string{"reason": "wrong item"}, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeForbidden, resp.Error.Code)
	})

	w, _ = api.do(t, http.MethodPost, "/sales/invoices/"+created.Invoice.ID.String()+"/reverse", api.Manager,
		map[string]string{"reason": "wrong item"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	testutil.RequireDecimal(t, testutil.Dec(5), api.Product(t, p.ID).ShopQty)
	api.RequireBalanced(t)
}

func TestAPI_InsufficientStock(t *testing.T) {
	api := newAPI(t, nil)
	p := api.SeedProduct(t, testutil.ProductSpec{Code: "OIL", BuyPrice: 3, SellPrice: 5, ShopQty: 1})

	w, resp := api.do(t, http.MethodPost, "/sales", api.Cashier, map[string]any{
		"payment_type": "cash",
		"items":        []map[string]any{{"product_id": p.ID, "quantity": 4, "location": "shop"}},
	}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(shared.KindInsufficientStock), resp.Error.Kind)
	var shortages []shared.StockShortage
	raw, err := json.Marshal(resp.Error.Details)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &shortages))
	require.Len(t, shortages, 1)
	assert.True(t, shortages[0].Shortfall.Equal(decimal.NewFromInt(3)))
}

func TestAPI_ValidationAndAuth(t *testing.T) {
	api := newAPI(t, nil)

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(testUserHeader, api.Storekeeper.ID.String())
		req.Header.Set(testRoleHeader, string(api.Storekeeper.Role))
		w := httptest.NewRecorder()
		api.engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("service validation", func(t *testing.T) {
		w, resp := api.do(t, http.MethodPost, "/products", api.Storekeeper, map[string]any{"code": "P-1"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, string(shared.KindValidation), resp.Error.Kind)
	})

	t.Run("role gate", func(t *testing.T) {
		w, _ := api.do(t, http.MethodPost, "/ledger/entries", api.Cashier, map[string]any{}, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("no user", func(t *testing.T) {
		w, resp := api.do(t, http.MethodGet, "/users/me", nil, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
	})

	t.Run("bad path id", func(t *testing.T) {
		w, _ := api.do(t, http.MethodGet, "/products/not-a-uuid", api.Cashier, nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown product", func(t *testing.T) {
		w, _ := api.do(t, http.MethodGet, "/products/"+uuid.NewString(), api.Cashier, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("me", func(t *testing.T) {
		w, resp := api.do(t, http.MethodGet, "/users/me", api.Manager, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		data, ok := resp.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "manager", data["username"])
	})
}

func TestAPI_SystemRoutesArePublic(t *testing.T) {
	api := newAPI(t, map[string]handler.HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	w, _ := api.do(t, http.MethodGet, "/system/info", nil, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp := api.do(t, http.MethodGet, "/system/health", nil, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var health handler.HealthResponse
	dataInto(t, resp, &health)
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "ok", health.Checks["database"])
	assert.Equal(t, "connection refused", health.Checks["redis"])
}
