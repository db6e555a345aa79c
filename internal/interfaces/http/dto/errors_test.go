package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		kind     shared.ErrorKind
		expected int
	}{
		{shared.KindValidation, http.StatusBadRequest},
		{shared.KindNotFound, http.StatusNotFound},
		{shared.KindInsufficientStock, http.StatusUnprocessableEntity},
		{shared.KindInsufficientFunds, http.StatusUnprocessableEntity},
		{shared.KindCreditLimitExceeded, http.StatusUnprocessableEntity},
		{shared.KindConflict, http.StatusConflict},
		{shared.KindAuthorization, http.StatusForbidden},
		{shared.KindInternal, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.kind))
		})
	}
}

func TestFromError(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantKind    string
		wantMessage string
	}{
		{
			name:        "validation",
			err:         shared.NewValidationError("INVALID_INPUT", "quantity must be greater than 0"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    "INVALID_INPUT",
			wantKind:    "VALIDATION",
			wantMessage: "quantity must be greater than 0",
		},
		{
			name:        "wrapped not found",
			err:         fmt.Errorf("load invoice: %w", shared.NewNotFoundError("Invoice", productID)),
			wantStatus:  http.StatusNotFound,
			wantCode:    "NOT_FOUND",
			wantKind:    "NOT_FOUND",
			wantMessage: "Invoice " + productID.String() + " not found",
		},
		{
			name:       "insufficient funds",
			err:        shared.NewInsufficientFundsError(decimal.NewFromInt(100), decimal.NewFromInt(250)),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INSUFFICIENT_FUNDS",
			wantKind:   "INSUFFICIENT_FUNDS",
		},
		{
			name:       "credit limit",
			err:        shared.NewCreditLimitExceededError(decimal.NewFromInt(1000), decimal.NewFromInt(900), decimal.NewFromInt(200)),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "CREDIT_LIMIT_EXCEEDED",
			wantKind:   "CREDIT_LIMIT_EXCEEDED",
		},
		{
			name:        "conflict",
			err:         shared.ErrAlreadyReversed,
			wantStatus:  http.StatusConflict,
			wantCode:    "ALREADY_REVERSED",
			wantKind:    "CONFLICT",
			wantMessage: "Record has already been reversed",
		},
		{
			name:       "authorization",
			err:        shared.NewAuthorizationError("ROLE_REQUIRED", "Requires admin"),
			wantStatus: http.StatusForbidden,
			wantCode:   "ROLE_REQUIRED",
			wantKind:   "AUTHORIZATION",
		},
		{
			name:        "unknown errors are internal and hidden",
			err:         errors.New("pq: connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    ErrCodeInternal,
			wantKind:    "INTERNAL",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, info := FromError(tt.err, "req-1")
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.Equal(t, tt.wantKind, info.Kind)
			assert.Equal(t, "req-1", info.RequestID)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, info.Message)
			}
		})
	}
}

func TestFromError_StockShortagesBecomeDetails(t *testing.T) {
	shortage := shared.StockShortage{
		ProductID:   uuid.New(),
		ProductName: "Widget",
		Location:    "shop",
		Requested:   decimal.NewFromInt(5),
		Available:   decimal.NewFromInt(2),
		Shortfall:   decimal.NewFromInt(3),
	}
	err := fmt.Errorf("record sale: %w", shared.NewInsufficientStockError(shortage))

	status, info := FromError(err, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", info.Code)
	assert.Equal(t, "INSUFFICIENT_STOCK", info.Kind)
	assert.Contains(t, info.Message, "Widget")

	body, jsonErr := json.Marshal(Response{Error: info})
	require.NoError(t, jsonErr)

	var decoded struct {
		Success bool `json:"success"`
		Error   struct {
			Details []map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.False(t, decoded.Success)
	require.Len(t, decoded.Error.Details, 1)
	assert.Equal(t, "Widget", decoded.Error.Details[0]["product_name"])
	assert.Equal(t, "3", decoded.Error.Details[0]["shortfall"])
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 45, 2, 20)
	require.NotNil(t, resp.Meta)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	empty := NewSuccessResponseWithMeta(nil, 0, 1, 0)
	assert.Equal(t, 0, empty.Meta.TotalPages)
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-9", []ValidationDetail{
		{Field: "amount", Message: "This field is required"},
	})
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-9", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 1)
}
