package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/domain/inventorycount"
	"github.com/retail/backoffice/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID               uuid.UUID       `json:"id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Phone            string          `json:"phone,omitempty"`
	Email            string          `json:"email,omitempty"`
	Address          string          `json:"address,omitempty"`
	PriceType        string          `json:"price_type"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	Balance          decimal.Decimal `json:"balance"`
	CreditBalance    decimal.Decimal `json:"credit_balance"`
	TotalPurchases   decimal.Decimal `json:"total_purchases"`
	LastPurchaseDate *time.Time      `json:"last_purchase_date,omitempty"`
	PaymentTermsDays int             `json:"payment_terms_days"`
	Status           string          `json:"status"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	Version          int             `json:"version"`
}

func toCustomerResponse(c *partner.Customer) *CustomerResponse {
	if c == nil {
		return nil
	}
	return &CustomerResponse{
		ID:               c.ID,
		Code:             c.Code,
		Name:             c.Name,
		Phone:            c.Phone,
		Email:            c.Email,
		Address:          c.Address,
		PriceType:        string(c.PriceType),
		CreditLimit:      c.CreditLimit,
		Balance:          c.Balance,
		CreditBalance:    c.CreditBalance,
		TotalPurchases:   c.TotalPurchases,
		LastPurchaseDate: c.LastPurchaseDate,
		PaymentTermsDays: c.PaymentTermsDays,
		Status:           string(c.Status),
		Notes:            c.Notes,
		CreatedAt:        c.CreatedAt,
		Version:          c.Version,
	}
}

// SupplierResponse represents a supplier in API responses
type SupplierResponse struct {
	ID               uuid.UUID       `json:"id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Phone            string          `json:"phone,omitempty"`
	Email            string          `json:"email,omitempty"`
	Address          string          `json:"address,omitempty"`
	Balance          decimal.Decimal `json:"balance"`
	TotalPurchases   decimal.Decimal `json:"total_purchases"`
	LastPurchaseDate *time.Time      `json:"last_purchase_date,omitempty"`
	PaymentTermsDays int             `json:"payment_terms_days"`
	Status           string          `json:"status"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	Version          int             `json:"version"`
}

func toSupplierResponse(s *partner.Supplier) *SupplierResponse {
	if s == nil {
		return nil
	}
	return &SupplierResponse{
		ID:               s.ID,
		Code:             s.Code,
		Name:             s.Name,
		Phone:            s.Phone,
		Email:            s.Email,
		Address:          s.Address,
		Balance:          s.Balance,
		TotalPurchases:   s.TotalPurchases,
		LastPurchaseDate: s.LastPurchaseDate,
		PaymentTermsDays: s.PaymentTermsDays,
		Status:           string(s.Status),
		Notes:            s.Notes,
		CreatedAt:        s.CreatedAt,
		Version:          s.Version,
	}
}

// UserResponse represents a user in API responses. The password hash is never exposed.
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name,omitempty"`
	Role        string     `json:"role"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toUserResponse(u *identity.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// CountResponse represents a physical inventory count
type CountResponse struct {
	ID             uuid.UUID             `json:"id"`
	Number         string                `json:"number"`
	Scope          string                `json:"scope"`
	Category       string                `json:"category,omitempty"`
	IsBlind        bool                  `json:"is_blind"`
	Notes          string                `json:"notes,omitempty"`
	Status         string                `json:"status"`
	SnapshotAt     time.Time             `json:"snapshot_at"`
	Items          []inventorycount.Item `json:"items,omitempty"`
	ExpectedHidden bool                  `json:"expected_hidden"`
	CreatedBy      uuid.UUID             `json:"created_by"`
	CompletedAt    *time.Time            `json:"completed_at,omitempty"`
	CompletedBy    *uuid.UUID            `json:"completed_by,omitempty"`
	UnlockedAt     *time.Time            `json:"unlocked_at,omitempty"`
	UnlockedBy     *uuid.UUID            `json:"unlocked_by,omitempty"`
	Version        int                   `json:"version"`
}

// toCountResponse maps a count. items is what the caller may see, which for
// a blind count has the expected quantities blanked.
func toCountResponse(c *inventorycount.Count, items []inventorycount.Item, expectedHidden bool) *CountResponse {
	if c == nil {
		return nil
	}
	return &CountResponse{
		ID:             c.ID,
		Number:         c.Number,
		Scope:          string(c.Scope),
		Category:       c.Category,
		IsBlind:        c.IsBlind,
		Notes:          c.Notes,
		Status:         string(c.Status),
		SnapshotAt:     c.SnapshotAt,
		Items:          items,
		ExpectedHidden: expectedHidden,
		CreatedBy:      c.CreatedBy,
		CompletedAt:    c.CompletedAt,
		CompletedBy:    c.CompletedBy,
		UnlockedAt:     c.UnlockedAt,
		UnlockedBy:     c.UnlockedBy,
		Version:        c.Version,
	}
}
