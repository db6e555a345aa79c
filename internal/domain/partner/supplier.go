package partner

import (
	"strings"
	"time"

	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Supplier sells goods to the business
type Supplier struct {
	shared.BaseAggregateRoot
	Code    string
	Name    string
	Phone   string
	Email   string
	Address string
	// Balance is what the business currently owes the supplier
	Balance          decimal.Decimal
	TotalPurchases   decimal.Decimal
	LastPurchaseDate *time.Time
	PaymentTermsDays int
	Status           Status
	Notes            string
}

// NewSupplier creates a new active supplier
func NewSupplier(code, name string) (*Supplier, error) {
	if err := validateCode(code); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	return &Supplier{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Balance:           decimal.Zero,
		TotalPurchases:    decimal.Zero,
		Status:            StatusActive,
	}, nil
}

// SetContact sets phone and email
func (s *Supplier) SetContact(phone, email string) error {
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	s.Phone = phone
	s.Email = email
	s.Touch()
	return nil
}

// SetPaymentTerms overrides the default number of days a credit purchase is due after
func (s *Supplier) SetPaymentTerms(days int) error {
	if days < 0 {
		return shared.NewValidationError("INVALID_PAYMENT_TERMS", "Payment terms cannot be negative")
	}
	s.PaymentTermsDays = days
	s.Touch()
	return nil
}

// IncreaseBalance adds to what the business owes
func (s *Supplier) IncreaseBalance(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Amount must be positive")
	}
	s.Balance = s.Balance.Add(amount)
	s.Touch()
	return nil
}

// DecreaseBalance lowers what the business owes. The balance cannot go below zero.
func (s *Supplier) DecreaseBalance(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Amount must be positive")
	}
	if s.Balance.LessThan(amount) {
		return shared.NewValidationError("BALANCE_UNDERFLOW", "Amount exceeds the supplier balance")
	}
	s.Balance = s.Balance.Sub(amount)
	s.Touch()
	return nil
}

// RecordPurchase adds a received purchase to the supplier's history
func (s *Supplier) RecordPurchase(total decimal.Decimal, at time.Time) {
	s.TotalPurchases = s.TotalPurchases.Add(total)
	s.LastPurchaseDate = &at
	s.Touch()
}

// Archive hides the supplier from new purchase orders
func (s *Supplier) Archive() {
	s.Status = StatusArchived
	s.Touch()
}

// IsActive reports whether purchase orders can be placed
func (s *Supplier) IsActive() bool {
	return s.Status == StatusActive
}
