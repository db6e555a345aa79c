package partner

import (
	"regexp"
	"strings"
	"time"

	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle of a customer or supplier. Partners are
// archived, never deleted, because documents keep referring to them.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// PriceType selects which product price a customer is charged
type PriceType string

const (
	PriceTypeRetail    PriceType = "retail"
	PriceTypeWholesale PriceType = "wholesale"
)

// IsValid checks if the price type is known
func (t PriceType) IsValid() bool {
	return t == PriceTypeRetail || t == PriceTypeWholesale
}

// Customer buys from the business, in cash or on credit
type Customer struct {
	shared.BaseAggregateRoot
	Code        string
	Name        string
	Phone       string
	Email       string
	Address     string
	PriceType   PriceType
	CreditLimit decimal.Decimal
	// Balance is what the customer currently owes
	Balance decimal.Decimal
	// CreditBalance is money the business owes back to the customer (store credit)
	CreditBalance    decimal.Decimal
	TotalPurchases   decimal.Decimal
	LastPurchaseDate *time.Time
	PaymentTermsDays int
	Status           Status
	Notes            string
}

// NewCustomer creates a new active customer
func NewCustomer(code, name string) (*Customer, error) {
	if err := validateCode(code); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		PriceType:         PriceTypeRetail,
		CreditLimit:       decimal.Zero,
		Balance:           decimal.Zero,
		CreditBalance:     decimal.Zero,
		TotalPurchases:    decimal.Zero,
		Status:            StatusActive,
	}, nil
}

// SetContact sets phone and email
func (c *Customer) SetContact(phone, email string) error {
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
	c.Phone = phone
	c.Email = email
	c.Touch()
	return nil
}

// SetCreditLimit sets the customer's credit limit. Zero means unlimited.
func (c *Customer) SetCreditLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return shared.NewValidationError("INVALID_CREDIT_LIMIT", "Credit limit cannot be negative")
	}
	c.CreditLimit = limit
	c.Touch()
	return nil
}

// SetPriceType changes which product price the customer is charged
func (c *Customer) SetPriceType(t PriceType) error {
	if !t.IsValid() {
		return shared.NewValidationError("INVALID_PRICE_TYPE", "Price type must be retail or wholesale")
	}
	c.PriceType = t
	c.Touch()
	return nil
}

// SetPaymentTerms overrides the default number of days a credit sale is due after
func (c *Customer) SetPaymentTerms(days int) error {
	if days < 0 {
		return shared.NewValidationError("INVALID_PAYMENT_TERMS", "Payment terms cannot be negative")
	}
	c.PaymentTermsDays = days
	c.Touch()
	return nil
}

// HasCreditLimit reports whether a limit is enforced
func (c *Customer) HasCreditLimit() bool {
	return c.CreditLimit.IsPositive()
}

// AvailableCredit returns how much more the customer may owe
func (c *Customer) AvailableCredit() decimal.Decimal {
	if !c.HasCreditLimit() {
		return decimal.Zero
	}
	return c.CreditLimit.Sub(c.Balance)
}

// CheckCredit rejects a new credit amount that would take the balance over the limit
func (c *Customer) CheckCredit(amount decimal.Decimal) error {
	if c.HasCreditLimit() && c.Balance.Add(amount).GreaterThan(c.CreditLimit) {
		return shared.NewCreditLimitExceededError(c.CreditLimit, c.Balance, amount)
	}
	return nil
}

// IncreaseBalance adds to what the customer owes
func (c *Customer) IncreaseBalance(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Amount must be positive")
	}
	c.Balance = c.Balance.Add(amount)
	c.Touch()
	return nil
}

// DecreaseBalance lowers what the customer owes. The balance cannot go below zero.
func (c *Customer) DecreaseBalance(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Amount must be positive")
	}
	if c.Balance.LessThan(amount) {
		return shared.NewValidationError("BALANCE_UNDERFLOW", "Amount exceeds the customer's balance")
	}
	c.Balance = c.Balance.Sub(amount)
	c.Touch()
	return nil
}

// AddCreditBalance records store credit owed to the customer
func (c *Customer) AddCreditBalance(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Amount must be positive")
	}
	c.CreditBalance = c.CreditBalance.Add(amount)
	c.Touch()
	return nil
}

// RecordPurchase adds a sale to the customer's purchase history
func (c *Customer) RecordPurchase(total decimal.Decimal, at time.Time) {
	c.TotalPurchases = c.TotalPurchases.Add(total)
	c.LastPurchaseDate = &at
	c.Touch()
}

// RollbackPurchase removes a reversed or returned sale from the purchase total
func (c *Customer) RollbackPurchase(total decimal.Decimal) {
	c.TotalPurchases = decimal.Max(c.TotalPurchases.Sub(total), decimal.Zero)
	c.Touch()
}

// Archive hides the customer from new sales
func (c *Customer) Archive() {
	c.Status = StatusArchived
	c.Touch()
}

// IsActive reports whether the customer can buy
func (c *Customer) IsActive() bool {
	return c.Status == StatusActive
}

func validateCode(code string) error {
	if code == "" {
		return shared.NewValidationError("INVALID_CODE", "Code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewValidationError("INVALID_CODE", "Code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewValidationError("INVALID_CODE", "Code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewValidationError("INVALID_NAME", "Name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewValidationError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	return nil
}

var (
	phonePattern = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

func validatePhone(phone string) error {
	if len(phone) > 50 || !phonePattern.MatchString(phone) {
		return shared.NewValidationError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 || !emailPattern.MatchString(email) {
		return shared.NewValidationError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
