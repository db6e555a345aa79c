package trade

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentType is how a sale or purchase is settled when it is recorded
type PaymentType string

const (
	PaymentTypeCash   PaymentType = "cash"
	PaymentTypeBank   PaymentType = "bank"
	PaymentTypeCredit PaymentType = "credit"
)

// IsValid checks if the payment type is known
func (t PaymentType) IsValid() bool {
	return t == PaymentTypeCash || t == PaymentTypeBank || t == PaymentTypeCredit
}

// Method returns the payment method of an up-front settlement
func (t PaymentType) Method() shared.PaymentMethod {
	if t == PaymentTypeBank {
		return shared.PaymentMethodBankTransfer
	}
	return shared.PaymentMethodCash
}

// String returns the string representation of PaymentType
func (t PaymentType) String() string {
	return string(t)
}

// PaymentStatus tracks how much of a document has been paid
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

func paymentStatusFor(paid, outstanding decimal.Decimal) PaymentStatus {
	switch {
	case !outstanding.IsPositive():
		return PaymentStatusPaid
	case paid.IsPositive():
		return PaymentStatusPartial
	default:
		return PaymentStatusPending
	}
}

// DocumentPayment is one payment recorded on an invoice or purchase order
type DocumentPayment struct {
	ID         uuid.UUID            `json:"id"`
	Amount     decimal.Decimal      `json:"amount"`
	Method     shared.PaymentMethod `json:"method"`
	Note       string               `json:"note,omitempty"`
	Date       time.Time            `json:"date"`
	RecordedBy uuid.UUID            `json:"recorded_by"`
	IsReversed bool                 `json:"is_reversed,omitempty"`
}

func newDocumentPayment(amount decimal.Decimal, method shared.PaymentMethod, note string, date time.Time, userID uuid.UUID) (DocumentPayment, error) {
	if !amount.IsPositive() {
		return DocumentPayment{}, shared.NewValidationError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return DocumentPayment{}, shared.NewValidationError("INVALID_PAYMENT_METHOD", "Unknown payment method "+string(method))
	}
	if date.IsZero() {
		date = time.Now()
	}
	return DocumentPayment{
		ID:         uuid.New(),
		Amount:     amount,
		Method:     method,
		Note:       note,
		Date:       date,
		RecordedBy: userID,
	}, nil
}

// DocumentPayments is a JSON-stored list of payments
type DocumentPayments []DocumentPayment

// Value implements driver.Valuer
func (p DocumentPayments) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (p *DocumentPayments) Scan(value any) error {
	if value == nil {
		*p = DocumentPayments{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("type assertion to []byte or string failed")
	}
	return json.Unmarshal(bytes, p)
}

// Total sums the non-reversed payments
func (p DocumentPayments) Total() decimal.Decimal {
	total := decimal.Zero
	for _, pay := range p {
		if !pay.IsReversed {
			total = total.Add(pay.Amount)
		}
	}
	return total
}
