package shared

// PaymentMethod is how money changed hands for a payment or settlement
type PaymentMethod string

const (
	PaymentMethodCash             PaymentMethod = "cash"
	PaymentMethodBankTransfer     PaymentMethod = "bank_transfer"
	PaymentMethodCheck            PaymentMethod = "check"
	PaymentMethodCashWallet       PaymentMethod = "cash_wallet"
	PaymentMethodInternalTransfer PaymentMethod = "internal_transfer"
)

// IsValid checks if the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheck,
		PaymentMethodCashWallet, PaymentMethodInternalTransfer:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// IsBank reports whether the money moves through the bank account
func (m PaymentMethod) IsBank() bool {
	return m == PaymentMethodBankTransfer || m == PaymentMethodCheck
}

// MovesCash reports whether the payment changes the cash position held by the
// treasury. Internal transfers only align records and move no money.
func (m PaymentMethod) MovesCash() bool {
	return m == PaymentMethodCash || m == PaymentMethodCashWallet
}

// IsInternal reports whether the method is the bookkeeping-only transfer used
// when debts and documents are synchronized
func (m PaymentMethod) IsInternal() bool {
	return m == PaymentMethodInternalTransfer
}
