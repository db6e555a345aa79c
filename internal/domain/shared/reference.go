package shared

import (
	"fmt"

	"github.com/google/uuid"
)

// ReferenceType names the kind of record a Reference points at.
// The set is closed; anything else is rejected by Validate.
type ReferenceType string

const (
	ReferenceInvoice             ReferenceType = "Invoice"
	ReferencePurchaseOrder       ReferenceType = "PurchaseOrder"
	ReferenceManual              ReferenceType = "Manual"
	ReferenceSalesReturn         ReferenceType = "SalesReturn"
	ReferenceDebt                ReferenceType = "Debt"
	ReferenceInventoryCount      ReferenceType = "InventoryCount"
	ReferenceTreasuryTransaction ReferenceType = "TreasuryTransaction"
	ReferenceProduct             ReferenceType = "Product"
)

// IsValid checks if the reference type is one of the known types
func (t ReferenceType) IsValid() bool {
	switch t {
	case ReferenceInvoice, ReferencePurchaseOrder, ReferenceManual, ReferenceSalesReturn,
		ReferenceDebt, ReferenceInventoryCount, ReferenceTreasuryTransaction, ReferenceProduct:
		return true
	}
	return false
}

// String returns the string representation of ReferenceType
func (t ReferenceType) String() string {
	return string(t)
}

// Reference is a typed pointer from a posting (ledger entry, treasury transaction,
// movement, debt) back to the business document that caused it.
type Reference struct {
	Type ReferenceType `json:"type"`
	ID   uuid.UUID     `json:"id"`
}

// NewReference creates a reference to a document
func NewReference(t ReferenceType, id uuid.UUID) Reference {
	return Reference{Type: t, ID: id}
}

// ManualReference returns the reference used for operator-entered records
func ManualReference() Reference {
	return Reference{Type: ReferenceManual}
}

// Validate checks that the type is known and that non-manual references carry an ID
func (r Reference) Validate() error {
	if !r.Type.IsValid() {
		return NewValidationError("INVALID_REFERENCE", fmt.Sprintf("Unknown reference type %q", r.Type))
	}
	if r.Type != ReferenceManual && r.ID == uuid.Nil {
		return NewValidationError("INVALID_REFERENCE", fmt.Sprintf("%s reference requires an ID", r.Type))
	}
	return nil
}

// IsZero reports whether the reference is unset
func (r Reference) IsZero() bool {
	return r.Type == "" && r.ID == uuid.Nil
}

// String formats the reference as Type:ID
func (r Reference) String() string {
	if r.ID == uuid.Nil {
		return string(r.Type)
	}
	return fmt.Sprintf("%s:%s", r.Type, r.ID)
}
