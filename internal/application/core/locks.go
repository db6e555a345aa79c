package core

import (
	"github.com/google/uuid"
)

// Lock keys of the entities commands write. The locker acquires them in sorted
// order, so any combination is deadlock free.
const KeyTreasury = "treasury"

// KeyProduct is the lock key of a product's stock
func KeyProduct(id uuid.UUID) string { return "product:" + id.String() }

// KeyProducts returns the lock keys of several products
func KeyProducts(ids []uuid.UUID) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, KeyProduct(id))
	}
	return keys
}

// KeyDebt is the lock key of a debt
func KeyDebt(id uuid.UUID) string { return "debt:" + id.String() }

// KeyCustomer is the lock key of a customer's balances
func KeyCustomer(id uuid.UUID) string { return "customer:" + id.String() }

// KeySupplier is the lock key of a supplier's balance
func KeySupplier(id uuid.UUID) string { return "supplier:" + id.String() }

// KeyInvoice is the lock key of an invoice
func KeyInvoice(id uuid.UUID) string { return "invoice:" + id.String() }

// KeyPurchaseOrder is the lock key of a purchase order
func KeyPurchaseOrder(id uuid.UUID) string { return "purchase_order:" + id.String() }

// KeyCount is the lock key of an inventory count
func KeyCount(id uuid.UUID) string { return "count:" + id.String() }
