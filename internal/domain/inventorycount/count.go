package inventorycount

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/shared/valueobject"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// Scope is the part of the stock a count covers
type Scope string

const (
	ScopeWarehouse Scope = "warehouse"
	ScopeShop      Scope = "shop"
	ScopeBoth      Scope = "both"
)

// IsValid checks if the scope is known
func (s Scope) IsValid() bool {
	return s == ScopeWarehouse || s == ScopeShop || s == ScopeBoth
}

// Status is the state of a count session
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusCompleted Status = "COMPLETED"
)

// Item is one product line of a count
type Item struct {
	ProductID         uuid.UUID        `json:"product_id"`
	ProductCode       string           `json:"product_code"`
	ProductName       string           `json:"product_name"`
	ExpectedQty       decimal.Decimal  `json:"expected_qty"`
	ExpectedWarehouse decimal.Decimal  `json:"expected_warehouse"`
	ExpectedShop      decimal.Decimal  `json:"expected_shop"`
	ActualQty         *decimal.Decimal `json:"actual_qty"`
	Variance          decimal.Decimal  `json:"variance"`
	Reason            string           `json:"reason,omitempty"`
	BuyPrice          decimal.Decimal  `json:"buy_price"`
}

// IsCounted reports whether an actual quantity was entered
func (i *Item) IsCounted() bool {
	return i.ActualQty != nil
}

// Count is a physical inventory session. Stock is only touched when it completes.
type Count struct {
	shared.BaseAggregateRoot
	Number      string
	Scope       Scope
	Category    string
	IsBlind     bool
	Notes       string
	Status      Status
	SnapshotAt  time.Time
	Items       []Item
	CreatedBy   uuid.UUID
	CompletedAt *time.Time
	CompletedBy *uuid.UUID
	UnlockedAt  *time.Time
	UnlockedBy  *uuid.UUID
}

// FormatCountNumber renders the display number of a count
func FormatCountNumber(n int64) string {
	return fmt.Sprintf("IC-%06d", n)
}

// NewCount snapshots the expected quantities of products in scope
func NewCount(scope Scope, category string, isBlind bool, notes string, products []*stock.Product, userID uuid.UUID, sequence int64) (*Count, error) {
	if !scope.IsValid() {
		return nil, shared.NewValidationError("INVALID_LOCATION", fmt.Sprintf("Unknown count location %q", scope))
	}
	if len(products) == 0 {
		return nil, shared.NewValidationError("NO_PRODUCTS", "No products match the count criteria")
	}

	c := &Count{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            FormatCountNumber(sequence),
		Scope:             scope,
		Category:          category,
		IsBlind:           isBlind,
		Notes:             notes,
		Status:            StatusDraft,
		SnapshotAt:        time.Now(),
		Items:             make([]Item, 0, len(products)),
		CreatedBy:         userID,
	}
	for _, p := range products {
		item := Item{
			ProductID:         p.ID,
			ProductCode:       p.Code,
			ProductName:       p.Name,
			ExpectedWarehouse: decimal.Zero,
			ExpectedShop:      decimal.Zero,
			Variance:          decimal.Zero,
			BuyPrice:          p.BuyPrice,
		}
		if scope != ScopeShop {
			item.ExpectedWarehouse = p.WarehouseQty
		}
		if scope != ScopeWarehouse {
			item.ExpectedShop = p.ShopQty
		}
		item.ExpectedQty = item.ExpectedWarehouse.Add(item.ExpectedShop)
		c.Items = append(c.Items, item)
	}
	return c, nil
}

// ProductIDs returns the products in the count
func (c *Count) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// HidesExpected reports whether expected quantities must be withheld from the counter
func (c *Count) HidesExpected() bool {
	return c.IsBlind && c.Status == StatusDraft
}

// Redacted returns a copy of the items with expected quantities and variances
// blanked while a blind count is still being entered
func (c *Count) Redacted() []Item {
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	if !c.HidesExpected() {
		return items
	}
	for i := range items {
		items[i].ExpectedQty = decimal.Zero
		items[i].ExpectedWarehouse = decimal.Zero
		items[i].ExpectedShop = decimal.Zero
		items[i].Variance = decimal.Zero
	}
	return items
}

// ActualInput is one counted quantity entered by the operator
type ActualInput struct {
	ProductID uuid.UUID
	ActualQty decimal.Decimal
	Reason    string
}

// UpdateActualQuantities records counted quantities. Only allowed while DRAFT.
func (c *Count) UpdateActualQuantities(inputs []ActualInput) error {
	if c.Status != StatusDraft {
		return shared.NewConflictError("COUNT_LOCKED", fmt.Sprintf("Count %s is %s and cannot be edited", c.Number, c.Status))
	}
	index := make(map[uuid.UUID]int, len(c.Items))
	for i, it := range c.Items {
		index[it.ProductID] = i
	}
	for _, in := range inputs {
		if in.ActualQty.IsNegative() {
			return shared.NewValidationError("INVALID_QUANTITY", "Counted quantity cannot be negative")
		}
		if _, ok := index[in.ProductID]; !ok {
			return shared.NewValidationError("PRODUCT_NOT_IN_COUNT", fmt.Sprintf("Product %s is not part of count %s", in.ProductID, c.Number))
		}
	}
	for _, in := range inputs {
		it := &c.Items[index[in.ProductID]]
		actual := in.ActualQty
		it.ActualQty = &actual
		it.Variance = actual.Sub(it.ExpectedQty)
		it.Reason = in.Reason
	}
	c.Touch()
	return nil
}

// LocationTarget is the quantity a location must hold after the count completes
type LocationTarget struct {
	Location stock.Location
	Quantity decimal.Decimal
}

// Targets returns the per-location quantities the counted value translates to.
// A count over both locations splits the counted total in proportion to the
// expected quantities, falling back to the shop when nothing was expected.
func (c *Count) Targets(it *Item) []LocationTarget {
	if !it.IsCounted() {
		return nil
	}
	switch c.Scope {
	case ScopeWarehouse:
		return []LocationTarget{{stock.LocationWarehouse, *it.ActualQty}}
	case ScopeShop:
		return []LocationTarget{{stock.LocationShop, *it.ActualQty}}
	}
	places := int32(0)
	if !it.ActualQty.Equal(it.ActualQty.Truncate(0)) {
		places = 3
	}
	shares := valueobject.SplitProportionally(*it.ActualQty,
		[]decimal.Decimal{it.ExpectedShop, it.ExpectedWarehouse}, places)
	return []LocationTarget{
		{stock.LocationShop, shares[0]},
		{stock.LocationWarehouse, shares[1]},
	}
}

// Complete locks the count
func (c *Count) Complete(userID uuid.UUID) error {
	if c.Status != StatusDraft {
		return shared.NewConflictError("COUNT_LOCKED", fmt.Sprintf("Count %s is already %s", c.Number, c.Status))
	}
	now := time.Now()
	c.Status = StatusCompleted
	c.CompletedAt = &now
	c.CompletedBy = &userID
	c.Touch()
	return nil
}

// Unlock reopens a completed count for correction. Adjustments already applied
// stay in place; completing again sets the counted values afresh.
func (c *Count) Unlock(userID uuid.UUID) error {
	if c.Status != StatusCompleted {
		return shared.NewConflictError("COUNT_NOT_COMPLETED", fmt.Sprintf("Count %s is not completed", c.Number))
	}
	now := time.Now()
	c.Status = StatusDraft
	c.UnlockedAt = &now
	c.UnlockedBy = &userID
	c.Touch()
	return nil
}
