package stock

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MovementType is the kind of stock change
type MovementType string

const (
	MovementIn                  MovementType = "IN"
	MovementOutSale             MovementType = "OUT_SALE"
	MovementTransferToShop      MovementType = "TRANSFER_TO_SHOP"
	MovementTransferToWarehouse MovementType = "TRANSFER_TO_WAREHOUSE"
	MovementAdjust              MovementType = "ADJUST"
	MovementOpening             MovementType = "OPENING"
)

// IsValid checks if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementIn, MovementOutSale, MovementTransferToShop, MovementTransferToWarehouse,
		MovementAdjust, MovementOpening:
		return true
	}
	return false
}

// IsTransfer reports whether the movement shifts stock between locations
func (t MovementType) IsTransfer() bool {
	return t == MovementTransferToShop || t == MovementTransferToWarehouse
}

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// Movement is a write-once record of one change to a product's stock.
// Quantity is signed for IN, OUT_SALE, ADJUST and OPENING; for transfers it is
// the positive amount moved from Location to the other location.
type Movement struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	Type           MovementType
	Quantity       decimal.Decimal
	Location       Location
	WarehouseAfter decimal.Decimal
	ShopAfter      decimal.Decimal
	Reference      shared.Reference
	Note           string
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
}

// MovementContext is the provenance attached to every movement of one request
type MovementContext struct {
	Reference shared.Reference
	Note      string
	UserID    uuid.UUID
}

func (p *Product) newMovement(t MovementType, qty decimal.Decimal, loc Location, mc MovementContext) *Movement {
	ref := mc.Reference
	if ref.IsZero() {
		ref = shared.ManualReference()
	}
	return &Movement{
		ID:             uuid.New(),
		ProductID:      p.ID,
		Type:           t,
		Quantity:       qty,
		Location:       loc,
		WarehouseAfter: p.WarehouseQty,
		ShopAfter:      p.ShopQty,
		Reference:      ref,
		Note:           mc.Note,
		CreatedBy:      mc.UserID,
		CreatedAt:      time.Now(),
	}
}

func requirePositive(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewValidationError("INVALID_QUANTITY", "Quantity must be positive")
	}
	return nil
}

func requireLocation(loc Location) error {
	if !loc.IsValid() {
		return shared.NewValidationError("INVALID_LOCATION", fmt.Sprintf("Unknown location %q", loc))
	}
	return nil
}

// Receive adds qty at loc and logs an IN movement
func (p *Product) Receive(loc Location, qty decimal.Decimal, mc MovementContext) (*Movement, error) {
	if err := requireLocation(loc); err != nil {
		return nil, err
	}
	if err := requirePositive(qty); err != nil {
		return nil, err
	}
	p.setQty(loc, p.QtyAt(loc).Add(qty))
	return p.newMovement(MovementIn, qty, loc, mc), nil
}

// Withdraw removes qty from loc for a sale. Rejected without any change when
// loc holds less than qty.
func (p *Product) Withdraw(loc Location, qty decimal.Decimal, mc MovementContext) (*Movement, error) {
	if err := requireLocation(loc); err != nil {
		return nil, err
	}
	if err := requirePositive(qty); err != nil {
		return nil, err
	}
	if p.QtyAt(loc).LessThan(qty) {
		return nil, p.shortage(loc, qty)
	}
	p.setQty(loc, p.QtyAt(loc).Sub(qty))
	return p.newMovement(MovementOutSale, qty.Neg(), loc, mc), nil
}

// WithdrawAnywhere removes qty for a sale, drawing from the shop first and then
// the warehouse. One movement is logged per location touched.
func (p *Product) WithdrawAnywhere(qty decimal.Decimal, mc MovementContext) ([]*Movement, error) {
	if err := requirePositive(qty); err != nil {
		return nil, err
	}
	if p.StockQty.LessThan(qty) {
		return nil, p.shortage("", qty)
	}

	var movements []*Movement
	left := qty
	for _, loc := range []Location{LocationShop, LocationWarehouse} {
		take := decimal.Min(left, p.QtyAt(loc))
		if !take.IsPositive() {
			continue
		}
		m, err := p.Withdraw(loc, take, mc)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
		left = left.Sub(take)
		if left.IsZero() {
			break
		}
	}
	return movements, nil
}

// Transfer moves qty between the two locations as one unit. TRANSFER_TO_SHOP draws
// from the warehouse, TRANSFER_TO_WAREHOUSE from the shop.
func (p *Product) Transfer(t MovementType, qty decimal.Decimal, mc MovementContext) (*Movement, error) {
	if !t.IsTransfer() {
		return nil, shared.NewValidationError("INVALID_MOVEMENT_TYPE", fmt.Sprintf("%s is not a transfer", t))
	}
	if err := requirePositive(qty); err != nil {
		return nil, err
	}
	from := LocationWarehouse
	if t == MovementTransferToWarehouse {
		from = LocationShop
	}
	if p.QtyAt(from).LessThan(qty) {
		return nil, p.shortage(from, qty)
	}
	if from == LocationWarehouse {
		p.setQuantities(p.WarehouseQty.Sub(qty), p.ShopQty.Add(qty))
	} else {
		p.setQuantities(p.WarehouseQty.Add(qty), p.ShopQty.Sub(qty))
	}
	return p.newMovement(t, qty, from, mc), nil
}

// Adjust sets loc to an absolute counted quantity and logs the signed delta.
// Returns a nil movement when the quantity is already correct.
func (p *Product) Adjust(loc Location, newQty decimal.Decimal, mc MovementContext) (*Movement, error) {
	if err := requireLocation(loc); err != nil {
		return nil, err
	}
	if newQty.IsNegative() {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Adjusted quantity cannot be negative")
	}
	delta := newQty.Sub(p.QtyAt(loc))
	if delta.IsZero() {
		return nil, nil
	}
	p.setQty(loc, newQty)
	return p.newMovement(MovementAdjust, delta, loc, mc), nil
}

// Open seeds the opening quantities. Only allowed while the product has never
// had stock; the caller also checks that no movement exists.
func (p *Product) Open(warehouseQty, shopQty decimal.Decimal, mc MovementContext) ([]*Movement, error) {
	if warehouseQty.IsNegative() || shopQty.IsNegative() {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Opening quantities cannot be negative")
	}
	if warehouseQty.IsZero() && shopQty.IsZero() {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Opening balance needs a quantity")
	}
	if !p.StockQty.IsZero() {
		return nil, shared.NewConflictError("OPENING_EXISTS", "Product already holds stock")
	}

	var movements []*Movement
	for _, entry := range []struct {
		loc Location
		qty decimal.Decimal
	}{{LocationWarehouse, warehouseQty}, {LocationShop, shopQty}} {
		if entry.qty.IsZero() {
			continue
		}
		p.setQty(entry.loc, entry.qty)
		movements = append(movements, p.newMovement(MovementOpening, entry.qty, entry.loc, mc))
	}
	return movements, nil
}
