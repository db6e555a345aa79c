package stock

import (
	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Requirement is one requested quantity of a product. An empty Location means
// the combined stock of both locations.
type Requirement struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	Location  Location
}

// Availability is the result of checking one (product, location) requirement
type Availability struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Location    Location        `json:"location,omitempty"`
	Requested   decimal.Decimal `json:"requested"`
	Available   decimal.Decimal `json:"available"`
	Shortfall   decimal.Decimal `json:"shortfall"`
}

// Sufficient reports whether the requested quantity can be served
func (a Availability) Sufficient() bool {
	return a.Shortfall.IsZero()
}

type requirementKey struct {
	productID uuid.UUID
	location  Location
}

// AggregateRequirements merges duplicate lines of the same product and location,
// keeping first-seen order
func AggregateRequirements(reqs []Requirement) []Requirement {
	index := make(map[requirementKey]int, len(reqs))
	merged := make([]Requirement, 0, len(reqs))
	for _, r := range reqs {
		key := requirementKey{r.ProductID, r.Location}
		if i, ok := index[key]; ok {
			merged[i].Quantity = merged[i].Quantity.Add(r.Quantity)
			continue
		}
		index[key] = len(merged)
		merged = append(merged, r)
	}
	return merged
}

// CheckAvailability compares merged requirements against current product quantities.
// Location lines are checked against their own location. Lines without a
// location only get what the location lines of the same product leave over,
// which is also the order a sale withdraws them in.
// Missing products are reported through the returned error; shortages are not
// errors and are returned in the result.
func CheckAvailability(products map[uuid.UUID]*Product, reqs []Requirement) ([]Availability, error) {
	merged := AggregateRequirements(reqs)
	pinned := make(map[requirementKey]decimal.Decimal, len(merged))
	for _, r := range merged {
		if !r.Quantity.IsPositive() {
			return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be positive")
		}
		if r.Location != "" && !r.Location.IsValid() {
			return nil, shared.NewValidationError("INVALID_LOCATION", "Unknown location "+string(r.Location))
		}
		if _, ok := products[r.ProductID]; !ok {
			return nil, shared.NewNotFoundError("Product", r.ProductID)
		}
		if r.Location != "" {
			pinned[requirementKey{r.ProductID, r.Location}] = r.Quantity
		}
	}

	result := make([]Availability, 0, len(merged))
	for _, r := range merged {
		p := products[r.ProductID]
		available := p.Available(r.Location)
		if r.Location == "" {
			available = leftOver(p, pinned)
		}
		shortfall := decimal.Zero
		if r.Quantity.GreaterThan(available) {
			shortfall = r.Quantity.Sub(available)
		}
		result = append(result, Availability{
			ProductID:   p.ID,
			ProductName: p.Name,
			Location:    r.Location,
			Requested:   r.Quantity,
			Available:   available,
			Shortfall:   shortfall,
		})
	}
	return result, nil
}

// leftOver is the stock of p that the location lines in pinned do not claim
func leftOver(p *Product, pinned map[requirementKey]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, loc := range []Location{LocationWarehouse, LocationShop} {
		free := p.QtyAt(loc).Sub(pinned[requirementKey{p.ID, loc}])
		if free.IsPositive() {
			total = total.Add(free)
		}
	}
	return total
}

// ShortageError turns the insufficient lines of an availability check into an
// InsufficientStockError, or nil when every line is covered
func ShortageError(results []Availability) error {
	var shortages []shared.StockShortage
	for _, a := range results {
		if a.Sufficient() {
			continue
		}
		shortages = append(shortages, shared.StockShortage{
			ProductID:   a.ProductID,
			ProductName: a.ProductName,
			Location:    string(a.Location),
			Requested:   a.Requested,
			Available:   a.Available,
			Shortfall:   a.Shortfall,
		})
	}
	if len(shortages) == 0 {
		return nil
	}
	return shared.NewInsufficientStockError(shortages...)
}
