package partner

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows partner listings
type Filter struct {
	Search   string
	Status   Status
	Page     int
	PageSize int
}

// CustomerRepository persists customers
type CustomerRepository interface {
	Create(ctx context.Context, c *Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Customer, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	// Save writes the customer guarded by its version
	Save(ctx context.Context, c *Customer) error
	FindAll(ctx context.Context, filter Filter) ([]*Customer, int64, error)
}

// SupplierRepository persists suppliers
type SupplierRepository interface {
	Create(ctx context.Context, s *Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Supplier, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, s *Supplier) error
	FindAll(ctx context.Context, filter Filter) ([]*Supplier, int64, error)
}
