package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	Search          string
	Category        string
	Status          ProductStatus
	IncludeArchived bool
	Page            int
	PageSize        int
}

// ProductRepository persists products
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	FindByCode(ctx context.Context, code string) (*Product, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	// Save writes the product guarded by its version.
	// Returns shared.ErrConcurrencyConflict if another writer saved first.
	Save(ctx context.Context, p *Product) error
	FindAll(ctx context.Context, filter ProductFilter) ([]*Product, int64, error)
	// FindLowStock returns active products whose stock is at or below their minimum level
	FindLowStock(ctx context.Context) ([]*Product, error)
	// FindForCount returns active products, optionally of one category, for an inventory snapshot
	FindForCount(ctx context.Context, category string) ([]*Product, error)
}

// MovementFilter narrows movement listings
type MovementFilter struct {
	ProductID *uuid.UUID
	Type      MovementType
	Location  Location
	Since     *time.Time
	Until     *time.Time
	Page      int
	PageSize  int
}

// MovementRepository persists the append-only movement log
type MovementRepository interface {
	Create(ctx context.Context, m *Movement) error
	CreateBatch(ctx context.Context, ms []*Movement) error
	FindAll(ctx context.Context, filter MovementFilter) ([]*Movement, int64, error)
	// FindByReference returns movements recorded for a document in creation order
	FindByReference(ctx context.Context, ref shared.Reference) ([]*Movement, error)
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	// FindSince returns movements of the given products created after since
	FindSince(ctx context.Context, productIDs []uuid.UUID, since time.Time) ([]*Movement, error)
}
