package inventorycount

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows count listings
type Filter struct {
	Status   Status
	Page     int
	PageSize int
}

// CountRepository persists count sessions with their items
type CountRepository interface {
	Create(ctx context.Context, c *Count) error
	FindByID(ctx context.Context, id uuid.UUID) (*Count, error)
	// Save writes the count guarded by its version
	Save(ctx context.Context, c *Count) error
	FindAll(ctx context.Context, filter Filter) ([]*Count, int64, error)
}
