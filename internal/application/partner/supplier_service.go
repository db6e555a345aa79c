package partner

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	"github.com/retail/backoffice/internal/domain/partner"
	"github.com/retail/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

// SupplierService handles supplier master data
type SupplierService struct {
	runner *core.Runner
	logger *zap.Logger
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(runner *core.Runner, logger *zap.Logger) *SupplierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupplierService{runner: runner, logger: logger}
}

// CreateSupplierCommand contains input for creating a supplier
type CreateSupplierCommand struct {
	Code             string `json:"code" validate:"required,max=50"`
	Name             string `json:"name" validate:"required,max=200"`
	Phone            string `json:"phone" validate:"max=50"`
	Email            string `json:"email" validate:"omitempty,email"`
	Address          string `json:"address" validate:"max=500"`
	PaymentTermsDays int    `json:"payment_terms_days" validate:"gte=0,lte=365"`
	Notes            string `json:"notes" validate:"max=1000"`
}

// Create creates a new supplier
func (s *SupplierService) Create(ctx context.Context, cmd CreateSupplierCommand) (*partner.Supplier, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	repo := s.runner.Repositories().Suppliers()
	exists, err := repo.ExistsByCode(ctx, strings.ToUpper(strings.TrimSpace(cmd.Code)))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewConflictError("ALREADY_EXISTS", "Supplier with this code already exists")
	}

	supplier, err := partner.NewSupplier(cmd.Code, cmd.Name)
	if err != nil {
		return nil, err
	}
	if cmd.Phone != "" || cmd.Email != "" {
		if err := supplier.SetContact(cmd.Phone, cmd.Email); err != nil {
			return nil, err
		}
	}
	if cmd.PaymentTermsDays > 0 {
		if err := supplier.SetPaymentTerms(cmd.PaymentTermsDays); err != nil {
			return nil, err
		}
	}
	supplier.Address = cmd.Address
	supplier.Notes = cmd.Notes

	if err := repo.Create(ctx, supplier); err != nil {
		return nil, err
	}
	s.logger.Info("Supplier created", zap.String("code", supplier.Code), zap.String("supplier_id", supplier.ID.String()))
	return supplier, nil
}

// GetByID returns a supplier
func (s *SupplierService) GetByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	return s.runner.Repositories().Suppliers().FindByID(ctx, id)
}

// List lists suppliers
func (s *SupplierService) List(ctx context.Context, filter partner.Filter) ([]*partner.Supplier, int64, error) {
	filter.Page, filter.PageSize = core.Page(filter.Page, filter.PageSize)
	return s.runner.Repositories().Suppliers().FindAll(ctx, filter)
}

// Archive hides a supplier from new orders
func (s *SupplierService) Archive(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	var supplier *partner.Supplier
	err := s.runner.Run(ctx, core.Unit{Name: "supplier.archive", LockKeys: []string{core.KeySupplier(id)}}, func(tx *core.Tx) error {
		sup, err := tx.Suppliers().FindByID(ctx, id)
		if err != nil {
			return err
		}
		sup.Archive()
		supplier = sup
		return tx.Suppliers().Save(ctx, sup)
	})
	if err != nil {
		return nil, err
	}
	return supplier, nil
}
