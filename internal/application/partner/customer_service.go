package partner

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	"github.com/retail/backoffice/internal/domain/partner"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CustomerService handles customer master data. Balances are only changed by
// sales, payments and returns.
type CustomerService struct {
	runner *core.Runner
	logger *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(runner *core.Runner, logger *zap.Logger) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{runner: runner, logger: logger}
}

// CreateCustomerCommand contains input for creating a customer
type CreateCustomerCommand struct {
	Code             string           `json:"code" validate:"required,max=50"`
	Name             string           `json:"name" validate:"required,max=200"`
	Phone            string           `json:"phone" validate:"max=50"`
	Email            string           `json:"email" validate:"omitempty,email"`
	Address          string           `json:"address" validate:"max=500"`
	PriceType        string           `json:"price_type" validate:"omitempty,oneof=retail wholesale"`
	CreditLimit      *decimal.Decimal `json:"credit_limit"`
	PaymentTermsDays int              `json:"payment_terms_days" validate:"gte=0,lte=365"`
	Notes            string           `json:"notes" validate:"max=1000"`
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, cmd CreateCustomerCommand) (*partner.Customer, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	repo := s.runner.Repositories().Customers()
	exists, err := repo.ExistsByCode(ctx, strings.ToUpper(strings.TrimSpace(cmd.Code)))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewConflictError("ALREADY_EXISTS", "Customer with this code already exists")
	}

	customer, err := partner.NewCustomer(cmd.Code, cmd.Name)
	if err != nil {
		return nil, err
	}
	if cmd.Phone != "" || cmd.Email != "" {
		if err := customer.SetContact(cmd.Phone, cmd.Email); err != nil {
			return nil, err
		}
	}
	if cmd.CreditLimit != nil && !cmd.CreditLimit.IsZero() {
		if err := customer.SetCreditLimit(*cmd.CreditLimit); err != nil {
			return nil, err
		}
	}
	if cmd.PriceType != "" {
		if err := customer.SetPriceType(partner.PriceType(cmd.PriceType)); err != nil {
			return nil, err
		}
	}
	if cmd.PaymentTermsDays > 0 {
		if err := customer.SetPaymentTerms(cmd.PaymentTermsDays); err != nil {
			return nil, err
		}
	}
	customer.Address = cmd.Address
	customer.Notes = cmd.Notes

	if err := repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	s.logger.Info("Customer created", zap.String("code", customer.Code), zap.String("customer_id", customer.ID.String()))
	return customer, nil
}

// GetByID returns a customer
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	return s.runner.Repositories().Customers().FindByID(ctx, id)
}

// List lists customers
func (s *CustomerService) List(ctx context.Context, filter partner.Filter) ([]*partner.Customer, int64, error) {
	filter.Page, filter.PageSize = core.Page(filter.Page, filter.PageSize)
	return s.runner.Repositories().Customers().FindAll(ctx, filter)
}

// SetCreditLimit changes the credit limit. Zero removes the limit.
func (s *CustomerService) SetCreditLimit(ctx context.Context, id uuid.UUID, limit decimal.Decimal) (*partner.Customer, error) {
	var customer *partner.Customer
	err := s.runner.Run(ctx, core.Unit{Name: "customer.credit_limit", LockKeys: []string{core.KeyCustomer(id)}}, func(tx *core.Tx) error {
		c, err := tx.Customers().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := c.SetCreditLimit(limit); err != nil {
			return err
		}
		customer = c
		return tx.Customers().Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// Archive hides a customer from new sales. Open balances stay collectable.
func (s *CustomerService) Archive(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var customer *partner.Customer
	err := s.runner.Run(ctx, core.Unit{Name: "customer.archive", LockKeys: []string{core.KeyCustomer(id)}}, func(tx *core.Tx) error {
		c, err := tx.Customers().FindByID(ctx, id)
		if err != nil {
			return err
		}
		c.Archive()
		customer = c
		return tx.Customers().Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}
