package partner_test

import (
	"context"
	"testing"

	apppartner "github.com/retail/backoffice/internal/application/partner"
	"github.com/retail/backoffice/internal/domain/partner"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerService_Create(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	limit := testutil.Dec(1000)

	c, err := s.Customers.Create(ctx, apppartner.CreateCustomerCommand{
		Code:        "C-001",
		Name:        "Nadia Grocery",
		Phone:       "0100200300",
		CreditLimit: &limit,
	})
	require.NoError(t, err)
	assert.True(t, c.IsActive())
	assert.True(t, c.HasCreditLimit())
	testutil.RequireDecimal(t, testutil.Dec(1000), c.AvailableCredit())

	_, err = s.Customers.Create(ctx, apppartner.CreateCustomerCommand{Code: "C-001", Name: "Copy"})
	require.Error(t, err)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
}

func TestCustomerService_SetCreditLimit(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	c := s.SeedCustomer(t, "C-1", 500)

	updated, err := s.Customers.SetCreditLimit(ctx, c.ID, testutil.Dec(0))
	require.NoError(t, err)
	assert.False(t, updated.HasCreditLimit())

	_, err = s.Customers.SetCreditLimit(ctx, c.ID, testutil.Dec(-5))
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	testutil.RequireDecimal(t, testutil.Dec(0), s.Customer(t, c.ID).CreditLimit)
}

func TestCustomerService_ListAndArchive(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	a := s.SeedCustomer(t, "ALPHA", 0)
	s.SeedCustomer(t, "BETA", 0)

	_, err := s.Customers.Archive(ctx, a.ID)
	require.NoError(t, err)

	active, total, err := s.Customers.List(ctx, partner.Filter{Status: partner.StatusActive})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "BETA", active[0].Code)

	found, _, err := s.Customers.List(ctx, partner.Filter{Search: "alp"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, partner.StatusArchived, found[0].Status)
}

func TestSupplierService(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()

	sup, err := s.Suppliers.Create(ctx, apppartner.CreateSupplierCommand{Code: "S-1", Name: "Delta Mills"})
	require.NoError(t, err)

	_, err = s.Suppliers.Create(ctx, apppartner.CreateSupplierCommand{Code: "S-1", Name: "Delta Again"})
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))

	got, err := s.Suppliers.GetByID(ctx, sup.ID)
	require.NoError(t, err)
	assert.Equal(t, "Delta Mills", got.Name)

	_, err = s.Suppliers.Archive(ctx, sup.ID)
	require.NoError(t, err)
	list, _, err := s.Suppliers.List(ctx, partner.Filter{Status: partner.StatusActive})
	require.NoError(t, err)
	assert.Empty(t, list)
}
