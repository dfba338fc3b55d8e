package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"invoicedesk/backend/internal/analytics"
	"invoicedesk/backend/internal/domain"
	"invoicedesk/backend/internal/money"
	"invoicedesk/backend/internal/store"
)

func TestSeededInvoicesValidate(t *testing.T) {
	s := NewSeeded(zap.NewNop())

	raw, err := s.ListInvoices(context.Background())
	require.NoError(t, err)
	require.Len(t, raw, 7)

	invoices := analytics.Validate(raw)
	numbers := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		numbers = append(numbers, inv.InvoiceNumber)
	}
	// INV-1004 has no customer and the last record has no number.
	assert.Equal(t, []string{"INV-1001", "INV-1002", "INV-1003", "INV-1005", "INV-1006"}, numbers)

	byNumber := map[string]domain.Invoice{}
	for _, inv := range invoices {
		byNumber[inv.InvoiceNumber] = inv
	}
	assert.Equal(t, "3887.50", byNumber["INV-1002"].Totals.FinalAmount.StringFixed(2))
	assert.Equal(t, "1250.00", byNumber["INV-1002"].Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, 3, byNumber["INV-1002"].Items[0].Quantity)
	assert.Equal(t, "9876500001", byNumber["INV-1001"].Customer.Phone)
	assert.Equal(t, 0, byNumber["INV-1003"].Items[2].Quantity, "negative quantity clamps to zero")
	assert.Equal(t, domain.DueStatusPending, byNumber["INV-1003"].Status(), "missing due status is pending")
	assert.Equal(t, domain.DueStatusPaid, byNumber["INV-1006"].Status())
	assert.Len(t, byNumber["INV-1006"].Items, 1, "null line items are dropped")
	assert.Len(t, analytics.Due(invoices), 3)
}

func TestListInvoicesReturnsCopies(t *testing.T) {
	s := NewSeeded(zap.NewNop())
	ctx := context.Background()

	first, err := s.ListInvoices(ctx)
	require.NoError(t, err)
	first[0].Customer.Name = "changed"
	first[0].Items[0].ProductName = "changed"
	first[0].Totals.PaymentMode = "changed"

	second, err := s.ListInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", second[0].Customer.Name)
	assert.Equal(t, "Basmati Rice 5kg", second[0].Items[0].ProductName)
	assert.Equal(t, "Cash", second[0].Totals.PaymentMode)
}

func TestSeededProductsAndCustomers(t *testing.T) {
	s := NewSeeded(zap.NewNop())
	ctx := context.Background()

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 5)
	assert.Equal(t, money.AmountText, products[1].Price.Kind)
	assert.Equal(t, "165.00", money.Format(products[1].Price.Decimal()))

	customers, err := s.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, customers, 4)
}

func TestLoadAcceptsBareInvoiceArray(t *testing.T) {
	s, err := Load([]byte(`[{"invoiceNumber": 42, "date": "01/01/2024", "customer": {"cname": "A"}, "totals": {"finalAmount": "10"}}]`))
	require.NoError(t, err)

	raw, err := s.ListInvoices(context.Background())
	require.NoError(t, err)
	invoices := analytics.Validate(raw)
	require.Len(t, invoices, 1)
	assert.Equal(t, "42", invoices[0].InvoiceNumber)

	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestLoadRejectsBrokenJSON(t *testing.T) {
	_, err := Load([]byte(`{"invoices": [`))
	assert.Error(t, err)
}

func TestAddInvoice(t *testing.T) {
	s, err := Load([]byte(`[]`))
	require.NoError(t, err)

	s.AddInvoice(&domain.RawInvoice{InvoiceNumber: "X-1", Customer: &domain.RawCustomer{Name: "B"}})

	raw, err := s.ListInvoices(context.Background())
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, domain.Text("X-1"), raw[0].InvoiceNumber)
}

func TestSeedUsersUseEnvPasswords(t *testing.T) {
	t.Setenv("SEED_MANAGER_PASSWORD", "manager-from-env")
	t.Setenv("SEED_VENDOR_PASSWORD", "vendor-from-env")

	users, err := NewSeeded(zap.NewNop()).ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "manager", users[0].Username)
	assert.Equal(t, domain.RoleManager, users[0].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte("manager-from-env")))
	assert.Equal(t, domain.RoleVendor, users[1].Role)
}

func TestUserLifecycle(t *testing.T) {
	s, err := Load([]byte(`[]`))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, domain.UserAccount{Username: " Ravi ", Password: "hash"}))
	assert.True(t, errors.Is(s.CreateUser(ctx, domain.UserAccount{Username: "ravi", Password: "x"}), store.ErrInvalidInput))
	assert.True(t, errors.Is(s.CreateUser(ctx, domain.UserAccount{Username: "", Password: "x"}), store.ErrInvalidInput))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "ravi", users[0].Username)
	assert.Equal(t, domain.RoleVendor, users[0].Role)
	assert.True(t, users[0].Active)

	require.NoError(t, s.UpdateUserPassword(ctx, "RAVI", "new-hash"))
	users, _ = s.ListUsers(ctx)
	assert.Equal(t, "new-hash", users[0].Password)

	assert.True(t, errors.Is(s.UpdateUserPassword(ctx, "nobody", "x"), store.ErrNotFound))
}
