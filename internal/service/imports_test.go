package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posadmin/internal/domain"
)

func TestImportProductsAddStripsIDs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	report, err := svc.ImportProducts(ctx, []domain.Product{
		{ID: "prod-croissant", Name: "Pain au chocolat", Price: dec("3.75")},
		{Name: ""},
	}, domain.ImportAdd)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "record 2")

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 6)
	assert.NotEqual(t, "prod-croissant", products[5].ID)

	croissant, err := svc.GetProduct(ctx, "prod-croissant")
	require.NoError(t, err)
	assert.Equal(t, "Butter Croissant", croissant.Name)
}

func TestImportProductsUpdateMatchesIDThenSKU(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	report, err := svc.ImportProducts(ctx, []domain.Product{
		{ID: "prod-croissant", Price: dec("3.5")},
		{SKU: "bak-srd-01", Inventory: intp(12), Description: "Naturally leavened"},
		{Name: "Gift Card", Price: dec("25")},
	}, domain.ImportUpdate)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 1, report.Added)

	croissant, err := svc.GetProduct(ctx, "prod-croissant")
	require.NoError(t, err)
	assert.True(t, croissant.Price.Equal(dec("3.5")))
	assert.Equal(t, "Butter Croissant", croissant.Name)
	assert.Equal(t, 24, croissant.Stock())

	sourdough, err := svc.GetProduct(ctx, "prod-sourdough")
	require.NoError(t, err)
	assert.Equal(t, 12, sourdough.Stock())
	assert.Equal(t, "Naturally leavened", sourdough.Description)
	assert.True(t, sourdough.Price.Equal(dec("7")))
}

func TestImportProductsReplaceClearsFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	report, err := svc.ImportProducts(ctx, []domain.Product{
		{ID: "prod-new-1", Name: "Oat Milk", Price: dec("2")},
		{ID: "prod-new-1", Name: "Oat Milk again", Price: dec("2")},
	}, domain.ImportReplace)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Added)

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "prod-new-1", products[0].ID)
	assert.NotEqual(t, "prod-new-1", products[1].ID)
}

func TestImportRejectsUnknownMode(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ImportProducts(adminCtx(), nil, "merge")
	assert.Error(t, err)
}

func TestImportCustomersUpdateKeepsStats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()
	customer := addCustomer(t, svc, "gus")
	cashCheckout(t, svc, &domain.OrderCustomer{ID: customer.ID}, false, domain.CartItem{ProductID: "prod-sourdough", Quantity: 1})

	report, err := svc.ImportCustomers(ctx, []domain.Customer{
		{Email: "GUS@example.test", Phone: "555-0100", Orders: 0, AmountSpent: dec("0")},
		{FullName: "Hana", Email: "hana@example.test", Orders: 3, AmountSpent: dec("42.5")},
	}, domain.ImportUpdate)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Added)

	got, err := svc.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-0100", got.Phone)
	assert.Equal(t, "gus", got.FullName)
	assert.Equal(t, 1, got.Orders)
	assert.True(t, got.AmountSpent.Equal(dec("7")))

	found, err := svc.SearchCustomers(ctx, "hana")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 3, found[0].Orders)
}

func TestImportInventoryLogs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	existing, err := svc.AddInventoryLog(ctx, domain.InventoryLogEntry{ProductID: "prod-croissant", ReasonType: domain.ReasonCount})
	require.NoError(t, err)

	report, err := svc.ImportInventoryLogs(ctx, []domain.InventoryLogEntry{
		{ID: "100", ProductID: "prod-tote", PreviousQuantity: 0, NewQuantity: 4, QuantityChange: 1, ReasonType: domain.ReasonPurchase},
		{ID: existing.ID, ProductID: "prod-tote", PreviousQuantity: 4, NewQuantity: 3, ReasonType: domain.ReasonSale},
		{ProductID: "prod-tote", ReasonType: "gift"},
	}, domain.ImportAdd)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Added)
	assert.Equal(t, 1, report.Skipped)

	logs, err := svc.ListInventoryLogs(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "100", logs[0].ID)
	assert.Equal(t, 4, logs[0].QuantityChange)
	assert.NotEqual(t, existing.ID, logs[1].ID)
	assert.Equal(t, existing.ID, logs[2].ID)

	report, err = svc.ImportInventoryLogs(ctx, []domain.InventoryLogEntry{
		{ID: "200", ProductID: "prod-tote", NewQuantity: 1, ReasonType: domain.ReasonCount},
	}, domain.ImportReplace)
	require.NoError(t, err)
	logs, err = svc.ListInventoryLogs(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "200", logs[0].ID)
}

func TestImportWithNoValidRecordsWritesNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	report, err := svc.ImportProducts(ctx, []domain.Product{{Name: "  "}}, domain.ImportReplace)
	require.ErrorIs(t, err, ErrNothingImported)
	assert.Equal(t, 1, report.Skipped)
	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 5)

	_, err = svc.ImportProducts(ctx, nil, domain.ImportReplace)
	require.ErrorIs(t, err, ErrNothingImported)
	products, err = svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 5)

	customer := addCustomer(t, svc, "rosa")
	_, err = svc.ImportCustomers(ctx, []domain.Customer{{FullName: ""}}, domain.ImportReplace)
	require.ErrorIs(t, err, ErrNothingImported)
	_, err = svc.GetCustomer(ctx, customer.ID)
	assert.NoError(t, err)

	entry, err := svc.AddInventoryLog(ctx, domain.InventoryLogEntry{ProductID: "prod-croissant", ReasonType: domain.ReasonCount})
	require.NoError(t, err)
	_, err = svc.ImportInventoryLogs(ctx, []domain.InventoryLogEntry{{ProductID: "prod-tote", ReasonType: "gift"}}, domain.ImportReplace)
	require.ErrorIs(t, err, ErrNothingImported)
	logs, err := svc.ListInventoryLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, entry.ID, logs[0].ID)
}
