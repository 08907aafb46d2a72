package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posadmin/internal/domain"
	"posadmin/internal/store"
)

func TestQuoteCartTotals(t *testing.T) {
	svc, _ := newTestService(t)

	// 4 x 24.00 espresso + 1 x 4.00 after a 0.50 item discount on cold brew = 100.
	quote, err := svc.QuoteCart(context.Background(), domain.CartRequest{
		Items: []domain.CartItem{
			{ProductID: "prod-espresso-beans", Quantity: 4},
			{ProductID: "prod-cold-brew", Quantity: 1, Discount: &domain.DiscountInput{Type: domain.DiscountFixed, Value: dec("0.5")}},
		},
		OrderDiscount: &domain.DiscountInput{Type: domain.DiscountPercentage, Value: dec("10")},
		ApplyTax:      true,
	})
	require.NoError(t, err)

	assert.True(t, quote.Subtotal.Equal(dec("100")), quote.Subtotal.String())
	assert.True(t, quote.Discount.Equal(dec("10")), quote.Discount.String())
	assert.True(t, quote.Tax.Equal(dec("7.9875")), quote.Tax.String())
	assert.True(t, quote.Total.Equal(dec("97.9875")), quote.Total.String())
	assert.True(t, quote.Total.Equal(quote.Subtotal.Sub(quote.Discount).Add(quote.Tax)))
	require.NotNil(t, quote.Items[1].Discount)
	assert.True(t, quote.Items[1].Discount.Amount.Equal(dec("0.5")))
}

func TestQuoteCartRejects(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	inactive := domain.ProductStatusInactive
	_, err := svc.UpdateProduct(adminCtx(), "prod-tote", domain.ProductPatch{Status: &inactive})
	require.NoError(t, err)

	cases := map[string]domain.CartRequest{
		"empty":          {},
		"zero quantity":  {Items: []domain.CartItem{{ProductID: "prod-croissant", Quantity: 0}}},
		"duplicate line": {Items: []domain.CartItem{{ProductID: "prod-croissant", Quantity: 1}, {ProductID: "prod-croissant", Quantity: 2}}},
		"inactive":       {Items: []domain.CartItem{{ProductID: "prod-tote", Quantity: 1}}},
		"item discount over line": {Items: []domain.CartItem{{ProductID: "prod-croissant", Quantity: 1,
			Discount: &domain.DiscountInput{Type: domain.DiscountFixed, Value: dec("5")}}}},
		"order discount over subtotal": {Items: []domain.CartItem{{ProductID: "prod-croissant", Quantity: 1}},
			OrderDiscount: &domain.DiscountInput{Type: domain.DiscountFixed, Value: dec("3.26")}},
		"percentage over 100": {Items: []domain.CartItem{{ProductID: "prod-croissant", Quantity: 1}},
			OrderDiscount: &domain.DiscountInput{Type: domain.DiscountPercentage, Value: dec("101")}},
	}
	for name, cart := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.QuoteCart(ctx, cart)
			assert.ErrorIs(t, err, store.ErrInvalidTransaction)
		})
	}

	_, err = svc.QuoteCart(ctx, domain.CartRequest{Items: []domain.CartItem{{ProductID: "nope", Quantity: 1}}})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCheckoutUpdatesCustomerStatsOnce(t *testing.T) {
	svc, _ := newTestService(t)
	customer := addCustomer(t, svc, "dana")

	order := cashCheckout(t, svc, &domain.OrderCustomer{ID: customer.ID}, true,
		domain.CartItem{ProductID: "prod-croissant", Quantity: 2})

	assert.True(t, strings.HasPrefix(order.ID, "ORD-"))
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)
	assert.Equal(t, "dana", order.Customer.Name)
	assert.NotNil(t, order.Refunds)

	got, err := svc.GetCustomer(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Orders)
	assert.True(t, got.AmountSpent.Equal(order.Total), got.AmountSpent.String())

	cashCheckout(t, svc, &domain.OrderCustomer{ID: customer.ID}, false,
		domain.CartItem{ProductID: "prod-sourdough", Quantity: 1})
	got, err = svc.GetCustomer(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Orders)
	assert.True(t, got.AmountSpent.Equal(order.Total.Add(dec("7"))))
}

func TestCheckoutSkipsStatsForWalkInAndPending(t *testing.T) {
	svc, _ := newTestService(t)
	customer := addCustomer(t, svc, "eli")

	walkIn := cashCheckout(t, svc, &domain.OrderCustomer{Name: "Passer-by"}, false,
		domain.CartItem{ProductID: "prod-croissant", Quantity: 1})
	assert.True(t, walkIn.IsWalkIn())

	_, err := svc.Checkout(adminCtx(), domain.CheckoutRequest{
		CartRequest: domain.CartRequest{Items: []domain.CartItem{{ProductID: "prod-croissant", Quantity: 1}}},
		Customer:    &domain.OrderCustomer{ID: customer.ID},
		Payment:     domain.CardPaid("visa", "4242"),
		Status:      domain.OrderStatusPending,
	})
	require.NoError(t, err)

	got, err := svc.GetCustomer(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Orders)
	assert.True(t, got.AmountSpent.IsZero())
}

func TestCompletingPendingOrderCountsOnce(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()
	customer := addCustomer(t, svc, "fay")

	order, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CartRequest: domain.CartRequest{Items: []domain.CartItem{{ProductID: "prod-sourdough", Quantity: 2}}},
		Customer:    &domain.OrderCustomer{ID: customer.ID},
		Payment:     domain.CardPaid("visa", "4242"),
		Status:      domain.OrderStatusPending,
	})
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)
	_, err = svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)

	got, err := svc.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Orders)
	assert.True(t, got.AmountSpent.Equal(order.Total))

	// Orders that were already counted are not counted again.
	done := cashCheckout(t, svc, &domain.OrderCustomer{ID: customer.ID}, false,
		domain.CartItem{ProductID: "prod-croissant", Quantity: 1})
	_, err = svc.UpdateOrderStatus(ctx, done.ID, domain.OrderStatusRefunded)
	require.NoError(t, err)
	_, err = svc.UpdateOrderStatus(ctx, done.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)

	got, err = svc.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Orders)
	assert.True(t, got.AmountSpent.Equal(order.Total.Add(done.Total)))
}

func TestCheckoutDoesNotMoveStock(t *testing.T) {
	svc, _ := newTestService(t)
	cashCheckout(t, svc, nil, false, domain.CartItem{ProductID: "prod-croissant", Quantity: 5})

	product, err := svc.GetProduct(context.Background(), "prod-croissant")
	require.NoError(t, err)
	assert.Equal(t, 24, product.Stock())

	logs, err := svc.ListInventoryLogs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestCheckoutPayment(t *testing.T) {
	svc, _ := newTestService(t)
	items := []domain.CartItem{{ProductID: "prod-croissant", Quantity: 2}}

	order, err := svc.Checkout(adminCtx(), domain.CheckoutRequest{
		CartRequest: domain.CartRequest{Items: items},
		Payment:     domain.CashTendered(dec("10")),
	})
	require.NoError(t, err)
	require.NotNil(t, order.Payment.Cash)
	assert.True(t, order.Payment.Cash.Change.Equal(dec("3.5")))

	_, err = svc.Checkout(adminCtx(), domain.CheckoutRequest{
		CartRequest: domain.CartRequest{Items: items},
		Payment:     domain.CashTendered(dec("6")),
	})
	assert.ErrorIs(t, err, store.ErrInvalidTransaction)

	_, err = svc.Checkout(adminCtx(), domain.CheckoutRequest{
		CartRequest: domain.CartRequest{Items: items},
		Payment:     domain.Payment{Method: domain.PaymentCard},
	})
	assert.ErrorIs(t, err, store.ErrInvalidTransaction)

	settings, err := svc.GetSettings(context.Background())
	require.NoError(t, err)
	settings.PaymentMethods.Card = false
	_, err = svc.SaveSettings(adminCtx(), settings)
	require.NoError(t, err)

	_, err = svc.Checkout(adminCtx(), domain.CheckoutRequest{
		CartRequest: domain.CartRequest{Items: items},
		Payment:     domain.CardPaid("visa", "4242"),
	})
	assert.ErrorIs(t, err, store.ErrInvalidTransaction)
}

func TestOrderIDsStayUnique(t *testing.T) {
	svc, _ := newTestService(t)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }

	a := cashCheckout(t, svc, nil, false, domain.CartItem{ProductID: "prod-croissant", Quantity: 1})
	b := cashCheckout(t, svc, nil, false, domain.CartItem{ProductID: "prod-croissant", Quantity: 1})
	assert.NotEqual(t, a.ID, b.ID)
}

func TestUpdateOrderStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()
	order := cashCheckout(t, svc, nil, false, domain.CartItem{ProductID: "prod-croissant", Quantity: 1})

	refunded, err := svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusRefunded)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRefunded, refunded.Status)

	// No transition rules: a refunded order can still be cancelled.
	cancelled, err := svc.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)

	_, err = svc.UpdateOrderStatus(ctx, order.ID, "lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	missing, err := svc.UpdateOrderStatus(ctx, "ORD-0", domain.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byStatus, err := svc.OrdersByStatus(ctx, domain.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Len(t, byStatus, 1)
}

func TestUpdateOrderCustomer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()
	customer := addCustomer(t, svc, "fay")
	order := cashCheckout(t, svc, nil, false, domain.CartItem{ProductID: "prod-croissant", Quantity: 1})

	updated, err := svc.UpdateOrderCustomer(ctx, order.ID, &domain.OrderCustomer{ID: customer.ID})
	require.NoError(t, err)
	assert.Equal(t, "fay", updated.Customer.Name)

	mine, err := svc.OrdersByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	updated, err = svc.UpdateOrderCustomer(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.True(t, updated.IsWalkIn())

	// Reassignment does not touch stats.
	got, err := svc.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Orders)
}
