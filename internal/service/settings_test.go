package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posadmin/internal/domain"
	"posadmin/internal/store"
)

func TestGetSettingsFallsBackToDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	settings, err := svc.GetSettings(adminCtx())
	require.NoError(t, err)
	assert.Equal(t, "My Store", settings.StoreInfo.Name)
	assert.True(t, svc.TaxRate().Equal(settings.TaxSettings.Rate))
	assert.True(t, settings.PaymentMethods.Allows(domain.PaymentCash))
	assert.True(t, settings.StoreInfo.BusinessHours["sunday"].Closed)
}

func TestSaveSettings(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	settings := domain.DefaultSettings(dec("7.25"))
	settings.StoreInfo.Name = "Corner Cafe"
	settings.PaymentMethods = domain.PaymentMethods{Cash: true}
	saved, err := svc.SaveSettings(ctx, settings)
	require.NoError(t, err)
	assert.Equal(t, "Corner Cafe", saved.StoreInfo.Name)

	loaded, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Corner Cafe", loaded.StoreInfo.Name)
	assert.False(t, loaded.PaymentMethods.Allows(domain.PaymentCard))

	cases := map[string]func(*domain.Settings){
		"blank name":     func(s *domain.Settings) { s.StoreInfo.Name = " " },
		"negative rate":  func(s *domain.Settings) { s.TaxSettings.Rate = dec("-1") },
		"rate over 100":  func(s *domain.Settings) { s.TaxSettings.Rate = dec("100.5") },
		"no payment way": func(s *domain.Settings) { s.PaymentMethods = domain.PaymentMethods{} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			bad := domain.DefaultSettings(dec("7.25"))
			mutate(&bad)
			_, err := svc.SaveSettings(ctx, bad)
			assert.ErrorIs(t, err, store.ErrInvalidTransaction)
		})
	}
}

func TestCheckoutRejectsDisabledPaymentMethod(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	settings := domain.DefaultSettings(dec("8.875"))
	settings.PaymentMethods = domain.PaymentMethods{Card: true}
	_, err := svc.SaveSettings(ctx, settings)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, domain.CheckoutRequest{
		CartRequest: domain.CartRequest{Items: []domain.CartItem{{ProductID: "prod-croissant", Quantity: 1}}},
		Payment:     domain.CashTendered(dec("10")),
	})
	assert.ErrorIs(t, err, store.ErrInvalidTransaction)
}
