package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posadmin/internal/store"
)

func TestStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := New()

	payload := []byte(`[1,2,3]`)
	require.NoError(t, s.Set(ctx, "k", payload))
	payload[1] = '9'

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[1,2,3]`, string(got))

	got[1] = '7'
	again, _, _ := s.Get(ctx, "k")
	assert.Equal(t, `[1,2,3]`, string(again))
}

func TestStoreRemove(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Set(ctx, "k", []byte("{}")))
	require.NoError(t, s.Remove(ctx, "k"))

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewSeeded(t *testing.T) {
	t.Setenv("SEED_ADMIN_PASSWORD", "admin-pass-1")
	t.Setenv("SEED_CASHIER_PASSWORD", "cashier-pass-1")

	s := NewSeeded()
	repo := store.NewRepository(s)
	ctx := context.Background()

	products, err := repo.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 5)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.NotEqual(t, "admin-pass-1", users[0].Password)

	assert.Contains(t, s.Keys(), store.KeyCategories)
	assert.Contains(t, s.Keys(), store.KeyVendors)
	assert.NotContains(t, s.Keys(), store.KeyOrders)
}
