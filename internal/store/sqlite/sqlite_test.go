package sqlite

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posadmin/internal/domain"
	"posadmin/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.Get(context.Background(), store.KeyProducts)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetOverwritesAndRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Set(ctx, "k", []byte(`[1]`)))
	require.NoError(t, s.Set(ctx, "k", []byte(`[2]`)))

	raw, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[2]`, string(raw))

	require.NoError(t, s.Remove(ctx, "k"))
	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryOverSQLite(t *testing.T) {
	ctx := context.Background()
	repo := store.NewRepository(newTestStore(t))

	require.NoError(t, repo.SaveCustomers(ctx, []domain.Customer{{
		ID:          "c1",
		FullName:    "Lee Park",
		Orders:      2,
		AmountSpent: decimal.RequireFromString("41.50"),
	}}))

	customers, err := repo.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, 2, customers[0].Orders)
	assert.True(t, customers[0].AmountSpent.Equal(decimal.RequireFromString("41.5")))
}
