package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posadmin/internal/store"
)

func TestStoreRoundTrip(t *testing.T) {
	databaseURL := os.Getenv("POSADMIN_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set POSADMIN_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})

	key := fmt.Sprintf("it-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_ = s.Remove(ctx, key)
	})

	_, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, key, []byte(`[{"id":"a"}]`)))
	require.NoError(t, s.Set(ctx, key, []byte(`[{"id":"b"}]`)))

	raw, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"b"}]`, string(raw))

	_, err = s.UpdatedAt(ctx, key)
	require.NoError(t, err)

	err = s.Set(ctx, key, []byte(`{broken`))
	require.ErrorIs(t, err, store.ErrInvalidTransaction)
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "postgres://u@h/db", migrateURL("postgresql://u@h/db"))
	assert.Equal(t, "postgres://u@h/db", migrateURL("postgres://u@h/db"))
}
