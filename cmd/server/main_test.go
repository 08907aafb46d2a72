package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posadmin/internal/config"
)

const strongSecret = "0123456789abcdef0123456789abcdef"

func TestValidateSecurityConfig(t *testing.T) {
	cases := map[string]struct {
		cfg     config.Config
		wantErr bool
	}{
		"short secret":        {config.Config{AuthSecret: "short", ManagerPIN: "739154"}, true},
		"no approval method":  {config.Config{AuthSecret: strongSecret}, true},
		"common pin":          {config.Config{AuthSecret: strongSecret, ManagerPIN: "123456"}, true},
		"sequential pin":      {config.Config{AuthSecret: strongSecret, ManagerPIN: "987654"}, true},
		"same digit pin":      {config.Config{AuthSecret: strongSecret, ManagerPIN: "2222222"}, true},
		"short pin":           {config.Config{AuthSecret: strongSecret, ManagerPIN: "7391"}, true},
		"strong pin":          {config.Config{AuthSecret: strongSecret, ManagerPIN: "739154"}, false},
		"totp only":           {config.Config{AuthSecret: strongSecret, ManagerTOTPSecret: "JBSWY3DPEHPK3PXP"}, false},
		"weak pin beside otp": {config.Config{AuthSecret: strongSecret, ManagerPIN: "111111", ManagerTOTPSecret: "JBSWY3DPEHPK3PXP"}, true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := validateSecurityConfig(tc.cfg)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOpenBlob(t *testing.T) {
	ctx := context.Background()

	t.Run("memory is seeded", func(t *testing.T) {
		blob, closeFn, err := openBlob(ctx, config.Config{StoreDriver: config.DriverMemory})
		require.NoError(t, err)
		defer closeFn()

		raw, ok, err := blob.Get(ctx, "products")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NotEmpty(t, raw)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "posadmin.db")
		blob, closeFn, err := openBlob(ctx, config.Config{StoreDriver: config.DriverSQLite, SQLitePath: path})
		require.NoError(t, err)
		defer closeFn()

		require.NoError(t, blob.Set(ctx, "vendors", []byte(`[]`)))
	})

	t.Run("postgres needs a url", func(t *testing.T) {
		_, _, err := openBlob(ctx, config.Config{StoreDriver: config.DriverPostgres})
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, _, err := openBlob(ctx, config.Config{StoreDriver: "mongo"})
		assert.ErrorContains(t, err, "mongo")
	})
}

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	setupLogging("debug", "json")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	setupLogging("loud", "console")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
