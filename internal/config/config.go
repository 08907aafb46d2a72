package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	StoreDriver           string
	DatabaseURL           string
	SQLitePath            string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	EventsChannel         string
	SuggestionTTLSeconds  int
	AuthSecret            string
	AccessTokenTTLMinutes int
	ManagerPIN            string
	ManagerTOTPSecret     string
	TaxRatePercent        decimal.Decimal
	LogLevel              string
	LogFormat             string
	Archive               ArchiveConfig
}

type ArchiveConfig struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
}

func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

// Load reads .env (if present), an optional YAML file named by CONFIG_FILE,
// and the environment, in increasing order of precedence.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	v.SetDefault("STORE_DRIVER", "")
	v.SetDefault("SQLITE_PATH", "posadmin.db")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("EVENTS_CHANNEL", "posadmin:changes")
	v.SetDefault("SUGGESTION_TTL_SECONDS", 60)
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 480)
	v.SetDefault("TAX_RATE_PERCENT", "8.875")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("ARCHIVE_REGION", "auto")
	v.SetDefault("ARCHIVE_PREFIX", "exports/")

	if file := strings.TrimSpace(v.GetString("CONFIG_FILE")); file != "" {
		v.SetConfigType("yaml")
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			log.Warn().Err(err).Str("file", file).Msg("config file not loaded, using env and defaults")
		}
	}

	ttl := v.GetInt("SUGGESTION_TTL_SECONDS")
	if ttl < 1 {
		ttl = 60
	}
	tokenTTL := v.GetInt("ACCESS_TOKEN_TTL_MINUTES")
	if tokenTTL < 1 {
		tokenTTL = 480
	}
	taxRate, err := decimal.NewFromString(strings.TrimSpace(v.GetString("TAX_RATE_PERCENT")))
	if err != nil || taxRate.IsNegative() {
		log.Warn().Str("value", v.GetString("TAX_RATE_PERCENT")).Msg("invalid TAX_RATE_PERCENT, using 8.875")
		taxRate = decimal.RequireFromString("8.875")
	}

	cfg := Config{
		Port:                  v.GetString("PORT"),
		AllowedOrigin:         v.GetString("ALLOWED_ORIGIN"),
		StoreDriver:           strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		DatabaseURL:           v.GetString("DATABASE_URL"),
		SQLitePath:            v.GetString("SQLITE_PATH"),
		RedisAddr:             v.GetString("REDIS_ADDR"),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		RedisDB:               v.GetInt("REDIS_DB"),
		EventsChannel:         v.GetString("EVENTS_CHANNEL"),
		SuggestionTTLSeconds:  ttl,
		AuthSecret:            strings.TrimSpace(v.GetString("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		ManagerPIN:            strings.TrimSpace(v.GetString("MANAGER_PIN")),
		ManagerTOTPSecret:     strings.TrimSpace(v.GetString("MANAGER_TOTP_SECRET")),
		TaxRatePercent:        taxRate,
		LogLevel:              v.GetString("LOG_LEVEL"),
		LogFormat:             v.GetString("LOG_FORMAT"),
		Archive: ArchiveConfig{
			Bucket:    v.GetString("ARCHIVE_BUCKET"),
			Endpoint:  v.GetString("ARCHIVE_ENDPOINT"),
			Region:    v.GetString("ARCHIVE_REGION"),
			AccessKey: v.GetString("ARCHIVE_ACCESS_KEY"),
			SecretKey: v.GetString("ARCHIVE_SECRET_KEY"),
			Prefix:    v.GetString("ARCHIVE_PREFIX"),
		},
	}

	if cfg.StoreDriver == "" {
		cfg.StoreDriver = DriverMemory
		if cfg.DatabaseURL != "" {
			cfg.StoreDriver = DriverPostgres
		}
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}
