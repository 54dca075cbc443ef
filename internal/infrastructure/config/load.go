package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at path, applies environment overrides and
// defaults, and parses duration strings. A missing file is not an error:
// the service can be configured from the environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if cfg.Server.ReadTimeout, err = parseDuration("server.read_timeout", cfg.Server.ReadTimeoutStr); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDuration("server.write_timeout", cfg.Server.WriteTimeoutStr); err != nil {
		return nil, err
	}
	if cfg.Server.ShutdownTimeout, err = parseDuration("server.shutdown_timeout", cfg.Server.ShutdownTimeoutStr); err != nil {
		return nil, err
	}
	pg := &cfg.ColdStore.PostgreSQL
	if pg.ConnMaxLifetime, err = parseDuration("cold_store.postgresql.conn_max_lifetime", pg.ConnMaxLifetimeStr); err != nil {
		return nil, err
	}
	if cfg.Providers.Price.Timeout, err = parseDuration("providers.price.timeout", cfg.Providers.Price.TimeoutStr); err != nil {
		return nil, err
	}
	if cfg.Providers.Metadata.Timeout, err = parseDuration("providers.metadata.timeout", cfg.Providers.Metadata.TimeoutStr); err != nil {
		return nil, err
	}
	if cfg.Schedule.PriceInterval, err = parseDuration("schedule.price_interval", cfg.Schedule.PriceIntervalStr); err != nil {
		return nil, err
	}
	if cfg.Status.StaleAfter, err = parseDuration("status.stale_after", cfg.Status.StaleAfterStr); err != nil {
		return nil, err
	}
	if _, _, err := cfg.DailyAtClock(); err != nil {
		return nil, err
	}

	switch cfg.ColdStore.Backend {
	case "", "s3", "postgres":
	default:
		return nil, fmt.Errorf("unknown cold_store.backend %q", cfg.ColdStore.Backend)
	}
	switch cfg.Providers.Mode {
	case "live", "test":
	default:
		return nil, fmt.Errorf("unknown providers.mode %q", cfg.Providers.Mode)
	}

	return &cfg, nil
}

func parseDuration(name, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", name, s)
	}
	return d, nil
}

func applyDefaults(cfg *Config) {
	setInt(&cfg.Server.Port, 8080)
	setStr(&cfg.Server.ReadTimeoutStr, "10s")
	setStr(&cfg.Server.WriteTimeoutStr, "10s")
	setStr(&cfg.Server.ShutdownTimeoutStr, "30s")

	setStr(&cfg.Redis.Host, "localhost")
	setInt(&cfg.Redis.Port, 6379)
	setInt(&cfg.Redis.PoolSize, 10)
	setStr(&cfg.Redis.KeyPrefix, "pricesync:")

	setStr(&cfg.ColdStore.S3.Region, "auto")
	pg := &cfg.ColdStore.PostgreSQL
	setStr(&pg.Host, "localhost")
	setInt(&pg.Port, 5432)
	setStr(&pg.SSLMode, "disable")
	setInt(&pg.MaxOpenConns, 5)
	setInt(&pg.MaxIdleConns, 2)
	setStr(&pg.ConnMaxLifetimeStr, "30m")

	setStr(&cfg.Providers.Mode, "live")
	setStr(&cfg.Providers.Price.Name, "coincap")
	setStr(&cfg.Providers.Price.BaseURL, "https://api.coincap.io/v2")
	setInt(&cfg.Providers.Price.Limit, 500)
	setStr(&cfg.Providers.Price.TimeoutStr, "15s")
	setStr(&cfg.Providers.Metadata.Name, "coingecko")
	setStr(&cfg.Providers.Metadata.BaseURL, "https://api.coingecko.com/api/v3")
	setInt(&cfg.Providers.Metadata.Pages, 2)
	setInt(&cfg.Providers.Metadata.PerPage, 250)
	setStr(&cfg.Providers.Metadata.TimeoutStr, "15s")

	setStr(&cfg.Schedule.PriceIntervalStr, "5m")
	setStr(&cfg.Schedule.DailyAt, "09:00")
	setStr(&cfg.Status.StaleAfterStr, "15m")

	setInt(&cfg.Workers.Count, 2)
	setInt(&cfg.Workers.QueueSize, 8)

	setStr(&cfg.Logging.Level, "info")
	setStr(&cfg.Logging.Format, "text")
}

func setStr(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func applyEnvOverrides(cfg *Config) {
	// Redis
	envStr("REDIS_HOST", &cfg.Redis.Host)
	envInt("REDIS_PORT", &cfg.Redis.Port)
	envStr("REDIS_PASSWORD", &cfg.Redis.Password)
	envInt("REDIS_DB", &cfg.Redis.DB)

	// Cold store
	envStr("COLD_STORE_BACKEND", &cfg.ColdStore.Backend)
	envStr("S3_ENDPOINT", &cfg.ColdStore.S3.Endpoint)
	envStr("S3_REGION", &cfg.ColdStore.S3.Region)
	envStr("S3_BUCKET", &cfg.ColdStore.S3.Bucket)
	envStr("S3_ACCESS_KEY_ID", &cfg.ColdStore.S3.AccessKeyID)
	envStr("S3_SECRET_ACCESS_KEY", &cfg.ColdStore.S3.SecretAccessKey)
	envStr("POSTGRES_HOST", &cfg.ColdStore.PostgreSQL.Host)
	envInt("POSTGRES_PORT", &cfg.ColdStore.PostgreSQL.Port)
	envStr("POSTGRES_USER", &cfg.ColdStore.PostgreSQL.User)
	envStr("POSTGRES_PASSWORD", &cfg.ColdStore.PostgreSQL.Password)
	envStr("POSTGRES_DB", &cfg.ColdStore.PostgreSQL.Database)

	// Providers
	envStr("PROVIDER_MODE", &cfg.Providers.Mode)
	envStr("PRICE_PROVIDER_URL", &cfg.Providers.Price.BaseURL)
	envStr("COINGECKO_API_KEY", &cfg.Providers.Metadata.APIKey)

	// Server
	envInt("SERVER_PORT", &cfg.Server.Port)
	envStr("LOG_LEVEL", &cfg.Logging.Level)
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// DailyAtClock parses schedule.daily_at ("HH:MM", UTC).
func (c *Config) DailyAtClock() (hour, minute int, err error) {
	hh, mm, ok := strings.Cut(c.Schedule.DailyAt, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid schedule.daily_at %q: want HH:MM", c.Schedule.DailyAt)
	}
	hour, err = strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid schedule.daily_at %q: bad hour", c.Schedule.DailyAt)
	}
	minute, err = strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid schedule.daily_at %q: bad minute", c.Schedule.DailyAt)
	}
	return hour, minute, nil
}

func (c *Config) PostgresDSN() string {
	pg := c.ColdStore.PostgreSQL
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		pg.Host, pg.Port, pg.User, pg.Password, pg.Database, pg.SSLMode,
	)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// PriceKey names the configured price set, e.g. "top500".
func (c *Config) PriceKey() string {
	return fmt.Sprintf("top%d", c.Providers.Price.Limit)
}
