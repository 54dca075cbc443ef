package config

import "time"

type Config struct {
	Server struct {
		Port               int           `yaml:"port"`
		ReadTimeoutStr     string        `yaml:"read_timeout"`
		WriteTimeoutStr    string        `yaml:"write_timeout"`
		ShutdownTimeoutStr string        `yaml:"shutdown_timeout"`
		ReadTimeout        time.Duration `yaml:"-"`
		WriteTimeout       time.Duration `yaml:"-"`
		ShutdownTimeout    time.Duration `yaml:"-"`
	} `yaml:"server"`

	Redis struct {
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		PoolSize  int    `yaml:"pool_size"`
		KeyPrefix string `yaml:"key_prefix"`
	} `yaml:"redis"`

	ColdStore struct {
		// Backend is "s3", "postgres" or empty when no cold tier is configured.
		Backend string `yaml:"backend"`

		S3 struct {
			Endpoint        string `yaml:"endpoint"`
			Region          string `yaml:"region"`
			Bucket          string `yaml:"bucket"`
			AccessKeyID     string `yaml:"access_key_id"`
			SecretAccessKey string `yaml:"secret_access_key"`
			UsePathStyle    bool   `yaml:"use_path_style"`
		} `yaml:"s3"`

		PostgreSQL struct {
			Host               string        `yaml:"host"`
			Port               int           `yaml:"port"`
			User               string        `yaml:"user"`
			Password           string        `yaml:"password"`
			Database           string        `yaml:"database"`
			SSLMode            string        `yaml:"sslmode"`
			MaxOpenConns       int           `yaml:"max_open_conns"`
			MaxIdleConns       int           `yaml:"max_idle_conns"`
			ConnMaxLifetimeStr string        `yaml:"conn_max_lifetime"`
			ConnMaxLifetime    time.Duration `yaml:"-"`
		} `yaml:"postgresql"`
	} `yaml:"cold_store"`

	Providers struct {
		// Mode is "live" for the real upstream APIs or "test" for the
		// synthetic in-process provider.
		Mode string `yaml:"mode"`

		Price struct {
			Name       string        `yaml:"name"`
			BaseURL    string        `yaml:"base_url"`
			Limit      int           `yaml:"limit"`
			TimeoutStr string        `yaml:"timeout"`
			Timeout    time.Duration `yaml:"-"`
		} `yaml:"price"`

		Metadata struct {
			Name       string        `yaml:"name"`
			BaseURL    string        `yaml:"base_url"`
			APIKey     string        `yaml:"api_key"`
			Pages      int           `yaml:"pages"`
			PerPage    int           `yaml:"per_page"`
			TimeoutStr string        `yaml:"timeout"`
			Timeout    time.Duration `yaml:"-"`
		} `yaml:"metadata"`
	} `yaml:"providers"`

	Schedule struct {
		PriceIntervalStr string        `yaml:"price_interval"`
		PriceInterval    time.Duration `yaml:"-"`
		DailyAt          string        `yaml:"daily_at"`
		RunOnStart       bool          `yaml:"run_on_start"`
	} `yaml:"schedule"`

	Status struct {
		StaleAfterStr string        `yaml:"stale_after"`
		StaleAfter    time.Duration `yaml:"-"`
	} `yaml:"status"`

	Workers struct {
		Count     int `yaml:"count"`
		QueueSize int `yaml:"queue_size"`
	} `yaml:"workers"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}
