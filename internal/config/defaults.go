package config

import "time"

// ApplyDefaults fills in sensible values for any unset field so that a
// minimal configuration file (or none at all) still yields a runnable
// service.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	if cfg.Dashboard.FocusCountry == "" {
		cfg.Dashboard.FocusCountry = "IN"
	}
	if cfg.Dashboard.DefaultTopN == 0 {
		cfg.Dashboard.DefaultTopN = 10
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "file"
	}
	if cfg.Storage.File.Dir == "" {
		cfg.Storage.File.Dir = "data"
	}

	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "indiaml:"
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = 15 * time.Minute
	}

	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "indiaml-tracker"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "indiaml.dataset.refresh"
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "indiaml"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// NewDefaultConfig returns a Config populated entirely from defaults.
// Useful for tests and for running the server without a config file.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
