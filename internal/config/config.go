// Package config defines all configuration structures for the analytics
// service.  No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DashboardConfig holds the focus-country dashboard parameters.
type DashboardConfig struct {
	// FocusCountry is the ISO-2 code of the country the dashboard highlights.
	FocusCountry string `mapstructure:"focus_country"`

	// DefaultTopN is the slice size used by the top-countries view when the
	// request does not specify one.
	DefaultTopN int `mapstructure:"default_top_n"`
}

// FileStorageConfig holds local-directory dataset store parameters.
type FileStorageConfig struct {
	Dir string `mapstructure:"dir"`
}

// MinIOStorageConfig holds S3-compatible dataset store parameters.
type MinIOStorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// StorageConfig selects and configures the dataset store backend.
type StorageConfig struct {
	Backend string             `mapstructure:"backend"` // "file" | "minio"
	File    FileStorageConfig  `mapstructure:"file"`
	MinIO   MinIOStorageConfig `mapstructure:"minio"`
}

// RedisConfig holds derived-view cache parameters.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
}

// KafkaConfig holds dataset-refresh event consumer parameters.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
	Topic   string   `mapstructure:"topic"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Namespace            string `mapstructure:"namespace"`
	EnableRuntimeMetrics bool   `mapstructure:"enable_runtime_metrics"`
}

// Config is the root configuration structure for the service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       logging.Config  `mapstructure:"log"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Dashboard.FocusCountry == "" {
		return fmt.Errorf("config: dashboard.focus_country is required")
	}
	if c.Dashboard.DefaultTopN < 1 {
		return fmt.Errorf("config: dashboard.default_top_n must be >= 1, got %d", c.Dashboard.DefaultTopN)
	}

	switch c.Storage.Backend {
	case "file":
		if c.Storage.File.Dir == "" {
			return fmt.Errorf("config: storage.file.dir is required for the file backend")
		}
	case "minio":
		if c.Storage.MinIO.Endpoint == "" {
			return fmt.Errorf("config: storage.minio.endpoint is required for the minio backend")
		}
		if c.Storage.MinIO.Bucket == "" {
			return fmt.Errorf("config: storage.minio.bucket is required for the minio backend")
		}
	default:
		return fmt.Errorf("config: storage.backend %q is invalid; expected file|minio", c.Storage.Backend)
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when redis is enabled")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
		}
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.GroupID == "" {
			return fmt.Errorf("config: kafka.group_id is required when kafka is enabled")
		}
	}

	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}

	return nil
}
