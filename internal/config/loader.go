// Configuration loading: YAML file plus INDIAML_* environment overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all service settings.
const envPrefix = "INDIAML"

// newViper builds a pre-configured viper instance: YAML file type, INDIAML_
// env prefix, automatic env binding, and a key replacer mapping "." → "_" so
// that nested keys like "storage.backend" resolve to
// "INDIAML_STORAGE_BACKEND".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerKeys(v)
	return v
}

// registerKeys declares every configuration key to viper.  AutomaticEnv only
// resolves environment variables for keys viper already knows about, so each
// key is registered with its zero value; real defaults are applied later by
// ApplyDefaults.
func registerKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.port", "server.mode", "server.read_timeout",
		"server.write_timeout", "server.shutdown_timeout",
		"dashboard.focus_country", "dashboard.default_top_n",
		"storage.backend", "storage.file.dir",
		"storage.minio.endpoint", "storage.minio.access_key",
		"storage.minio.secret_key", "storage.minio.bucket",
		"storage.minio.prefix", "storage.minio.use_ssl",
		"redis.enabled", "redis.addr", "redis.password", "redis.db",
		"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout",
		"redis.key_prefix", "redis.default_ttl",
		"kafka.enabled", "kafka.brokers", "kafka.group_id", "kafka.topic",
		"metrics.namespace", "metrics.enable_runtime_metrics",
		"log.level", "log.format", "log.output_paths", "log.error_output_paths",
	} {
		v.SetDefault(key, nil)
	}
}

// Load reads the YAML file at configPath, merges INDIAML_* environment
// overrides, applies defaults for unset fields, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from INDIAML_* environment variables,
// with no config file required.  This is the preferred loading strategy for
// containerised deployments.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  Intended for
// hot-reloading non-critical settings such as log level; callers are
// responsible for applying only the safe subset of changes at runtime.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
// If the changed file fails to parse or validate, onChange is not called.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read; errors are ignored here since callers call Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			// An invalid config on disk must not replace a valid running one.
			return
		}
		onChange(cfg)
	})
}
