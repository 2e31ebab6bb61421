// Package config loads the process configuration. Values are layered:
// built-in defaults, then an optional YAML file, then KEGLEDGER_ environment
// variables.
package config

import (
	"time"
)

// Config is the complete process configuration
type Config struct {
	Site     SiteConfig     `koanf:"site"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Stats    StatsConfig    `koanf:"stats"`
	Events   EventsConfig   `koanf:"events"`
	Logging  LoggingConfig  `koanf:"logging"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// SiteConfig holds per-installation settings
type SiteConfig struct {
	// IdleTimeoutMinutes closes a drinking session after this much inactivity
	IdleTimeoutMinutes int `koanf:"idle_timeout_minutes"`

	// KegVolumeLowThresholdPercent is the remaining share that raises keg-volume-low
	KegVolumeLowThresholdPercent float64 `koanf:"keg_volume_low_threshold_percent"`

	// DefaultMarkupPercent is accepted and validated; pricing is not computed
	DefaultMarkupPercent float64 `koanf:"default_markup_percent"`

	// TimeZone is the IANA zone captured by new sessions
	TimeZone string `koanf:"time_zone"`
}

// IdleTimeout returns the session idle timeout as a duration
func (s SiteConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutMinutes) * time.Minute
}

// DatabaseConfig selects the ledger database.
// MySQL DSNs need parseTime=true.
type DatabaseConfig struct {
	// Driver is sqlite3 or mysql
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// CacheConfig selects the generation counter and stats cache backend
type CacheConfig struct {
	// Backend is redis or badger
	Backend string `koanf:"backend"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// KeyPrefix namespaces every redis key
	KeyPrefix string `koanf:"key_prefix"`

	// BadgerDir is the badger directory; empty keeps the cache in memory
	BadgerDir string `koanf:"badger_dir"`

	// StatsTTL bounds how long a cached stats snapshot is served
	StatsTTL time.Duration `koanf:"stats_ttl"`
}

// StatsConfig controls stats building
type StatsConfig struct {
	// Mode is sync or deferred
	Mode string `koanf:"mode"`

	// BatchSize is the number of drinks read per page during a rebuild
	BatchSize int `koanf:"batch_size"`
}

// EventsConfig controls where system events are published
type EventsConfig struct {
	// TopicPrefix prefixes the in-process watermill topics
	TopicPrefix string `koanf:"topic_prefix"`

	// AMQPURL enables publishing to a broker when set
	AMQPURL string `koanf:"amqp_url"`

	AMQPQueue string `koanf:"amqp_queue"`

	// BreakerFailures is the number of consecutive publish failures that opens the breaker
	BreakerFailures uint32 `koanf:"breaker_failures"`

	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// LoggingConfig controls the global logger
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig controls the metrics HTTP server
type MetricsConfig struct {
	// Addr is the listen address; empty disables the server
	Addr string `koanf:"addr"`
}

func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			IdleTimeoutMinutes:           90,
			KegVolumeLowThresholdPercent: 15,
			DefaultMarkupPercent:         0,
			TimeZone:                     "UTC",
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "kegledger.db?_loc=UTC&_txlock=immediate",
		},
		Cache: CacheConfig{
			Backend:   "badger",
			RedisAddr: "localhost:6379",
			KeyPrefix: "kegledger:",
			StatsTTL:  10 * time.Minute,
		},
		Stats: StatsConfig{
			Mode:      "sync",
			BatchSize: 500,
		},
		Events: EventsConfig{
			TopicPrefix:     "kegledger.events",
			AMQPQueue:       "kegledger.events",
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Addr: ":9102",
		},
	}
}
