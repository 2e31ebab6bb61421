package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KirkDiggler/kegledger/internal/common/errkind"
	"github.com/KirkDiggler/kegledger/internal/logging"
)

// Validate checks every section and reports all problems at once
func (c *Config) Validate() error {
	var errs []error

	if c.Site.IdleTimeoutMinutes <= 0 {
		errs = append(errs, errors.New("site.idle_timeout_minutes must be positive"))
	}
	if c.Site.KegVolumeLowThresholdPercent < 0 || c.Site.KegVolumeLowThresholdPercent > 100 {
		errs = append(errs, errors.New("site.keg_volume_low_threshold_percent must be between 0 and 100"))
	}
	if c.Site.DefaultMarkupPercent < 0 {
		errs = append(errs, errors.New("site.default_markup_percent cannot be negative"))
	}
	if _, err := time.LoadLocation(c.Site.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("site.time_zone %q: %v", c.Site.TimeZone, err))
	}

	switch c.Database.Driver {
	case "sqlite3", "mysql":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q must be sqlite3 or mysql", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.Database.Driver == "mysql" && !strings.Contains(c.Database.DSN, "parseTime=true") {
		errs = append(errs, errors.New("database.dsn must set parseTime=true for mysql"))
	}

	switch c.Cache.Backend {
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis backend"))
		}
	case "badger":
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q must be redis or badger", c.Cache.Backend))
	}
	if c.Cache.StatsTTL < 0 {
		errs = append(errs, errors.New("cache.stats_ttl cannot be negative"))
	}

	switch c.Stats.Mode {
	case "sync", "deferred":
	default:
		errs = append(errs, fmt.Errorf("stats.mode %q must be sync or deferred", c.Stats.Mode))
	}
	if c.Stats.BatchSize <= 0 {
		errs = append(errs, errors.New("stats.batch_size must be positive"))
	}

	if c.Events.AMQPURL != "" && c.Events.AMQPQueue == "" {
		errs = append(errs, errors.New("events.amqp_queue is required when events.amqp_url is set"))
	}

	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be json or console", c.Logging.Format))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", errkind.ErrConfiguration, errors.Join(errs...))
}
