package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/storefront/pkg/config"
	"github.com/abgdnv/storefront/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig      `koanf:"server"`
	Database   config.DatabaseConfig  `koanf:"database"`
	Redis      config.RedisConfig     `koanf:"redis"`
	Log        config.LogConfig       `koanf:"log"`
	PProf      config.PProfConfig     `koanf:"pprof"`
	Nats       config.NATSConfig      `koanf:"nats"`
	Shutdown   config.ShutdownConfig  `koanf:"shutdown"`
	Telemetry  config.TelemetryConfig `koanf:"telemetry"`
	Seed       struct {
		Enabled bool `koanf:"enabled"`
	} `koanf:"seed"`
}

// Defaults are loaded beneath config.yaml and the environment.
func Defaults() map[string]any {
	return map[string]any{
		"database.driver":  config.DriverPostgres,
		"database.timeout": "10s",
		"database.migrate": true,
		"redis.ttl":        "1m",
		"redis.timeout":    "2s",
		"nats.stream":      "ORDERS",
		"nats.timeout":     "5s",
		"shutdown.timeout": "10s",
		"seed.enabled":     true,
	}
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Database.String())
	b.WriteString(c.Redis.String())
	b.WriteString(c.Nats.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Shutdown.String())

	b.WriteString("\n--- Application Behavior ---\n")
	b.WriteString(fmt.Sprintf("  seed.enabled: %t\n", c.Seed.Enabled))
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	validators := []interface{ Validate() error }{
		&c.HTTPServer,
		&c.Database,
		&c.Redis,
		&c.Log,
		&c.PProf,
		&c.Nats,
		&c.Shutdown,
		&c.Telemetry,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
