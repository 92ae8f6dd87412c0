package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/abgdnv/storefront/internal/storefront/transport/page"
	"github.com/abgdnv/storefront/pkg/config"
	"github.com/abgdnv/storefront/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// MaxCatalogPageSize is the largest limit the catalog service accepts per listing request.
const MaxCatalogPageSize = 1000

type Config struct {
	HTTPServer config.HTTPConfig      `koanf:"server"`
	Log        config.LogConfig       `koanf:"log"`
	PProf      config.PProfConfig     `koanf:"pprof"`
	Shutdown   config.ShutdownConfig  `koanf:"shutdown"`
	Telemetry  config.TelemetryConfig `koanf:"telemetry"`
	Catalog    CatalogConfig          `koanf:"catalog"`
	Carousel   struct {
		Interval        time.Duration `koanf:"interval"`
		ResetOnNavigate bool          `koanf:"resetonnavigate"`
	} `koanf:"carousel"`
	Newsletter struct {
		Delay time.Duration `koanf:"delay"`
	} `koanf:"newsletter"`
	Session    SessionConfig `koanf:"session"`
	Storefront struct {
		Slides []page.Slide `koanf:"slides"`
		Brands []string     `koanf:"brands"`
	} `koanf:"storefront"`
}

type CatalogConfig struct {
	BaseURL        string                      `koanf:"baseurl"`
	PageSize       int                         `koanf:"pagesize"`
	Timeout        time.Duration               `koanf:"timeout"`
	CircuitBreaker config.CircuitBreakerConfig `koanf:"circuitbreaker"`
}

type SessionConfig struct {
	IdleTimeout time.Duration `koanf:"idletimeout"`
	Secret      string        `koanf:"secret"`
	Secure      bool          `koanf:"secure"`
}

// Defaults are loaded beneath config.yaml and the environment.
func Defaults() map[string]any {
	return map[string]any{
		"carousel.interval":                          "5s",
		"carousel.resetonnavigate":                   true,
		"newsletter.delay":                           "5s",
		"session.idletimeout":                        "30m",
		"catalog.pagesize":                           100,
		"catalog.timeout":                            "5s",
		"catalog.circuitbreaker.consecutivefailures": 5,
		"catalog.circuitbreaker.errorratepercent":    60,
		"catalog.circuitbreaker.opentimeout":         "10s",
		"catalog.circuitbreaker.halfopenrequests":    1,
		"shutdown.timeout":                           "10s",
	}
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.Telemetry.String())

	b.WriteString("\n--- Catalog ---\n")
	b.WriteString(fmt.Sprintf("  baseurl: %s\n", c.Catalog.BaseURL))
	b.WriteString(fmt.Sprintf("  pagesize: %d\n", c.Catalog.PageSize))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Catalog.Timeout))
	b.WriteString(c.Catalog.CircuitBreaker.String())

	b.WriteString("\n--- Storefront ---\n")
	b.WriteString(fmt.Sprintf("  carousel.interval: %s\n", c.Carousel.Interval))
	b.WriteString(fmt.Sprintf("  carousel.resetonnavigate: %t\n", c.Carousel.ResetOnNavigate))
	b.WriteString(fmt.Sprintf("  newsletter.delay: %s\n", c.Newsletter.Delay))
	b.WriteString(fmt.Sprintf("  session.idletimeout: %s\n", c.Session.IdleTimeout))
	b.WriteString(fmt.Sprintf("  session.secret: %s\n", maskSecret(c.Session.Secret)))
	b.WriteString(fmt.Sprintf("  session.secure: %t\n", c.Session.Secure))
	b.WriteString(fmt.Sprintf("  storefront.slides: %d\n", len(c.Storefront.Slides)))
	b.WriteString(fmt.Sprintf("  storefront.brands: %d\n", len(c.Storefront.Brands)))
	return b.String()
}

func maskSecret(s string) string {
	if s == "" {
		return "<not configured>"
	}
	return "****"
}

// Validate checks if the configuration values are valid and fills in the default page content.
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog base URL is not configured")
	}
	if c.Catalog.PageSize <= 0 || c.Catalog.PageSize > MaxCatalogPageSize {
		return fmt.Errorf("catalog page size must be between 1 and %d", MaxCatalogPageSize)
	}
	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("catalog timeout must be greater than zero")
	}
	if err := c.Catalog.CircuitBreaker.Validate(); err != nil {
		return err
	}
	if c.Carousel.Interval <= 0 {
		return fmt.Errorf("carousel interval must be greater than zero")
	}
	if c.Newsletter.Delay <= 0 {
		return fmt.Errorf("newsletter delay must be greater than zero")
	}
	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("session idle timeout must be greater than zero")
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("session secret must be at least 32 bytes")
	}
	if len(c.Storefront.Slides) == 0 {
		c.Storefront.Slides = DefaultSlides()
	}
	if len(c.Storefront.Brands) == 0 {
		c.Storefront.Brands = DefaultBrands()
	}
	return nil
}
