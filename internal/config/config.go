// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultPort               = "8081"
	defaultGatewayPort        = "8080"
	defaultCatalogServiceURL  = "http://localhost:8081"
	defaultLogLevel           = "info"
	defaultServiceName        = "mediashelf-catalog"
	defaultRateLimitPerMinute = 120
	defaultRateLimitBurst     = 20
	defaultShutdownTimeout    = 10 * time.Second
)

// Config holds the environment-driven settings shared by the binaries.
type Config struct {
	Port               string
	GatewayPort        string
	CatalogServiceURL  string
	LogLevel           string
	OTLPEndpoint       string
	ServiceName        string
	RateLimitPerMinute int
	RateLimitBurst     int
	ShutdownTimeout    time.Duration

	// Warnings lists malformed values that were replaced by their defaults.
	Warnings []string
}

// Load reads the configuration from the environment. It never fails:
// unparseable values fall back to defaults and are recorded in Warnings.
func Load() Config {
	cfg := Config{
		Port:              getEnv("PORT", defaultPort),
		GatewayPort:       getEnv("GATEWAY_PORT", defaultGatewayPort),
		CatalogServiceURL: getEnv("CATALOG_SERVICE_URL", ""),
		LogLevel:          getEnv("LOG_LEVEL", defaultLogLevel),
		OTLPEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:       getEnv("SERVICE_NAME", defaultServiceName),
	}

	cfg.RateLimitPerMinute = cfg.positiveInt("RATE_LIMIT_PER_MINUTE", defaultRateLimitPerMinute)
	cfg.RateLimitBurst = cfg.positiveInt("RATE_LIMIT_BURST", defaultRateLimitBurst)
	cfg.ShutdownTimeout = cfg.duration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)

	return cfg
}

// CatalogURL is the catalog address the gateway proxies to.
func (c Config) CatalogURL() string {
	if c.CatalogServiceURL == "" {
		return defaultCatalogServiceURL
	}
	return c.CatalogServiceURL
}

func (c *Config) positiveInt(key string, def int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is not a positive integer, using %d", key, raw, def))
		return def
	}
	return v
}

func (c *Config) duration(key string, def time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is not a positive duration, using %s", key, raw, def))
		return def
	}
	return v
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
