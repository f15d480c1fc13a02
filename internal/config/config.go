package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"chartcraft/internal/errors"
)

// Render modes for the diagram compiler.
const (
	RenderModeClient   = "client"
	RenderModeHeadless = "headless"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Render    RenderConfig
	Profiling ProfilingConfig
	LogLevel  string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	APIPort string
	GinMode string
}

// DatabaseConfig holds database connection settings. An empty URL keeps
// workspaces in memory.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether workspaces are persisted in postgres.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// SessionConfig controls how long an idle workspace survives.
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	CookieName    string
}

// RenderConfig holds settings for the diagram compiler and chart rasters
type RenderConfig struct {
	Mode              string
	ChromeBin         string
	MermaidScriptURL  string
	Timeout           time.Duration
	WarmupConcurrency int
	RasterWidth       int
	RasterHeight      int
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:    *loadServerConfig(),
		Database:  DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Session:   *loadSessionConfig(),
		Render:    *loadRenderConfig(),
		Profiling: *loadProfilingConfig(),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		APIPort: getEnvOrDefault("API_PORT", "8081"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadSessionConfig() *SessionConfig {
	return &SessionConfig{
		TTL:           getEnvDurationOrDefault("SESSION_TTL", 2*time.Hour),
		SweepInterval: getEnvDurationOrDefault("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		CookieName:    getEnvOrDefault("SESSION_COOKIE", "chartcraft_session"),
	}
}

func loadRenderConfig() *RenderConfig {
	return &RenderConfig{
		Mode:              strings.ToLower(getEnvOrDefault("RENDER_MODE", RenderModeClient)),
		ChromeBin:         getEnvOrDefault("CHROME_BIN", ""),
		MermaidScriptURL:  getEnvOrDefault("MERMAID_SCRIPT_URL", "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"),
		Timeout:           getEnvDurationOrDefault("RENDER_TIMEOUT", 10*time.Second),
		WarmupConcurrency: getEnvIntOrDefault("WARMUP_CONCURRENCY", 4),
		RasterWidth:       getEnvIntOrDefault("RASTER_WIDTH", 1024),
		RasterHeight:      getEnvIntOrDefault("RASTER_HEIGHT", 600),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	switch config.Render.Mode {
	case RenderModeClient, RenderModeHeadless:
	default:
		return errors.ConfigInvalid("RENDER_MODE must be \"client\" or \"headless\", got " + strconv.Quote(config.Render.Mode))
	}
	if config.Render.Timeout <= 0 {
		return errors.ConfigInvalid("RENDER_TIMEOUT must be positive")
	}
	if config.Render.WarmupConcurrency < 1 {
		return errors.ConfigInvalid("WARMUP_CONCURRENCY must be at least 1")
	}
	if config.Render.RasterWidth < 100 || config.Render.RasterHeight < 100 {
		return errors.ConfigInvalid("raster size must be at least 100x100")
	}
	if config.Session.TTL <= 0 {
		return errors.ConfigInvalid("SESSION_TTL must be positive")
	}
	if config.Session.SweepInterval <= 0 {
		return errors.ConfigInvalid("SESSION_SWEEP_INTERVAL must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
