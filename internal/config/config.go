// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for the Tabula server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Events    EventsConfig    `koanf:"events"`
	NATS      NATSConfig      `koanf:"nats"`
	SSE       SSEConfig       `koanf:"sse"`
	Console   ConsoleConfig   `koanf:"console"`
	Weather   WeatherConfig   `koanf:"weather"`
	Backup    BackupConfig    `koanf:"backup"`
	Security  SecurityConfig  `koanf:"security"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// StoreConfig holds the Badger document store settings.
type StoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
	// GCInterval controls how often value-log garbage collection runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// AnalyticsConfig holds the DuckDB proof-of-play database settings.
type AnalyticsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads sets DuckDB worker threads. 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`
	// RetentionDays bounds how long impression rows are kept.
	RetentionDays int `koanf:"retention_days"`
}

// EventsConfig selects and tunes the internal event bus that fans
// mutations out to SSE streams and the admin WebSocket hub.
type EventsConfig struct {
	// Transport is "gochannel" (in-process, default) or "nats"
	// (requires the nats build tag).
	Transport         string        `koanf:"transport"`
	BufferSize        int           `koanf:"buffer_size"`
	PublishAckTimeout time.Duration `koanf:"publish_ack_timeout"`
}

// NATSConfig holds optional NATS JetStream transport settings.
// Only used when Events.Transport is "nats".
type NATSConfig struct {
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	MaxMemory      int64         `koanf:"max_memory"`
	MaxStore       int64         `koanf:"max_store"`
	RetentionDays  int           `koanf:"stream_retention_days"`
	DurableName    string        `koanf:"durable_name"`
	QueueGroup     string        `koanf:"queue_group"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// SSEConfig tunes per-display event streams.
type SSEConfig struct {
	// HeartbeatInterval is how often a comment line is written to keep
	// idle connections from being closed by intermediaries.
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
	// StreamBuffer is the per-stream channel capacity. A stream that
	// cannot keep up has events dropped rather than blocking dispatch.
	StreamBuffer int `koanf:"stream_buffer"`
	// JanitorInterval is how often dead streams are swept.
	JanitorInterval time.Duration `koanf:"janitor_interval"`
	// MaxStreamsPerDisplay caps concurrent connections per display id.
	MaxStreamsPerDisplay int `koanf:"max_streams_per_display"`
}

// ConsoleConfig tunes the admin console session layer.
type ConsoleConfig struct {
	// SaveDebounce is the trailing delay before a field edit is persisted.
	SaveDebounce time.Duration `koanf:"save_debounce"`
	// RequestTimeout bounds each persistence request.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// WeatherConfig holds the upstream weather proxy settings used by
// weather widgets.
type WeatherConfig struct {
	Enabled  bool          `koanf:"enabled"`
	BaseURL  string        `koanf:"base_url"`
	APIKey   string        `koanf:"api_key"`
	Timeout  time.Duration `koanf:"timeout"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
	// RequestsPerMinute rate-limits calls to the upstream provider.
	RequestsPerMinute int `koanf:"requests_per_minute"`
}

// BackupConfig holds scheduled document store snapshot settings.
type BackupConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Dir      string        `koanf:"dir"`
	Interval time.Duration `koanf:"interval"`
	// KeepCount is the number of newest snapshots always retained.
	KeepCount int `koanf:"keep_count"`
	// KeepRecentHours additionally retains every snapshot younger than
	// this many hours.
	KeepRecentHours int `koanf:"keep_recent_hours"`
}

// Authentication modes.
const (
	AuthModeJWT  = "jwt"
	AuthModeNone = "none"
)

// SecurityConfig holds authentication and transport security settings.
type SecurityConfig struct {
	AuthMode       string        `koanf:"auth_mode"`
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	AdminUsername  string        `koanf:"admin_username"`
	AdminPassword  string        `koanf:"admin_password"`
	// DeviceTokenTTL bounds display pairing token lifetime.
	DeviceTokenTTL    time.Duration `koanf:"device_token_ttl"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
}

// APIConfig holds API behavior settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction reports whether the server runs in production mode.
func (c *ServerConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required unless store.in_memory is set")
	}
	if c.Analytics.Enabled && c.Analytics.Path == "" {
		return fmt.Errorf("analytics.path is required when analytics is enabled")
	}
	switch c.Events.Transport {
	case "gochannel", "nats":
	default:
		return fmt.Errorf("events.transport must be gochannel or nats, got %q", c.Events.Transport)
	}
	if c.SSE.StreamBuffer < 1 {
		return fmt.Errorf("sse.stream_buffer must be at least 1, got %d", c.SSE.StreamBuffer)
	}
	if c.SSE.HeartbeatInterval <= 0 {
		return fmt.Errorf("sse.heartbeat_interval must be positive, got %s", c.SSE.HeartbeatInterval)
	}
	if c.Console.SaveDebounce <= 0 {
		return fmt.Errorf("console.save_debounce must be positive, got %s", c.Console.SaveDebounce)
	}
	if c.Backup.Enabled {
		if c.Backup.Dir == "" {
			return fmt.Errorf("backup.dir is required when backup is enabled")
		}
		if c.Backup.Interval <= 0 {
			return fmt.Errorf("backup.interval must be positive, got %s", c.Backup.Interval)
		}
		if c.Backup.KeepCount < 1 {
			return fmt.Errorf("backup.keep_count must be at least 1, got %d", c.Backup.KeepCount)
		}
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if c.API.MaxPageSize < 1 {
		return fmt.Errorf("api.max_page_size must be at least 1, got %d", c.API.MaxPageSize)
	}
	if c.API.DefaultPageSize < 1 || c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("api.default_page_size must be between 1 and api.max_page_size (%d), got %d",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	if c.Weather.Enabled {
		if c.Weather.BaseURL == "" {
			return fmt.Errorf("weather.base_url is required when weather is enabled")
		}
		if c.Weather.RequestsPerMinute < 1 {
			return fmt.Errorf("weather.requests_per_minute must be at least 1, got %d", c.Weather.RequestsPerMinute)
		}
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case AuthModeJWT, AuthModeNone:
	default:
		return fmt.Errorf("security.auth_mode must be jwt or none, got %q", c.Security.AuthMode)
	}
	if c.Security.AuthMode == AuthModeJWT {
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("security.jwt_secret must be at least 32 characters when auth_mode is jwt")
		}
		if c.Security.AdminUsername == "" || c.Security.AdminPassword == "" {
			return fmt.Errorf("security.admin_username and security.admin_password are required when auth_mode is jwt")
		}
	}
	if c.Security.AuthMode == AuthModeNone && c.Server.IsProduction() {
		return fmt.Errorf("security.auth_mode none is not permitted in production")
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("security.session_timeout must be positive, got %s", c.Security.SessionTimeout)
	}
	if c.Security.DeviceTokenTTL <= 0 {
		return fmt.Errorf("security.device_token_ttl must be positive, got %s", c.Security.DeviceTokenTTL)
	}
	return nil
}
