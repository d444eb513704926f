// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tabula/config.yaml",
	"/etc/tabula/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        7446,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Store: StoreConfig{
			Path:       "/data/tabula",
			InMemory:   false,
			GCInterval: 10 * time.Minute,
		},
		Analytics: AnalyticsConfig{
			Enabled:       true,
			Path:          "/data/tabula-analytics.duckdb",
			MaxMemory:     "1GB",
			Threads:       0, // 0 = use runtime.NumCPU()
			RetentionDays: 90,
		},
		Events: EventsConfig{
			Transport:         "gochannel",
			BufferSize:        256,
			PublishAckTimeout: 5 * time.Second,
		},
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			MaxMemory:      1 << 30,  // 1GB
			MaxStore:       10 << 30, // 10GB
			RetentionDays:  7,
			DurableName:    "signage-dispatcher",
			QueueGroup:     "dispatchers",
			ConnectTimeout: 10 * time.Second,
		},
		SSE: SSEConfig{
			HeartbeatInterval:    25 * time.Second,
			StreamBuffer:         16,
			JanitorInterval:      30 * time.Second,
			MaxStreamsPerDisplay: 4,
		},
		Console: ConsoleConfig{
			SaveDebounce:   300 * time.Millisecond,
			RequestTimeout: 10 * time.Second,
		},
		Weather: WeatherConfig{
			Enabled:           false, // Requires an upstream provider key
			BaseURL:           "",
			APIKey:            "",
			Timeout:           10 * time.Second,
			CacheTTL:          10 * time.Minute,
			RequestsPerMinute: 30,
		},
		Backup: BackupConfig{
			Enabled:         false,
			Dir:             "/data/tabula-backups",
			Interval:        24 * time.Hour,
			KeepCount:       7,
			KeepRecentHours: 48,
		},
		Security: SecurityConfig{
			AuthMode:          "jwt",
			JWTSecret:         "",
			SessionTimeout:    24 * time.Hour,
			AdminUsername:     "",
			AdminPassword:     "",
			DeviceTokenTTL:    365 * 24 * time.Hour,
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			TrustedProxies:    []string{},
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
//
// Precedence: ENV > file > defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Transform env var names to koanf paths:
	// HTTP_PORT -> server.port, BADGER_PATH -> store.path
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when supplied through the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
}

// processSliceFields converts comma-separated string values to slices
// for known slice fields. Env vars come in as strings but the config
// expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables return "" and are skipped, so random environment
// variables never pollute the config.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// Store mappings
		"badger_path":        "store.path",
		"badger_in_memory":   "store.in_memory",
		"badger_gc_interval": "store.gc_interval",

		// Analytics mappings
		"analytics_enabled":        "analytics.enabled",
		"duckdb_path":              "analytics.path",
		"duckdb_max_memory":        "analytics.max_memory",
		"duckdb_threads":           "analytics.threads",
		"analytics_retention_days": "analytics.retention_days",

		// Event bus mappings
		"events_transport":   "events.transport",
		"events_buffer_size": "events.buffer_size",
		"events_ack_timeout": "events.publish_ack_timeout",

		// NATS mappings
		"nats_url":             "nats.url",
		"nats_embedded":        "nats.embedded_server",
		"nats_store_dir":       "nats.store_dir",
		"nats_max_memory":      "nats.max_memory",
		"nats_max_store":       "nats.max_store",
		"nats_retention_days":  "nats.stream_retention_days",
		"nats_durable_name":    "nats.durable_name",
		"nats_queue_group":     "nats.queue_group",
		"nats_connect_timeout": "nats.connect_timeout",

		// SSE mappings
		"sse_heartbeat_interval": "sse.heartbeat_interval",
		"sse_stream_buffer":      "sse.stream_buffer",
		"sse_janitor_interval":   "sse.janitor_interval",
		"sse_max_streams":        "sse.max_streams_per_display",

		// Console mappings
		"console_save_debounce":   "console.save_debounce",
		"console_request_timeout": "console.request_timeout",

		// Weather mappings
		"weather_enabled":      "weather.enabled",
		"weather_base_url":     "weather.base_url",
		"weather_api_key":      "weather.api_key",
		"weather_timeout":      "weather.timeout",
		"weather_cache_ttl":    "weather.cache_ttl",
		"weather_rate_per_min": "weather.requests_per_minute",

		// Security mappings
		"auth_mode":           "security.auth_mode",
		"jwt_secret":          "security.jwt_secret",
		"session_timeout":     "security.session_timeout",
		"admin_username":      "security.admin_username",
		"admin_password":      "security.admin_password",
		"device_token_ttl":    "security.device_token_ttl",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",
		"trusted_proxies":     "security.trusted_proxies",

		// API mappings
		"api_default_page_size": "api.default_page_size",
		"api_max_page_size":     "api.max_page_size",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
