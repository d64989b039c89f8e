// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// APIConfig holds the settings for the catalog search API client.
type APIConfig struct {
	// BaseURL is the API root, e.g. "http://localhost:8080/api".
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RateLimit caps outgoing requests per second; 0 disables limiting.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// Burst is the limiter bucket size.
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`
}

// HubConfig holds the settings for the push-notification hub connection.
type HubConfig struct {
	// URL is the hub endpoint, e.g. "http://localhost:8080/hubs/notifications".
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// SkipNegotiation dials the WebSocket directly without the negotiate call.
	SkipNegotiation bool `json:"skip_negotiation" yaml:"skip_negotiation" mapstructure:"skip_negotiation"`

	// RetryDelay is the first reconnect delay (default 3s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`

	// MaxRetryDelay caps the exponential reconnect delay (default 30s).
	MaxRetryDelay time.Duration `json:"max_retry_delay" yaml:"max_retry_delay" mapstructure:"max_retry_delay"`

	// KeepAlive is the interval between client pings (default 15s).
	KeepAlive time.Duration `json:"keep_alive" yaml:"keep_alive" mapstructure:"keep_alive"`

	// ServerTimeout is how long the client waits for any server frame
	// before treating the connection as lost (default 30s).
	ServerTimeout time.Duration `json:"server_timeout" yaml:"server_timeout" mapstructure:"server_timeout"`
}

// ToastConfig holds notification banner settings.
type ToastConfig struct {
	// Duration is how long a toast stays visible (default 7s).
	Duration time.Duration `json:"duration" yaml:"duration" mapstructure:"duration"`
}

// CacheConfig holds settings for the in-memory response cache.
type CacheConfig struct {
	// TTL is how long filter options and publication types are reused (default 10m).
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// LogConfig selects log level, format, and destination.
type LogConfig struct {
	// Level is a logrus level name (debug, info, warn, error).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "text" or "json".
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// File is a log file path; empty logs to stderr. Files are rotated.
	File string `json:"file" yaml:"file" mapstructure:"file"`
}

// Config groups all client settings.
type Config struct {
	API   APIConfig   `json:"api" yaml:"api" mapstructure:"api"`
	Hub   HubConfig   `json:"hub" yaml:"hub" mapstructure:"hub"`
	Toast ToastConfig `json:"toast" yaml:"toast" mapstructure:"toast"`
	Cache CacheConfig `json:"cache" yaml:"cache" mapstructure:"cache"`
	Log   LogConfig   `json:"log" yaml:"log" mapstructure:"log"`
}
