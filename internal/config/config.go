// Package config loads the editor's settings from environment variables,
// applies defaults and validates everything at startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Session  SessionConfig
	Editor   EditorConfig
	Audit    AuditConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig bounds file loading.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes; accepts KB, MB and GB suffixes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" unit:"bytes" default:"100MB"`

	// MaxConcurrent is the maximum number of files decoded at once (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for a decode slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// RateLimitConfig holds per-IP rate limits.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// UploadLimit is requests per minute for the upload endpoint (default: 20)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// CookieSecure marks the session cookie Secure; enable behind HTTPS
	CookieSecure bool `env:"SESSION_COOKIE_SECURE" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// SessionConfig controls editor sessions.
type SessionConfig struct {
	// TTL is how long an idle session is kept (default: 2h)
	TTL time.Duration `env:"SESSION_TTL" default:"2h"`

	// SweepInterval is how often idle sessions are removed (default: 5m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"5m"`

	// UndoDepth is the number of applied operations that can be undone (default: 10)
	UndoDepth int `env:"SESSION_UNDO_DEPTH" default:"10"`

	MaxSessions int `env:"SESSION_MAX" default:"1000"`
}

// EditorConfig holds transformation settings.
type EditorConfig struct {
	// PreviewLimit is the number of rows shown in a preview (default: 10)
	PreviewLimit int `env:"EDITOR_PREVIEW_LIMIT" default:"10"`

	// PageSize is the default grid page size: 10, 25 or 50 (default: 10)
	PageSize int `env:"EDITOR_PAGE_SIZE" default:"10"`
}

// AuditConfig holds the optional PostgreSQL audit trail. Auditing is off
// when URL is empty.
type AuditConfig struct {
	URL             string        `env:"AUDIT_DATABASE_URL"`
	MaxConns        int           `env:"AUDIT_DB_MAX_CONNS" default:"4"`
	MinConns        int           `env:"AUDIT_DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `env:"AUDIT_DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"AUDIT_DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether an audit database is configured.
func (c *AuditConfig) Enabled() bool {
	return c.URL != ""
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
