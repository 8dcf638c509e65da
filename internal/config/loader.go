package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Field tags understood by the loader:
//
//	env      primary variable name
//	envAlt   fallback variable name
//	default  value used when neither is set
//	required "true" fails the load when unset
//	unit     "bytes" accepts sizes such as 512KB or 100MB
//
// Nested structs are walked recursively. Every bad or missing variable is
// reported, not only the first.

// Load reads configuration from the process environment and validates it.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads configuration through lookup instead of the environment.
func LoadFrom(lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}

	if err := fill(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func fill(v reflect.Value, lookup func(string) (string, bool)) error {
	var errs []error
	t := v.Type()

	for i := range t.NumField() {
		sf := t.Field(i)
		fv := v.Field(i)
		if !sf.IsExported() {
			continue
		}
		if sf.Type.Kind() == reflect.Struct {
			if err := fill(fv, lookup); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}
		raw, ok := envValue(lookup, name, sf.Tag.Get("envAlt"))
		if !ok {
			if sf.Tag.Get("required") == "true" {
				errs = append(errs, fmt.Errorf("%s is required", name))
				continue
			}
			raw = sf.Tag.Get("default")
		}
		if raw == "" {
			continue
		}
		if err := assign(fv, raw, sf.Tag.Get("unit")); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", name, raw, err))
		}
	}
	return errors.Join(errs...)
}

// envValue returns the first non-blank value of name or alt.
func envValue(lookup func(string) (string, bool), name, alt string) (string, bool) {
	for _, key := range []string{name, alt} {
		if key == "" {
			continue
		}
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func assign(fv reflect.Value, raw, unit string) error {
	switch {
	case fv.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
	case fv.Kind() == reflect.Int || fv.Kind() == reflect.Int64:
		parse := func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }
		if unit == "bytes" {
			parse = parseBytes
		}
		n, err := parse(raw)
		if err != nil {
			return err
		}
		if fv.OverflowInt(n) {
			return fmt.Errorf("%d out of range", n)
		}
		fv.SetInt(n)
	case fv.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case fv.Kind() == reflect.String:
		fv.SetString(raw)
	case fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() == reflect.String:
		var items []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		fv.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("cannot load into %s", fv.Type())
	}
	return nil
}

var byteUnits = []struct {
	suffix string
	mult   int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// parseBytes reads a byte count with an optional binary unit suffix.
func parseBytes(raw string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	mult := int64(1)
	for _, u := range byteUnits {
		if strings.HasSuffix(s, u.suffix) {
			s, mult = strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), u.mult
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", raw)
	}
	if n < 0 || n > (1<<62)/mult {
		return 0, fmt.Errorf("size %q out of range", raw)
	}
	return n * mult, nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Upload validation
	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if c.Upload.MaxConcurrent <= 0 {
		errs = append(errs, "UPLOAD_MAX_CONCURRENT must be positive")
	}
	if c.Upload.MaxWaitTime <= 0 {
		errs = append(errs, "UPLOAD_MAX_WAIT_TIME must be positive")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.UploadLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_UPLOAD must be positive when rate limiting is enabled")
	}

	// Session validation
	if c.Session.TTL <= 0 {
		errs = append(errs, "SESSION_TTL must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, "SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.Session.UndoDepth < 0 {
		errs = append(errs, "SESSION_UNDO_DEPTH must be non-negative")
	}
	if c.Session.MaxSessions <= 0 {
		errs = append(errs, "SESSION_MAX must be positive")
	}

	// Editor validation
	if c.Editor.PreviewLimit <= 0 {
		errs = append(errs, "EDITOR_PREVIEW_LIMIT must be positive")
	}
	switch c.Editor.PageSize {
	case 10, 25, 50:
	default:
		errs = append(errs, fmt.Sprintf("EDITOR_PAGE_SIZE (%d) must be one of: 10, 25, 50", c.Editor.PageSize))
	}

	// Audit validation
	if c.Audit.Enabled() {
		if c.Audit.MaxConns <= 0 {
			errs = append(errs, "AUDIT_DB_MAX_CONNS must be positive")
		}
		if c.Audit.MinConns < 0 {
			errs = append(errs, "AUDIT_DB_MIN_CONNS must be non-negative")
		}
		if c.Audit.MaxConns < c.Audit.MinConns {
			errs = append(errs, fmt.Sprintf("AUDIT_DB_MAX_CONNS (%d) must be >= AUDIT_DB_MIN_CONNS (%d)",
				c.Audit.MaxConns, c.Audit.MinConns))
		}
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The audit database URL is masked.
func (c *Config) String() string {
	audit := "disabled"
	if c.Audit.Enabled() {
		audit = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Upload: {MaxFileSize: %d, MaxConcurrent: %d}, ",
		c.Upload.MaxFileSize, c.Upload.MaxConcurrent)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Session: {TTL: %s, UndoDepth: %d, MaxSessions: %d}, ",
		c.Session.TTL, c.Session.UndoDepth, c.Session.MaxSessions)
	fmt.Fprintf(&b, "Audit: {URL: %s}, ", audit)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
