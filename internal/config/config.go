// Package config provides configuration management for the supplier monitor.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoSuppliers           = errors.New("at least one supplier is required")
	ErrSupplierMissingName   = errors.New("supplier name is required")
	ErrSupplierMissingDomain = errors.New("supplier domain is required")
	ErrSupplierMissingQuery  = errors.New("supplier query is required")
	ErrDuplicateSupplier     = errors.New("supplier names must be unique")
	ErrMissingAPIBaseURL     = errors.New("api.base_url is required")
	ErrMissingAPIModel       = errors.New("api.model is required")
	ErrInvalidMaxAttempts    = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidBackoffUnit    = errors.New("retry.backoff_unit_ms must be non-negative")
	ErrInvalidTimeout        = errors.New("api.timeout_sec must be at least 1")
	ErrMissingStatePath      = errors.New("state.path is required")
	ErrInvalidStateBackend   = errors.New("state.backend must be 'file' or 'sqlite'")
	ErrInvalidSupplierDelay  = errors.New("scan.supplier_delay_ms must be non-negative")
	ErrInvalidLogLevel       = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrMissingEmailServer    = errors.New("email.smtp_server is required when email is enabled")
	ErrMissingEmailAddress   = errors.New("email.from_email and email.to_email are required when email is enabled")
	ErrInvalidEmailPort      = errors.New("email.smtp_port must be between 1 and 65535")
)

// State backend names.
const (
	StateBackendFile   = "file"
	StateBackendSQLite = "sqlite"
)

// Config represents the complete monitor configuration.
type Config struct {
	Monitor MonitorConfig `yaml:"monitor"`
}

// MonitorConfig contains monitor-specific settings.
type MonitorConfig struct {
	API       APIConfig        `yaml:"api"`
	Retry     RetryPolicy      `yaml:"retry"`
	Suppliers []SupplierConfig `yaml:"suppliers"`
	State     StateConfig      `yaml:"state"`
	Scan      ScanConfig       `yaml:"scan"`
	Schedule  ScheduleConfig   `yaml:"schedule"`
	Email     EmailConfig      `yaml:"email"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// SupplierConfig identifies one monitored source.
type SupplierConfig struct {
	Name   string `yaml:"name"`
	Domain string `yaml:"domain"`
	Query  string `yaml:"query"`
}

// APIConfig defines the answer API endpoint.
type APIConfig struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Key        string `yaml:"-"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// RetryPolicy defines retry behavior for API requests.
type RetryPolicy struct {
	MaxAttempts   int `yaml:"max_attempts"`
	BackoffUnitMs int `yaml:"backoff_unit_ms"`
}

// StateConfig defines where the scan state snapshot lives.
type StateConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// ScanConfig defines per-run pacing.
type ScanConfig struct {
	SupplierDelayMs int `yaml:"supplier_delay_ms"`
}

// ScheduleConfig defines the external trigger cadence.
type ScheduleConfig struct {
	Cron         string `yaml:"cron"`
	Timezone     string `yaml:"timezone"`
	RunOnStartup bool   `yaml:"run_on_startup"`
}

// EmailConfig defines outbound notification delivery.
type EmailConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
	Username   string `yaml:"-"`
	Password   string `yaml:"-"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LoadConfig loads configuration from a YAML file, applies defaults,
// pulls secrets from the environment, and validates the result.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()
	cfg.loadSecrets()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg.normalizeSupplierDomains()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	m := &c.Monitor

	if m.API.BaseURL == "" {
		m.API.BaseURL = "https://api.perplexity.ai/chat/completions"
	}

	if m.API.Model == "" {
		m.API.Model = "sonar-pro"
	}

	if m.API.TimeoutSec == 0 {
		m.API.TimeoutSec = 30
	}

	if m.Retry.MaxAttempts == 0 {
		m.Retry.MaxAttempts = 3
	}

	if m.Retry.BackoffUnitMs == 0 {
		m.Retry.BackoffUnitMs = 1000
	}

	if m.State.Backend == "" {
		m.State.Backend = StateBackendFile
	}

	if m.State.Path == "" {
		m.State.Path = "last_scan_data.json"
	}

	if m.Scan.SupplierDelayMs == 0 {
		m.Scan.SupplierDelayMs = 1000
	}

	if m.Email.SMTPPort == 0 {
		m.Email.SMTPPort = 587
	}

	if m.Logging.Level == "" {
		m.Logging.Level = "info"
	}
}

func (c *Config) loadSecrets() {
	c.Monitor.API.Key = os.Getenv("PERPLEXITY_API_KEY")
	c.Monitor.Email.Username = os.Getenv("EMAIL_USERNAME")
	c.Monitor.Email.Password = os.Getenv("EMAIL_PASSWORD")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	m := &c.Monitor

	if len(m.Suppliers) == 0 {
		return ErrNoSuppliers
	}

	seen := make(map[string]bool, len(m.Suppliers))

	for i, s := range m.Suppliers {
		if s.Name == "" {
			return fmt.Errorf("%w: supplier[%d]", ErrSupplierMissingName, i)
		}

		if s.Domain == "" {
			return fmt.Errorf("%w: supplier[%d]", ErrSupplierMissingDomain, i)
		}

		if s.Query == "" {
			return fmt.Errorf("%w: supplier[%d]", ErrSupplierMissingQuery, i)
		}

		if seen[s.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateSupplier, s.Name)
		}

		seen[s.Name] = true
	}

	if m.API.BaseURL == "" {
		return ErrMissingAPIBaseURL
	}

	if m.API.Model == "" {
		return ErrMissingAPIModel
	}

	if m.API.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if m.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if m.Retry.BackoffUnitMs < 0 {
		return ErrInvalidBackoffUnit
	}

	if m.State.Backend != StateBackendFile && m.State.Backend != StateBackendSQLite {
		return ErrInvalidStateBackend
	}

	if m.State.Path == "" {
		return ErrMissingStatePath
	}

	if m.Scan.SupplierDelayMs < 0 {
		return ErrInvalidSupplierDelay
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[m.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if m.Email.Enabled {
		if m.Email.SMTPServer == "" {
			return ErrMissingEmailServer
		}

		if m.Email.SMTPPort < 1 || m.Email.SMTPPort > 65535 {
			return ErrInvalidEmailPort
		}

		if m.Email.FromEmail == "" || m.Email.ToEmail == "" {
			return ErrMissingEmailAddress
		}
	}

	return nil
}

// normalizeSupplierDomains reduces each supplier domain to its
// registrable form (eTLD+1). Entries that don't resolve to a registrable
// domain are left as configured.
func (c *Config) normalizeSupplierDomains() {
	for i := range c.Monitor.Suppliers {
		c.Monitor.Suppliers[i].Domain = NormalizeDomain(c.Monitor.Suppliers[i].Domain)
	}
}

// NormalizeDomain strips any scheme or path from a configured domain and
// reduces it to the registrable domain.
func NormalizeDomain(domain string) string {
	host := strings.ToLower(strings.TrimSpace(domain))

	if strings.Contains(host, "://") {
		if u, err := url.Parse(host); err == nil && u.Hostname() != "" {
			host = u.Hostname()
		}
	}

	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}

	return registrable
}

// Delay returns the exponential backoff delay to sleep after a failed
// attempt (counted from 0): backoff_unit * 2^attempt.
func (rp *RetryPolicy) Delay(attempt int) time.Duration {
	unit := time.Duration(rp.BackoffUnitMs) * time.Millisecond

	return unit << uint(attempt)
}

// Timeout returns the per-attempt transport timeout.
func (a *APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSec) * time.Second
}

// SupplierDelay returns the pause inserted between suppliers in one scan.
func (s *ScanConfig) SupplierDelay() time.Duration {
	return time.Duration(s.SupplierDelayMs) * time.Millisecond
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Suppliers: %d, MaxAttempts: %d, State: %s:%s}",
		len(c.Monitor.Suppliers),
		c.Monitor.Retry.MaxAttempts,
		c.Monitor.State.Backend,
		c.Monitor.State.Path,
	)
}
