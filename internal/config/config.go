// Package config handles the XDG configuration directory, the optional
// config.yaml and .env files in it, and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// FileName is the optional settings file inside Dir.
	FileName = "config.yaml"

	// EnvFileName is the optional dotenv file inside Dir.
	EnvFileName = ".env"

	// DBFile is the default SQLite database filename.
	DBFile = "todos.db"
)

// Backend names accepted by --backend and TODO_BACKEND.
const (
	BackendStub        = "stub"
	BackendSQLite      = "sqlite"
	BackendGoogleTasks = "googletasks"
)

// Environment variables that override config.yaml.
const (
	EnvBackend         = "TODO_BACKEND"
	EnvDBPath          = "TODO_DB_PATH"
	EnvNATSURL         = "TODO_NATS_URL"
	EnvMetricsAddr     = "TODO_METRICS_ADDR"
	EnvRefreshInterval = "TODO_REFRESH_INTERVAL"
)

// DefaultNATSSubject is where cache snapshots are published.
const DefaultNATSSubject = "todo.changes"

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	Backend         string
	DBPath          string
	DebounceWindow  time.Duration
	DismissDelay    time.Duration
	RefreshInterval time.Duration
	MetricsAddr     string
	NATSURL         string
	NATSSubject     string
}

// fileSettings mirrors config.yaml. Zero values leave defaults in place.
type fileSettings struct {
	Backend         string        `yaml:"backend"`
	DBPath          string        `yaml:"db_path"`
	DebounceWindow  time.Duration `yaml:"debounce_window"`
	DismissDelay    time.Duration `yaml:"dismiss_delay"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	NATS            struct {
		URL     string `yaml:"url"`
		Subject string `yaml:"subject"`
	} `yaml:"nats"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/todo or $HOME/.config/todo.
// Only built-in defaults are applied; see Load.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:         dir,
		Backend:     BackendSQLite,
		DBPath:      filepath.Join(dir, DBFile),
		NATSSubject: DefaultNATSSubject,
	}, nil
}

// Load builds a Config from defaults, then config.yaml, then the
// environment (with .env from Dir filling unset variables).
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendStub, BackendSQLite, BackendGoogleTasks:
	default:
		return fmt.Errorf("unknown backend: %s", c.Backend)
	}
	if c.DebounceWindow < 0 || c.DismissDelay < 0 || c.RefreshInterval < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.FilePath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var fs fileSettings
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &fs); err != nil {
		return fmt.Errorf("invalid %s: %w", FileName, err)
	}

	setString(&c.Backend, fs.Backend)
	setString(&c.DBPath, fs.DBPath)
	setString(&c.MetricsAddr, fs.MetricsAddr)
	setString(&c.NATSURL, fs.NATS.URL)
	setString(&c.NATSSubject, fs.NATS.Subject)
	if fs.DebounceWindow != 0 {
		c.DebounceWindow = fs.DebounceWindow
	}
	if fs.DismissDelay != 0 {
		c.DismissDelay = fs.DismissDelay
	}
	if fs.RefreshInterval != 0 {
		c.RefreshInterval = fs.RefreshInterval
	}
	return nil
}

func (c *Config) loadEnv() error {
	envPath := filepath.Join(c.Dir, EnvFileName)
	if _, err := os.Stat(envPath); err == nil {
		// godotenv.Load never overrides variables already set.
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvFileName, err)
		}
	}

	setString(&c.Backend, os.Getenv(EnvBackend))
	setString(&c.DBPath, os.Getenv(EnvDBPath))
	setString(&c.NATSURL, os.Getenv(EnvNATSURL))
	setString(&c.MetricsAddr, os.Getenv(EnvMetricsAddr))
	if v := strings.TrimSpace(os.Getenv(EnvRefreshInterval)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRefreshInterval, err)
		}
		c.RefreshInterval = d
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// FilePath returns the path to config.yaml.
func (c *Config) FilePath() string {
	return filepath.Join(c.Dir, FileName)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
