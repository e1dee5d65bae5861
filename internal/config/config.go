// Package config handles loading and managing configuration for the todoboard CLI.
// It supports loading from YAML files, environment variables, and hardcoded defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/Jayphen/todoboard/internal/projection"
)

// Config holds all configuration settings for the todoboard CLI.
type Config struct {
	// Store is the task store spec (http:url=…,practice=…  sqlite:path=…  googletasks:list=…)
	Store string `yaml:"store"`

	// APIToken is the bearer token for the HTTP store (used when the spec has no token=)
	APIToken string `yaml:"api_token"`

	// RedisURL is the Redis connection URL for saved views and snapshots
	RedisURL string `yaml:"redis_url"`

	// Locale is the BCP 47 tag used for title collation
	Locale string `yaml:"locale"`

	// CreatedAtOrder selects legacy (newest first always) or chronological createdAt sorting
	CreatedAtOrder string `yaml:"created_at_order"`

	// Board holds the default board configuration
	Board BoardConfig `yaml:"board"`

	// Notifications configures desktop notifications
	Notifications NotificationsConfig `yaml:"notifications"`

	// Logging configures the structured logger
	Logging LoggingConfig `yaml:"logging"`
}

// BoardConfig holds the default projection settings.
type BoardConfig struct {
	View          string `yaml:"view"`
	SortBy        string `yaml:"sort_by"`
	SortOrder     string `yaml:"sort_order"`
	ShowCompleted bool   `yaml:"show_completed"`
}

// NotificationsConfig controls where notifications go.
type NotificationsConfig struct {
	// OS enables desktop notifications in addition to terminal output
	OS bool `yaml:"os"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	FilePath   string `yaml:"file"`
	JSON       bool   `yaml:"json"`
	Console    bool   `yaml:"console"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Default configuration values
const (
	DefaultStore          = "sqlite:path=~/.local/share/todoboard/board.db"
	DefaultRedisURL       = "redis://localhost:6379"
	DefaultLocale         = "de"
	DefaultCreatedAtOrder = string(projection.CreatedAtLegacy)
	DefaultView           = string(projection.ViewList)
	DefaultSortBy         = string(projection.SortCreatedAt)
	DefaultSortOrder      = string(projection.Desc)
	DefaultLogLevel       = "warn"
)

var (
	globalConfig *Config
	configOnce   sync.Once
	configErr    error
)

// Get returns the global configuration, loading it if necessary.
// This function is safe for concurrent use.
func Get() (*Config, error) {
	configOnce.Do(func() {
		globalConfig, configErr = Load()
	})
	return globalConfig, configErr
}

// Defaults returns the configuration used when no file or env var is set.
func Defaults() *Config {
	return &Config{
		Store:          DefaultStore,
		RedisURL:       DefaultRedisURL,
		Locale:         DefaultLocale,
		CreatedAtOrder: DefaultCreatedAtOrder,
		Board: BoardConfig{
			View:      DefaultView,
			SortBy:    DefaultSortBy,
			SortOrder: DefaultSortOrder,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			JSON:     true,
			Compress: true,
		},
	}
}

// Load reads configuration from files and environment variables.
// Priority (highest to lowest):
// 1. Environment variables
// 2. ~/.config/todoboard/config.yaml
// 3. ~/.todoboard.yaml
// 4. Hardcoded defaults
//
// A file that exists but does not parse is an error.
func Load() (*Config, error) {
	cfg := Defaults()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		for _, path := range []string{
			filepath.Join(homeDir, ".todoboard.yaml"),
			filepath.Join(homeDir, ".config", "todoboard", "config.yaml"),
			filepath.Join(homeDir, ".config", "todoboard", "config.yml"),
		} {
			if err := cfg.mergeFile(path); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadFile reads a single config file on top of the defaults and applies
// environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvOverrides() {
	if val := os.Getenv("TODOBOARD_STORE"); val != "" {
		c.Store = val
	}

	if val := os.Getenv("TODOBOARD_API_TOKEN"); val != "" {
		c.APIToken = val
	}

	// Redis URL (support both REDIS_URL and TODOBOARD_REDIS_URL)
	if val := os.Getenv("TODOBOARD_REDIS_URL"); val != "" {
		c.RedisURL = val
	} else if val := os.Getenv("REDIS_URL"); val != "" {
		c.RedisURL = val
	}

	if val := os.Getenv("TODOBOARD_LOCALE"); val != "" {
		c.Locale = val
	}

	if val := os.Getenv("TODOBOARD_CREATED_AT_ORDER"); val != "" {
		c.CreatedAtOrder = val
	}

	if val := os.Getenv("TODOBOARD_VIEW"); val != "" {
		c.Board.View = val
	}
	if val := os.Getenv("TODOBOARD_SORT_BY"); val != "" {
		c.Board.SortBy = val
	}
	if val := os.Getenv("TODOBOARD_SORT_ORDER"); val != "" {
		c.Board.SortOrder = val
	}
	if val := os.Getenv("TODOBOARD_SHOW_COMPLETED"); val != "" {
		c.Board.ShowCompleted = parseBool(val)
	}

	if val := os.Getenv("TODOBOARD_OS_NOTIFICATIONS"); val != "" {
		c.Notifications.OS = parseBool(val)
	}

	if val := os.Getenv("TODOBOARD_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	if val := os.Getenv("TODOBOARD_LOG_FILE"); val != "" {
		c.Logging.FilePath = val
	}
	if val := os.Getenv("TODOBOARD_LOG_MAX_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Logging.MaxSize = n
		}
	}
}

func parseBool(val string) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// Tag returns the configured collation locale, falling back to German.
func (c *Config) Tag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.German
	}
	return tag
}

// ProjectionConfig builds the default board projection from the config.
// Unknown values fall back to the projection defaults.
func (c *Config) ProjectionConfig() projection.Config {
	pc := projection.DefaultConfig()

	if v, err := projection.ParseView(c.Board.View); err == nil {
		pc.View = v
	}
	if k, err := projection.ParseSortKey(c.Board.SortBy); err == nil {
		pc.Sort.By = k
	}
	if o, err := projection.ParseSortOrder(c.Board.SortOrder); err == nil {
		pc.Sort.Order = o
	}
	if projection.CreatedAtMode(c.CreatedAtOrder) == projection.CreatedAtChronological {
		pc.Sort.CreatedAt = projection.CreatedAtChronological
	}
	pc.Filter.ShowCompleted = c.Board.ShowCompleted

	return pc
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Reload forces a reload of the configuration.
// This resets the global singleton and returns the newly loaded config.
func Reload() (*Config, error) {
	configOnce = sync.Once{}
	return Get()
}

// ConfigPaths returns the paths where config files are searched.
func ConfigPaths() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(homeDir, ".config", "todoboard", "config.yaml"),
		filepath.Join(homeDir, ".config", "todoboard", "config.yml"),
		filepath.Join(homeDir, ".todoboard.yaml"),
	}
}

// WriteExample writes an example configuration file to the specified path.
func WriteExample(path string) error {
	example := `# todoboard configuration file
# Place this file at ~/.config/todoboard/config.yaml or ~/.todoboard.yaml

# Task store. One of:
#   http:url=https://example.org,practice=<id>
#   sqlite:path=~/.local/share/todoboard/board.db
#   googletasks:list=@default,dir=~/.config/todoboard
store: sqlite:path=~/.local/share/todoboard/board.db

# Bearer token for the http store
api_token: ""

# Redis connection URL (saved views and snapshots)
redis_url: redis://localhost:6379

# Collation locale for title sorting
locale: de

# createdAt sorting: legacy (always newest first) or chronological
created_at_order: legacy

# Default board projection
board:
  view: list
  sort_by: createdAt
  sort_order: desc
  show_completed: false

# Desktop notifications
notifications:
  os: false

# Structured logging
logging:
  level: warn
  file: ""
  json: true
  console: false
  max_size: 10
  max_backups: 5
  max_age: 7
  compress: true
`
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(example), 0644)
}
