// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for mythos configuration.
	DefaultConfigDir = ".mythos"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the default SQLite file name inside the config dir.
	DefaultDatabaseFile = "mythos.db"
)

// Data source kinds.
const (
	SourceDirectory = "directory"
	SourceSQLite    = "sqlite"
	SourceHTTP      = "http"
)

// ErrConfigNotFound is returned by Load when no config file exists.
var ErrConfigNotFound = errors.New("config file not found")

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static configuration (read-only after init).
type Config struct {
	Data     DataConfig     `yaml:"data,omitempty"`
	Index    IndexConfig    `yaml:"index,omitempty"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Qdrant   QdrantConfig   `yaml:"qdrant,omitempty"`
	Embedder EmbedderConfig `yaml:"embedder,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// DataConfig says where entity records are loaded from.
type DataConfig struct {
	Source     string        `yaml:"source,omitempty"` // directory, sqlite or http
	Dir        string        `yaml:"dir,omitempty"`
	BaseURL    string        `yaml:"base_url,omitempty"`
	Categories []string      `yaml:"categories,omitempty"`
	Workers    int           `yaml:"workers,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
}

// IndexConfig holds lookup defaults.
type IndexConfig struct {
	DefaultLimit  int `yaml:"default_limit,omitempty"`
	MaxAlternates int `yaml:"max_alternates,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite entity store.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database. Relative paths are
	// resolved against the project root.
	Path string `yaml:"path,omitempty"`
}

// QdrantConfig holds configuration for the Qdrant vector database.
type QdrantConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
}

// EmbedderConfig holds configuration for the embedding provider.
type EmbedderConfig struct {
	Provider  string `yaml:"provider,omitempty"`
	Model     string `yaml:"model,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	CacheSize int    `yaml:"cache_size,omitempty"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Source:  SourceDirectory,
			Dir:     "data",
			Workers: 4,
			Timeout: 30 * time.Second,
		},
		Index: IndexConfig{
			DefaultLimit:  10,
			MaxAlternates: 5,
		},
		SQLite: SQLiteConfig{
			Path: filepath.Join(DefaultConfigDir, DefaultDatabaseFile),
		},
		Qdrant: QdrantConfig{
			Host: "localhost",
			Port: 6334,
		},
		Embedder: EmbedderConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			CacheSize: 256,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from the .mythos directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s (run 'mythos init' first)", ErrConfigNotFound, configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault loads the config file, falling back to defaults (with
// environment overrides) when the project has none.
func LoadOrDefault(basePath string) (*Config, error) {
	cfg, err := Load(basePath)
	if errors.Is(err, ErrConfigNotFound) {
		cfg = Default()
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	return cfg, err
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.Embedder.APIKey == "" {
		c.Embedder.APIKey = key
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" && c.Qdrant.APIKey == "" {
		c.Qdrant.APIKey = key
	}
	if level := os.Getenv("MYTHOS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if dir := os.Getenv("MYTHOS_DATA_DIR"); dir != "" {
		c.Data.Dir = dir
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceDirectory, SourceSQLite:
	case SourceHTTP:
		if c.Data.BaseURL == "" {
			return errors.New("data.base_url is required for the http source")
		}
	default:
		return fmt.Errorf("invalid data.source %q (valid: directory, sqlite, http)", c.Data.Source)
	}
	if c.Data.Workers < 0 {
		return fmt.Errorf("data.workers must not be negative, got %d", c.Data.Workers)
	}
	return nil
}

// CollectionName returns the configured Qdrant collection, or one derived
// from the project directory name.
func (c *Config) CollectionName(basePath string) string {
	if c.Qdrant.Collection != "" {
		return c.Qdrant.Collection
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		abs = basePath
	}
	return GenerateCollectionName(filepath.Base(abs))
}

// ResolvePath joins a relative path onto basePath.
func ResolvePath(basePath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}

// ConfigDir returns the path to the .mythos config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// Exists checks if a mythos config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}

// SanitizeName converts a project name to a valid collection suffix.
func SanitizeName(name string) string {
	// Convert to lowercase
	name = strings.ToLower(name)

	// Replace spaces and hyphens with underscores
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")

	// Remove any characters that aren't alphanumeric or underscore
	name = reNonAlphanumeric.ReplaceAllString(name, "")

	// Remove consecutive underscores
	name = reMultipleUnderscores.ReplaceAllString(name, "_")

	// Trim leading/trailing underscores
	name = strings.Trim(name, "_")

	if name == "" {
		return "default"
	}

	return name
}

// GenerateCollectionName creates a collection name for a project.
func GenerateCollectionName(name string) string {
	return "mythos_" + SanitizeName(name)
}
