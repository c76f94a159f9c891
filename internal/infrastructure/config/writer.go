package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# Mythos Configuration

data:
  # directory, sqlite or http
  source: directory
  dir: data
  # base_url: https://example.org/mythos (for the http source)
  # categories: [deities, heroes]
  workers: 4
  timeout: 30s

index:
  default_limit: 10
  max_alternates: 5

sqlite:
  path: .mythos/mythos.db

qdrant:
  host: localhost
  port: 6334
  # collection: mythos_entities (defaults to mythos_<project dir>)
  # api_key: your-api-key (for Qdrant Cloud)

embedder:
  provider: openai
  model: text-embedding-3-small
  cache_size: 256
  # api_key: your-api-key (or set OPENAI_API_KEY env var)

logging:
  # debug, info, warn or error (or set MYTHOS_LOG_LEVEL)
  level: info
  # text, json or auto (text on a terminal, json otherwise)
  format: auto
`

// WriteDefault creates the .mythos directory and writes a default config file.
func WriteDefault(basePath string) error {
	configDir := ConfigDir(basePath)
	configFile := ConfigFilePath(basePath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Write writes the given config to the config file.
func Write(basePath string, cfg *Config) error {
	if err := os.MkdirAll(ConfigDir(basePath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(ConfigFilePath(basePath), data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
