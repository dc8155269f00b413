// Package config loads askpdf configuration from an optional YAML file
// with ASKPDF_-prefixed environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	OpenAI   OpenAIConfig   `koanf:"openai"`
	Storage  StorageConfig  `koanf:"storage"`
	Chunking ChunkingConfig `koanf:"chunking"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type OpenAIConfig struct {
	APIKey     string `koanf:"api_key"`
	EmbedModel string `koanf:"embed_model"`
	ChatModel  string `koanf:"chat_model"`
}

type StorageConfig struct {
	DBPath    string `koanf:"db_path"`
	UploadDir string `koanf:"upload_dir"`
}

type ChunkingConfig struct {
	ChunkSize int `koanf:"chunk_size"`
	Overlap   int `koanf:"overlap"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Host: "localhost", Port: 8080},
		OpenAI:   OpenAIConfig{EmbedModel: "text-embedding-3-small", ChatModel: "gpt-4o-mini"},
		Storage:  StorageConfig{DBPath: "data/askpdf.db", UploadDir: "data/uploads"},
		Chunking: ChunkingConfig{ChunkSize: 800, Overlap: 120},
		Log:      LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads configuration in precedence order: defaults, then the
// YAML file at configPath (skipped when empty or missing), then
// ASKPDF_-prefixed environment variables. The first underscore in an
// env name separates section from key: ASKPDF_OPENAI_API_KEY maps to
// openai.api_key.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider("ASKPDF_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "ASKPDF_")), "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// The bare OPENAI_API_KEY convention still works when the
	// prefixed variable is unset.
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail deep inside the
// pipeline.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("overlap %d must be in [0, chunk size %d)", c.Chunking.Overlap, c.Chunking.ChunkSize)
	}
	return nil
}
