package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment overrides consulted after the YAML file is read.
const (
	EnvDBPath     = "DRIVEINDEX_DB_PATH"
	EnvDriveID    = "DRIVEINDEX_DRIVE_ID"
	EnvGraphToken = "DRIVEINDEX_GRAPH_TOKEN"
)

// StoreConfig identifies the remote drive to mirror.
type StoreConfig struct {
	DriveID  string `yaml:"drive_id"`
	BaseURL  string `yaml:"base_url,omitempty"`
	TokenEnv string `yaml:"token_env"`
}

// IndexConfig configures the local index database.
type IndexConfig struct {
	DBPath string `yaml:"db_path"`
}

// SyncConfig tunes the sync engine.
type SyncConfig struct {
	BatchSize int `yaml:"batch_size"`
	Workers   int `yaml:"workers"`
}

// ChunkerConfig configures document splitting.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EmbedderConfig selects the embedding provider.
type EmbedderConfig struct {
	Provider  string `yaml:"provider"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	CacheSize int    `yaml:"cache_size"`
}

// SearchConfig tunes hybrid retrieval.
type SearchConfig struct {
	CandidateLimit int     `yaml:"candidate_limit"`
	ResultLimit    int     `yaml:"result_limit"`
	VectorWeight   float64 `yaml:"vector_weight"`
	BM25Weight     float64 `yaml:"bm25_weight"`
}

// Config is the root application configuration structure.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Index    IndexConfig    `yaml:"index"`
	Sync     SyncConfig     `yaml:"sync"`
	Chunker  ChunkerConfig  `yaml:"chunker"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Search   SearchConfig   `yaml:"search"`
}

// Load reads a config from path. A missing file yields defaults so the
// tool works with nothing but environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// Default returns a config with all defaults applied and no file input.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Token resolves the API token from the configured environment variable.
func (c *Config) Token() string {
	return os.Getenv(c.Store.TokenEnv)
}

// Validate checks fields required for sync operations.
func (c *Config) Validate() error {
	if c.Store.DriveID == "" {
		return fmt.Errorf("store.drive_id is required (or set %s)", EnvDriveID)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Store.TokenEnv == "" {
		cfg.Store.TokenEnv = EnvGraphToken
	}
	if cfg.Index.DBPath == "" {
		cfg.Index.DBPath = "driveindex.db"
	}
	if cfg.Sync.BatchSize <= 0 {
		cfg.Sync.BatchSize = 100
	}
	if cfg.Sync.Workers <= 0 {
		cfg.Sync.Workers = 4
	}
	if cfg.Chunker.Size <= 0 {
		cfg.Chunker.Size = 500
	}
	if cfg.Chunker.Overlap < 0 || cfg.Chunker.Overlap >= cfg.Chunker.Size {
		cfg.Chunker.Overlap = 50
		if cfg.Chunker.Overlap >= cfg.Chunker.Size {
			cfg.Chunker.Overlap = cfg.Chunker.Size / 10
		}
	}
	if cfg.Embedder.CacheSize <= 0 {
		cfg.Embedder.CacheSize = 10000
	}
	if cfg.Search.CandidateLimit <= 0 {
		cfg.Search.CandidateLimit = 10
	}
	if cfg.Search.ResultLimit <= 0 {
		cfg.Search.ResultLimit = 5
	}
	if cfg.Search.VectorWeight <= 0 {
		cfg.Search.VectorWeight = 0.7
	}
	if cfg.Search.BM25Weight <= 0 {
		cfg.Search.BM25Weight = 0.3
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Index.DBPath = v
	}
	if v := os.Getenv(EnvDriveID); v != "" {
		cfg.Store.DriveID = v
	}
}
