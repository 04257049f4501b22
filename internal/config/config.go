// Package config provides configuration for the partload CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	lerrors "github.com/arkilian/partload/internal/errors"
	"github.com/arkilian/partload/pkg/types"
)

// PartitionSource selects how a table's partition files are enumerated.
type PartitionSource string

const (
	// PartitionsListing lists objects under each table's URI
	PartitionsListing PartitionSource = "listing"

	// PartitionsManifest reads the ordered partition list from the manifest database
	PartitionsManifest PartitionSource = "manifest"
)

// Config holds the configuration for loading tables.
type Config struct {
	// DataDir is the base directory for local data and the manifest
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Concurrency is the maximum number of partitions decoded at once per table
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// StrictConformance checks every batch against the resolved schema at load time
	StrictConformance bool `json:"strict_conformance" yaml:"strict_conformance"`

	// Partitions selects the partition enumerator: listing or manifest
	Partitions PartitionSource `json:"partitions" yaml:"partitions"`

	// ManifestPath is the manifest database path (default: <data_dir>/manifest.db)
	ManifestPath string `json:"manifest_path" yaml:"manifest_path"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Tables lists the tables to load
	Tables []types.TableSource `json:"tables" yaml:"tables"`
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage root (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle enables path-style addressing (MinIO, LocalStack)
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`
}

// DefaultConfig returns the default configuration for local use.
func DefaultConfig() *Config {
	return &Config{
		DataDir:     "./data/partload",
		Concurrency: 8,
		Partitions:  PartitionsListing,
		Storage: StorageConfig{
			Type: "local",
		},
	}
}

// Resolve fills derived paths from DataDir and infers table formats from their URIs.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/partload"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "storage")
	}
	if c.ManifestPath == "" {
		c.ManifestPath = filepath.Join(c.DataDir, "manifest.db")
	}
	if c.Partitions == "" {
		c.Partitions = PartitionsListing
	}

	for i := range c.Tables {
		t := &c.Tables[i]
		if t.Format == "" {
			inferred := types.NewTableSource(t.Name, t.URI)
			t.Format = inferred.Format
			if t.Compression == "" {
				t.Compression = inferred.Compression
			}
		}
	}
}

// Table returns the configured table with the given name.
func (c *Config) Table(name string) (types.TableSource, bool) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return types.TableSource{}, false
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return lerrors.NewConfigError("data_dir is required")
	}

	if c.Concurrency < 1 {
		return lerrors.NewConfigError(fmt.Sprintf("concurrency must be at least 1, got %d", c.Concurrency))
	}

	switch c.Storage.Type {
	case "local":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return lerrors.NewConfigError("s3.bucket is required when storage type is s3")
		}
	default:
		return lerrors.NewConfigError(fmt.Sprintf("invalid storage type: %s (must be local or s3)", c.Storage.Type))
	}

	switch c.Partitions {
	case PartitionsListing, PartitionsManifest:
	default:
		return lerrors.NewConfigError(fmt.Sprintf("invalid partitions source: %s (must be listing or manifest)", c.Partitions))
	}

	seen := make(map[string]bool, len(c.Tables))
	for _, t := range c.Tables {
		if err := t.Validate(); err != nil {
			return lerrors.Wrap(lerrors.ErrCategoryConfig, lerrors.CodeInvalidConfig, "invalid table", err)
		}
		if seen[t.Name] {
			return lerrors.NewConfigError(fmt.Sprintf("duplicate table name: %s", t.Name))
		}
		seen[t.Name] = true
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv applies environment variable overrides.
// Environment variables use the PARTLOAD_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("PARTLOAD_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("PARTLOAD_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency = n
		}
	}
	if v := os.Getenv("PARTLOAD_STRICT_CONFORMANCE"); v != "" {
		cfg.StrictConformance = v == "true" || v == "1"
	}
	if v := os.Getenv("PARTLOAD_PARTITIONS"); v != "" {
		cfg.Partitions = PartitionSource(v)
	}
	if v := os.Getenv("PARTLOAD_MANIFEST_PATH"); v != "" {
		cfg.ManifestPath = v
	}

	// Storage configuration
	if v := os.Getenv("PARTLOAD_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("PARTLOAD_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("PARTLOAD_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("PARTLOAD_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("PARTLOAD_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("PARTLOAD_S3_USE_PATH_STYLE"); v != "" {
		cfg.Storage.S3.UsePathStyle = v == "true" || v == "1"
	}
}

// EnsureDirectories creates the local directories the configuration refers to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir, filepath.Dir(c.ManifestPath)}
	if c.Storage.Type == "local" {
		dirs = append(dirs, c.Storage.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
