package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/iishyfishyy/medsearch/internal/textindex"
)

const (
	ConfigDirName  = ".medsearch"
	ConfigFileName = "config.yaml"
	DBFileName     = "documents.db"
)

// Environment variables that override the config file
const (
	EnvDBPath      = "MEDSEARCH_DB_PATH"
	EnvStorage     = "MEDSEARCH_STORAGE"
	EnvTopK        = "MEDSEARCH_TOP_K"
	EnvMaxFeatures = "MEDSEARCH_MAX_FEATURES"
)

// StorageDriver selects the document store implementation
type StorageDriver string

const (
	StorageSQLite StorageDriver = "sqlite"
	StorageMemory StorageDriver = "memory"
)

// Config represents the application configuration
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	Extract ExtractConfig `yaml:"extract"`
}

// StorageConfig configures where documents live
type StorageConfig struct {
	Driver StorageDriver `yaml:"driver"`
	Path   string        `yaml:"path"`
}

// SearchConfig configures vectorization and ranking. A min_similarity of 0
// means the default cutoff; a negative one turns the cutoff off.
type SearchConfig struct {
	TopK          int     `yaml:"top_k"`
	MaxFeatures   int     `yaml:"max_features"`
	MinSimilarity float64 `yaml:"min_similarity"`
}

// ExtractConfig configures pattern-based hints on ingest
type ExtractConfig struct {
	Enabled      bool `yaml:"enabled"`
	ClassifyType bool `yaml:"classify_type"`
}

// IndexOptions converts the search settings for the similarity index
func (s SearchConfig) IndexOptions() textindex.Options {
	opts := textindex.DefaultOptions()
	if s.MaxFeatures > 0 {
		opts.MaxFeatures = s.MaxFeatures
	}
	if s.MinSimilarity != 0 {
		opts.MinSimilarity = s.MinSimilarity
	}
	return opts
}

// Default returns the configuration used when no file exists
func Default() *Config {
	dbPath := DBFileName
	if dir, err := GetConfigDir(); err == nil {
		dbPath = filepath.Join(dir, DBFileName)
	}

	return &Config{
		Storage: StorageConfig{
			Driver: StorageSQLite,
			Path:   dbPath,
		},
		Search: SearchConfig{
			TopK:          textindex.DefaultTopK,
			MaxFeatures:   textindex.DefaultMaxFeatures,
			MinSimilarity: textindex.DefaultMinSimilarity,
		},
		Extract: ExtractConfig{
			Enabled:      true,
			ClassifyType: true,
		},
	}
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ConfigDirName), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// Load reads the configuration from the default path
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

// LoadFile reads the configuration from path. Missing fields keep their
// defaults. If the file doesn't exist, it returns nil (not an error).
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the default path
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(cfg, configPath)
}

// SaveFile writes the configuration to path
func SaveFile(cfg *Config, path string) error {
	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists checks if a configuration file exists
func Exists() (bool, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// ApplyEnv overrides fields from environment variables
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(EnvStorage); v != "" {
		c.Storage.Driver = StorageDriver(v)
	}
	if v := os.Getenv(EnvTopK); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTopK, err)
		}
		c.Search.TopK = n
	}
	if v := os.Getenv(EnvMaxFeatures); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxFeatures, err)
		}
		c.Search.MaxFeatures = n
	}
	return nil
}

// Validate returns a warning for every setting that will be ignored or
// replaced by a default
func (c *Config) Validate() []string {
	var warnings []string

	switch c.Storage.Driver {
	case StorageSQLite:
		if c.Storage.Path == "" {
			warnings = append(warnings, "storage.path is empty; sqlite storage needs a database path")
		}
	case StorageMemory:
	default:
		warnings = append(warnings, fmt.Sprintf("storage.driver %q is not supported (use sqlite or memory)", c.Storage.Driver))
	}

	if c.Search.TopK <= 0 {
		warnings = append(warnings, fmt.Sprintf("search.top_k must be positive (got %d); default %d is used", c.Search.TopK, textindex.DefaultTopK))
	}
	if c.Search.MaxFeatures <= 0 {
		warnings = append(warnings, fmt.Sprintf("search.max_features must be positive (got %d); default %d is used", c.Search.MaxFeatures, textindex.DefaultMaxFeatures))
	}
	if c.Search.MinSimilarity >= 1 {
		warnings = append(warnings, fmt.Sprintf("search.min_similarity must be below 1 (got %.2f); no document can match", c.Search.MinSimilarity))
	}

	return warnings
}
