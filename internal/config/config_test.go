package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iishyfishyy/medsearch/internal/textindex"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.Validate())
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, 1000, cfg.Search.MaxFeatures)
	assert.InDelta(t, 0.1, cfg.Search.MinSimilarity, 1e-12)
	assert.True(t, cfg.Extract.Enabled)
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	cfg := Default()
	cfg.Storage.Path = "/var/lib/medsearch/docs.db"
	cfg.Search.TopK = 8
	cfg.Extract.ClassifyType = false
	require.NoError(t, SaveFile(cfg, path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFileKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("search:\n  top_k: 3\n"), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Search.TopK)
	assert.Equal(t, textindex.DefaultMaxFeatures, cfg.Search.MaxFeatures)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
}

func TestLoadFileMissing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("search: [not a map"), 0644))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDBPath, "/tmp/override.db")
	t.Setenv(EnvStorage, "memory")
	t.Setenv(EnvTopK, "9")
	t.Setenv(EnvMaxFeatures, "250")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "/tmp/override.db", cfg.Storage.Path)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 9, cfg.Search.TopK)
	assert.Equal(t, 250, cfg.Search.MaxFeatures)
}

func TestApplyEnvInvalidNumber(t *testing.T) {
	t.Setenv(EnvTopK, "many")

	err := Default().ApplyEnv()
	assert.ErrorContains(t, err, EnvTopK)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.driver"},
		{"empty sqlite path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"zero top_k", func(c *Config) { c.Search.TopK = 0 }, "top_k"},
		{"negative max_features", func(c *Config) { c.Search.MaxFeatures = -1 }, "max_features"},
		{"min_similarity too high", func(c *Config) { c.Search.MinSimilarity = 1.5 }, "min_similarity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			warnings := cfg.Validate()
			found := false
			for _, w := range warnings {
				if strings.Contains(w, tt.want) {
					found = true
				}
			}
			assert.True(t, found, "expected warning mentioning %q, got %v", tt.want, warnings)
		})
	}
}

func TestIndexOptions(t *testing.T) {
	opts := SearchConfig{MaxFeatures: 50, MinSimilarity: 0.2}.IndexOptions()
	assert.Equal(t, 50, opts.MaxFeatures)
	assert.InDelta(t, 0.2, opts.MinSimilarity, 1e-12)
	assert.Equal(t, textindex.DefaultNgramMax, opts.NgramMax)

	fallback := SearchConfig{}.IndexOptions()
	assert.Equal(t, textindex.DefaultMaxFeatures, fallback.MaxFeatures)
	assert.InDelta(t, textindex.DefaultMinSimilarity, fallback.MinSimilarity, 1e-12)

	noCutoff := SearchConfig{MinSimilarity: -1}.IndexOptions()
	assert.InDelta(t, -1.0, noCutoff.MinSimilarity, 1e-12)
}

func TestValidateAcceptsDisabledCutoff(t *testing.T) {
	cfg := Default()
	cfg.Search.MinSimilarity = -1
	assert.Empty(t, cfg.Validate())
}

func TestSaveAndLoadDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ConfigDirName, ConfigFileName), path)

	exists, err := Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	missing, err := Load()
	require.NoError(t, err)
	assert.Nil(t, missing)

	cfg := Default()
	cfg.Search.TopK = 3
	require.NoError(t, Save(cfg))

	exists, err = Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, filepath.Join(home, ConfigDirName, DBFileName), loaded.Storage.Path)
}
