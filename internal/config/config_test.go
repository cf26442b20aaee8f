package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Setenv(EnvDBPath, "")
	t.Setenv(EnvDriveID, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "driveindex.db", cfg.Index.DBPath)
	assert.Equal(t, 100, cfg.Sync.BatchSize)
	assert.Equal(t, 4, cfg.Sync.Workers)
	assert.Equal(t, 500, cfg.Chunker.Size)
	assert.Equal(t, 50, cfg.Chunker.Overlap)
	assert.Equal(t, 10, cfg.Search.CandidateLimit)
	assert.Equal(t, 5, cfg.Search.ResultLimit)
	assert.InDelta(t, 0.7, cfg.Search.VectorWeight, 1e-9)
	assert.InDelta(t, 0.3, cfg.Search.BM25Weight, 1e-9)
	assert.Equal(t, EnvGraphToken, cfg.Store.TokenEnv)
}

func TestLoad_YAMLValues(t *testing.T) {
	t.Setenv(EnvDBPath, "")
	t.Setenv(EnvDriveID, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  drive_id: drive-42
index:
  db_path: /var/lib/driveindex/index.db
sync:
  batch_size: 25
  workers: 8
chunker:
  size: 1000
  overlap: 100
search:
  result_limit: 3
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "drive-42", cfg.Store.DriveID)
	assert.Equal(t, "/var/lib/driveindex/index.db", cfg.Index.DBPath)
	assert.Equal(t, 25, cfg.Sync.BatchSize)
	assert.Equal(t, 8, cfg.Sync.Workers)
	assert.Equal(t, 1000, cfg.Chunker.Size)
	assert.Equal(t, 100, cfg.Chunker.Overlap)
	assert.Equal(t, 3, cfg.Search.ResultLimit)
	// Unset values still get defaults.
	assert.Equal(t, 10, cfg.Search.CandidateLimit)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  drive_id: from-file
index:
  db_path: file.db
`), 0o644))

	t.Setenv(EnvDriveID, "from-env")
	t.Setenv(EnvDBPath, "env.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Store.DriveID)
	assert.Equal(t, "env.db", cfg.Index.DBPath)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	assert.Error(t, cfg.Validate())

	cfg.Store.DriveID = "drive-1"
	assert.NoError(t, cfg.Validate())
}

func TestToken(t *testing.T) {
	cfg := &Config{Store: StoreConfig{TokenEnv: "TEST_TOKEN_VAR"}}
	t.Setenv("TEST_TOKEN_VAR", "secret")
	assert.Equal(t, "secret", cfg.Token())
}

func TestInvalidOverlapFallsBack(t *testing.T) {
	cfg := &Config{Chunker: ChunkerConfig{Size: 100, Overlap: 100}}
	applyDefaults(cfg)
	assert.Equal(t, 50, cfg.Chunker.Overlap)

	// A size below the fallback overlap still ends up with overlap < size.
	cfg = &Config{Chunker: ChunkerConfig{Size: 30, Overlap: 40}}
	applyDefaults(cfg)
	assert.Equal(t, 3, cfg.Chunker.Overlap)
	assert.Less(t, cfg.Chunker.Overlap, cfg.Chunker.Size)
}
