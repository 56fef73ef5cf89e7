package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nconklindev/stockboard/internal/errors"
	"github.com/nconklindev/stockboard/internal/inventory"
	"github.com/nconklindev/stockboard/internal/types"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"STOCKBOARD_NAMESPACE", "STOCKBOARD_DB_DRIVER", "STOCKBOARD_DB_DSN",
		"STOCKBOARD_CHART_DIR", "STOCKBOARD_BUCKETS_FILE", "STOCKBOARD_HTTP_ADDR",
		"STOCKBOARD_LOG_LEVEL", "STOCKBOARD_LOG_FILE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Finalize())

	assert.Equal(t, "wika", cfg.Namespace)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "stockboard.db", cfg.Database.DSN)
	assert.Equal(t, "charts", cfg.ChartDir)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, inventory.DefaultBuckets(), cfg.Buckets)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("STOCKBOARD_BUCKETS_FILE", "")
	// godotenv never overrides a variable that is set, even to "".
	t.Setenv("STOCKBOARD_NAMESPACE", "")
	require.NoError(t, os.Unsetenv("STOCKBOARD_NAMESPACE"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STOCKBOARD_NAMESPACE=gudang\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gudang", cfg.Namespace)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOCKBOARD_DB_DRIVER", "mysql")
	t.Setenv("STOCKBOARD_BUCKETS_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(cfg.Finalize()))
}

func TestFinalize_OverrideFixesEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOCKBOARD_DB_DRIVER", "mysql")
	t.Setenv("STOCKBOARD_BUCKETS_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	cfg.Database.Driver = "sqlite"

	require.NoError(t, cfg.Finalize())
	assert.Equal(t, inventory.DefaultBuckets(), cfg.Buckets)
}

func TestLoadBuckets_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buckets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
buckets:
  - key: slow
    title: Slow Moving
    keywords: ["lambat", "macet"]
    charts:
      - field: sbu
        kind: bar
        mode: count
  - key: site
`), 0o644))

	defs, err := LoadBuckets(path)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, types.BucketDef{
		Key:      "slow",
		Title:    "Slow Moving",
		Keywords: []string{"lambat", "macet"},
		Charts:   []types.ChartDef{{Field: "sbu", Kind: types.ChartBar, Mode: types.ModeCount}},
	}, defs[0])
	assert.Equal(t, "site", defs[1].Title)
	assert.Equal(t, inventory.DefaultCharts(), defs[1].Charts)
}

func TestLoadBuckets_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("buckets: [oops"), 0o644))

	_, err := LoadBuckets(bad)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	_, err = LoadBuckets(filepath.Join(dir, "missing.yaml"))
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestValidate_BadBuckets(t *testing.T) {
	cfg := &Config{
		Namespace: "wika",
		Database:  DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
		Buckets:   []types.BucketDef{{Key: "ok"}, {Key: "ok"}},
	}
	err := cfg.Validate()
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
