package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/instantqr/qrgen"
	"github.com/openclaw/instantqr/store"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8555, cfg.Port)
	assert.Equal(t, store.BackendMemory, cfg.History.Backend)
	assert.Equal(t, 100, cfg.History.Max)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout.Duration)
	assert.Equal(t, 20, cfg.Defaults.LogoPercent)
	assert.Equal(t, qrgen.DefaultOptions(), cfg.Defaults.QR)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", `
port: 9000
log_level: debug
request_timeout: 15s
history:
  backend: sqlite
  max: 25
batch:
  workers: 2
defaults:
  logo_percent: 25
  qr:
    level: q
    mask: 3
    dark: "#102030"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout.Duration)
	assert.Equal(t, store.BackendSQLite, cfg.History.Backend)
	assert.Equal(t, 25, cfg.History.Max)
	assert.Equal(t, 2, cfg.Batch.Workers)
	assert.Equal(t, 1000, cfg.Batch.MaxValues)
	assert.Equal(t, 25, cfg.Defaults.LogoPercent)
	assert.Equal(t, qrgen.Q, cfg.Defaults.QR.Level)
	assert.Equal(t, qrgen.Fixed(3), cfg.Defaults.QR.Mask)
	assert.Equal(t, "#102030", cfg.Defaults.QR.Dark.Hex())
	assert.Equal(t, 6, cfg.Defaults.QR.Scale)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", "port: 9000\n")

	t.Setenv("IQR_PORT", "9100")
	t.Setenv("IQR_DATA_DIR", "/tmp/iqr")
	t.Setenv("IQR_LOG_LEVEL", "WARN")
	t.Setenv("IQR_HISTORY_BACKEND", "SQLite")
	t.Setenv("IQR_HISTORY_MAX", "7")
	t.Setenv("IQR_BATCH_WORKERS", "8")
	t.Setenv("IQR_REQUEST_TIMEOUT", "2m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "/tmp/iqr", cfg.DataDir)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, store.BackendSQLite, cfg.History.Backend)
	assert.Equal(t, 7, cfg.History.Max)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, 2*time.Minute, cfg.RequestTimeout.Duration)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".env", "IQR_HISTORY_MAX=42\nIQR_PORT=9200\n")
	t.Setenv("IQR_PORT", "9300")
	// t.Setenv restores the variable that godotenv sets below.
	t.Setenv("IQR_HISTORY_MAX", "")
	os.Unsetenv("IQR_HISTORY_MAX")

	cfg, err := Load(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.History.Max)
	assert.Equal(t, 9300, cfg.Port, "existing environment wins over .env")
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad yaml", yaml: "port: [\n"},
		{name: "bad duration", yaml: "request_timeout: soon\n"},
		{name: "port range", yaml: "port: 70000\n"},
		{name: "backend", yaml: "history:\n  backend: redis\n"},
		{name: "history max", yaml: "history:\n  max: 0\n"},
		{name: "workers", yaml: "batch:\n  workers: 0\n"},
		{name: "log level", yaml: "log_level: loud\n"},
		{name: "logo percent", yaml: "defaults:\n  logo_percent: 50\n"},
		{name: "qr defaults", yaml: "defaults:\n  qr:\n    scale: 0\n"},
		{name: "env int", env: map[string]string{"IQR_PORT": "eighty"}},
		{name: "env duration", env: map[string]string{"IQR_REQUEST_TIMEOUT": "later"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeFile(t, dir, "config.yaml", tt.yaml)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestEnsureDataDir(t *testing.T) {
	cfg := Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "nested", "data")

	require.NoError(t, cfg.EnsureDataDir())
	assert.NoDirExists(t, cfg.DataDir, "memory history needs no directory")

	cfg.History.Backend = store.BackendSQLite
	require.NoError(t, cfg.EnsureDataDir())
	assert.DirExists(t, cfg.DataDir)
}
