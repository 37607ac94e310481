package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Import.MaxAttempts)
	assert.Equal(t, time.Hour, cfg.Import.Timeout)
	assert.Equal(t, 24, cfg.JWT.ExpirationHours)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=hrdata sslmode=disable", cfg.Database.DSN())
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	content := "JWT_SECRET=" + testSecret + "\nIMPORT_WORKERS=5\nDB_DRIVER=sqlite\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	// godotenv выставляет переменные процесса, t.Setenv вернёт их после теста
	t.Setenv("JWT_SECRET", "")
	t.Setenv("IMPORT_WORKERS", "")
	t.Setenv("DB_DRIVER", "")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("IMPORT_WORKERS")
	os.Unsetenv("DB_DRIVER")

	cfg, err := Load(file, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Import.Workers)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	base, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"short secret", func(c *Config) { c.JWT.Secret = "short" }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"no workers", func(c *Config) { c.Import.Workers = 0 }},
		{"no attempts", func(c *Config) { c.Import.MaxAttempts = 0 }},
		{"no queue", func(c *Config) { c.Import.QueueSize = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, base.Validate())
}
