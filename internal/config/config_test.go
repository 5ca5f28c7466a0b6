package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ponyfiction", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:1337", cfg.HTTPAddr())
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "files.cleanup", cfg.RabbitMQ.FileCleanupQueue)
	assert.True(t, cfg.IsDev())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[app]
port = 9000
env = "prod"

[database]
driver = "postgres"
host = "db"
port = 5432
user = "pony"
password = "secret"
db = "stories"

[storage]
driver = "minio"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "9100")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.App.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "minio", cfg.Storage.Driver)
	assert.True(t, cfg.Storage.MinIOUseSSL)
	assert.Equal(t, "postgres://pony:secret@db:5432/stories?sslmode=disable", cfg.DSN())
}

func TestMySQLDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.Password = "pw"

	assert.Equal(t, "root:pw@tcp(127.0.0.1:3306)/ponyfiction?parseTime=true&loc=Local&charset=utf8mb4", cfg.DSN())
}

func TestLoadRejectsUnknownDrivers(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	t.Run("database", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "oracle")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("storage", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "ftp")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("invalid int falls back", func(t *testing.T) {
		t.Setenv("APP_PORT", "not-a-number")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 1337, cfg.App.Port)
	})
}
