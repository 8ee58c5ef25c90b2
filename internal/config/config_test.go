package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/hirehub-backend/internal/config"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "config file path")
	flags.String("port", "", "listen port")
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 120000, cfg.PasswordIterations)
	assert.Equal(t, 30*24*time.Hour, cfg.LogRetention)
	assert.Equal(t, 4, cfg.EventWorkers)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hirehub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db:
  host: db.internal
  name: fromfile
jwt:
  secret: file-secret
port: "9000"
log:
  retention: 72h
`), 0o600))

	t.Run("file values apply", func(t *testing.T) {
		cfg, err := config.Load(newFlags(t, "--config", path))
		require.NoError(t, err)

		assert.Equal(t, "db.internal", cfg.DBHost)
		assert.Equal(t, "fromfile", cfg.DBName)
		assert.Equal(t, "file-secret", cfg.JWTSecret)
		assert.Equal(t, "9000", cfg.Port)
		assert.Equal(t, 72*time.Hour, cfg.LogRetention)
	})

	t.Run("flags override file", func(t *testing.T) {
		cfg, err := config.Load(newFlags(t, "--config", path, "--port", "9100"))
		require.NoError(t, err)
		assert.Equal(t, "9100", cfg.Port)
	})

	t.Run("env overrides everything", func(t *testing.T) {
		t.Setenv("DB_HOST", "env-host")
		t.Setenv("PORT", "9200")

		cfg, err := config.Load(newFlags(t, "--config", path, "--port", "9100"))
		require.NoError(t, err)
		assert.Equal(t, "env-host", cfg.DBHost)
		assert.Equal(t, "9200", cfg.Port)
	})
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &config.Config{EventWorkers: 1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DB_PASSWORD")

	cfg.JWTSecret = "s"
	cfg.DBPassword = "p"
	assert.NoError(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost: "h", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "disable",
	}
	assert.Equal(t, "host=h user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}
