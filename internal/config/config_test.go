package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	assert.Empty(t, cfg.AuthSecret)
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "SNAPSHOT_TTL_SECONDS", "REMOTE_TIMEOUT_SECONDS", "ACCESS_TOKEN_TTL_MINUTES", "TIMEZONE", "REDIS_DB", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, 30*time.Second, cfg.SnapshotTTL())
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeout())
	assert.Equal(t, 480*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SNAPSHOT_TTL_SECONDS", "5")
	t.Setenv("REMOTE_API_URL", " http://upstream:5000 ")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("AUTH_SECRET", "0123456789abcdef0123456789abcdef")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.Address())
	assert.Equal(t, 5*time.Second, cfg.SnapshotTTL())
	assert.Equal(t, "http://upstream:5000", cfg.RemoteAPIURL)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.AuthSecret)
}

func TestLoadFallsBackOnInvalidNumbers(t *testing.T) {
	t.Setenv("SNAPSHOT_TTL_SECONDS", "soon")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "-5")

	cfg := Load()
	assert.Equal(t, 30, cfg.SnapshotTTLSeconds)
	assert.Equal(t, 480, cfg.AccessTokenTTLMinutes)
}

func TestLocation(t *testing.T) {
	cfg := Config{Timezone: "UTC"}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = Config{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("INVOICEDESK_DOTENV_A=from-file\nINVOICEDESK_DOTENV_B=from-file\n"), 0o600))
	t.Setenv("INVOICEDESK_DOTENV_A", "from-env")
	t.Setenv("INVOICEDESK_DOTENV_B", "")
	require.NoError(t, os.Unsetenv("INVOICEDESK_DOTENV_B"))

	require.NoError(t, LoadDotEnv(file))
	t.Cleanup(func() { _ = os.Unsetenv("INVOICEDESK_DOTENV_B") })

	assert.Equal(t, "from-env", os.Getenv("INVOICEDESK_DOTENV_A"))
	assert.Equal(t, "from-file", os.Getenv("INVOICEDESK_DOTENV_B"))
	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
