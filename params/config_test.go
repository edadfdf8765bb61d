package params

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.Equal(t, 5*time.Second, cfg.Notify.TTL)
	assert.Equal(t, 5, cfg.Notify.Capacity)
	assert.Equal(t, "uuid", cfg.IDMode)
	assert.False(t, cfg.Feed.Enabled)
	assert.Equal(t, "calm", cfg.Feed.Profile)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("API_ADDR", ":9999")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("NOTIFY_TTL_MS", "250")
	t.Setenv("NOTIFY_CAP", "3")
	t.Setenv("ENABLE_FEED", "true")
	t.Setenv("FEED_INTERVAL_MS", "100")
	t.Setenv("FEED_SEED", "42")
	t.Setenv("FEED_PROFILE", "volatile")
	t.Setenv("ID_MODE", "counter")

	cfg := LoadFromEnv(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, ":9999", cfg.API.Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.API.CORSOrigins)
	assert.Equal(t, 250*time.Millisecond, cfg.Notify.TTL)
	assert.Equal(t, 3, cfg.Notify.Capacity)
	assert.True(t, cfg.Feed.Enabled)
	assert.Equal(t, 100*time.Millisecond, cfg.Feed.Interval)
	assert.Equal(t, int64(42), cfg.Feed.Seed)
	assert.Equal(t, "volatile", cfg.Feed.Profile)
	assert.Equal(t, "counter", cfg.IDMode)
}

func TestLoadFromEnvIgnoresBadValues(t *testing.T) {
	t.Setenv("NOTIFY_TTL_MS", "soon")
	t.Setenv("NOTIFY_CAP", "-1")
	t.Setenv("ID_MODE", "sequential")
	t.Setenv("FEED_PROFILE", "wild")

	cfg := LoadFromEnv(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, "calm", cfg.Feed.Profile)
	assert.Equal(t, 5*time.Second, cfg.Notify.TTL)
	assert.Equal(t, 5, cfg.Notify.Capacity)
	assert.Equal(t, "uuid", cfg.IDMode)
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LINTEX_TEST_LEVEL_UNUSED=1\nSESSION_DB=/tmp/lintex-session\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("SESSION_DB")
		os.Unsetenv("LINTEX_TEST_LEVEL_UNUSED")
	})

	cfg := LoadFromEnv(path)
	assert.Equal(t, "/tmp/lintex-session", cfg.Storage.SessionDB)
}
