package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reload runs the one-time Load first so it cannot overwrite what the test
// loads afterwards, then merges the given files.
func reload(t *testing.T, jsonBody, envBody string) {
	t.Helper()
	_ = Load()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json")
	envPath := filepath.Join(dir, ".env")
	if jsonBody != "" {
		require.NoError(t, os.WriteFile(jsonPath, []byte(jsonBody), 0o644))
	}
	if envBody != "" {
		require.NoError(t, os.WriteFile(envPath, []byte(envBody), 0o644))
	}
	require.NoError(t, loadFromFiles(jsonPath, envPath))
	t.Cleanup(func() { _ = loadFromFiles(jsonPath+".missing", envPath+".missing") })
}

func TestDefaults(t *testing.T) {
	reload(t, "", "")
	assert.Equal(t, defaultAPIBaseURL, APIBaseURL())
	assert.Equal(t, APIBaseURL(), OrdersBaseURL())
	assert.Equal(t, 15*time.Second, APITimeout())
	assert.Equal(t, 8, WriteConcurrency())
	assert.Equal(t, 300*time.Millisecond, DebounceWindow())
	assert.Equal(t, "none", CacheDriver())
	assert.Equal(t, 300, RateLimitPerMinute())
	assert.Equal(t, []string{"*"}, CORSOrigins())
	assert.Equal(t, int64(10<<20), MaxUploadBytes())
	assert.Zero(t, APIRateLimit())
}

func TestEnvFileOverridesJSON(t *testing.T) {
	reload(t,
		`{"api_base_url": "https://json.example.com/", "write_concurrency": 3, "cache_driver": "redis"}`,
		"# local overrides\nAPI_BASE_URL=\"https://env.example.com/\"\nDEBOUNCE_WINDOW=1s\n",
	)
	assert.Equal(t, "https://env.example.com", APIBaseURL())
	assert.Equal(t, 3, WriteConcurrency())
	assert.Equal(t, time.Second, DebounceWindow())
	assert.Equal(t, "redis", CacheDriver())
}

func TestProcessEnvWins(t *testing.T) {
	t.Setenv("WRITE_CONCURRENCY", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	reload(t, `{"write_concurrency": 5}`, "")
	assert.Equal(t, 2, WriteConcurrency())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, CORSOrigins())
}

func TestInvalidValuesFallBack(t *testing.T) {
	reload(t, "", "WRITE_CONCURRENCY=-1\nAPI_TIMEOUT=soon\nCACHE_DRIVER=memcached\nMAX_UPLOAD_BYTES=0\n")
	assert.Equal(t, defaultWriteConcurrency, WriteConcurrency())
	assert.Equal(t, defaultAPITimeout, APITimeout())
	assert.Equal(t, "none", CacheDriver())
	assert.Equal(t, int64(defaultMaxUploadBytes), MaxUploadBytes())
}

func TestMalformedJSON(t *testing.T) {
	_ = Load()
	path := filepath.Join(t.TempDir(), "app.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	assert.Error(t, loadFromFiles(path, path+".env"))
}
