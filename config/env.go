package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultAPIBaseURL       = "https://back-texnotech.onrender.com"
	defaultAPITimeout       = 15 * time.Second
	defaultWriteConcurrency = 8
	defaultDebounceWindow   = 300 * time.Millisecond
	defaultSchemaCacheTTL   = 5 * time.Minute
	defaultCacheDriver      = "none"
	defaultRedisAddr        = "localhost:6379"
	defaultAppPort          = "8080"
	defaultAppEnv           = "local"
	defaultAuditDB          = "storeadmin"
	defaultAuditCollection  = "audit_log"
	defaultRateLimit        = 300
	defaultMaxUploadBytes   = 10 << 20
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load merges config/app.json and .env over the built-in defaults.
// Process environment variables win over both files.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"API_BASE_URL":      defaultAPIBaseURL,
		"API_TOKEN":         "",
		"API_TIMEOUT":       defaultAPITimeout.String(),
		"WRITE_CONCURRENCY": strconv.Itoa(defaultWriteConcurrency),
		"DEBOUNCE_WINDOW":   defaultDebounceWindow.String(),
		"CACHE_DRIVER":      defaultCacheDriver,
		"SCHEMA_CACHE_TTL":  defaultSchemaCacheTTL.String(),
		"REDIS_ADDR":        defaultRedisAddr,
		"REDIS_PASSWORD":    "",
		"APP_PORT":          defaultAppPort,
		"APP_ENV":           defaultAppEnv,
	}
}

// ── Remote API ───────────────────────────────────────────────────────────────

// APIBaseURL is the root of the catalog/order REST API, without a trailing slash.
func APIBaseURL() string {
	_ = Load()
	return strings.TrimRight(get("API_BASE_URL", defaultAPIBaseURL), "/")
}

// OrdersBaseURL is the root of the orders API. The storefront serves orders
// from its own host; defaults to APIBaseURL when unset.
func OrdersBaseURL() string {
	_ = Load()
	if v := get("ORDERS_API_BASE_URL", ""); v != "" {
		return strings.TrimRight(v, "/")
	}
	return APIBaseURL()
}

// APIToken is sent as a bearer token when non-empty.
func APIToken() string {
	_ = Load()
	return get("API_TOKEN", "")
}

// APITimeout bounds every single remote call.
func APITimeout() time.Duration {
	_ = Load()
	return duration("API_TIMEOUT", defaultAPITimeout)
}

// WriteConcurrency caps how many specification writes run at once.
func WriteConcurrency() int {
	_ = Load()
	n, err := strconv.Atoi(get("WRITE_CONCURRENCY", ""))
	if err != nil || n <= 0 {
		return defaultWriteConcurrency
	}
	return n
}

// DebounceWindow is the quiet period before a field edit is committed.
func DebounceWindow() time.Duration {
	_ = Load()
	return duration("DEBOUNCE_WINDOW", defaultDebounceWindow)
}

// APIRateLimit caps outgoing calls per second; 0 means unlimited.
func APIRateLimit() float64 {
	_ = Load()
	f, err := strconv.ParseFloat(get("API_RATE_LIMIT", "0"), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

// ── Cache ────────────────────────────────────────────────────────────────────

// CacheDriver is "redis" or "none".
func CacheDriver() string {
	_ = Load()
	switch d := strings.ToLower(get("CACHE_DRIVER", defaultCacheDriver)); d {
	case "redis", "none":
		return d
	default:
		return defaultCacheDriver
	}
}

func SchemaCacheTTL() time.Duration {
	_ = Load()
	return duration("SCHEMA_CACHE_TTL", defaultSchemaCacheTTL)
}

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

// ── App ──────────────────────────────────────────────────────────────────────

func AppPort() string {
	_ = Load()
	return get("APP_PORT", defaultAppPort)
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

// RateLimitPerMinute caps dashboard requests per client IP; 0 disables it.
func RateLimitPerMinute() int {
	_ = Load()
	n, err := strconv.Atoi(get("RATE_LIMIT_PER_MINUTE", strconv.Itoa(defaultRateLimit)))
	if err != nil || n < 0 {
		return defaultRateLimit
	}
	return n
}

// CORSOrigins lists the dashboard origins allowed to call the API.
func CORSOrigins() []string {
	_ = Load()
	var out []string
	for _, o := range strings.Split(get("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// MaxUploadBytes caps one uploaded image.
func MaxUploadBytes() int64 {
	_ = Load()
	n, err := strconv.ParseInt(get("MAX_UPLOAD_BYTES", ""), 10, 64)
	if err != nil || n <= 0 {
		return defaultMaxUploadBytes
	}
	return n
}

// ── Audit log ────────────────────────────────────────────────────────────────

func AuditMongoURI() string { _ = Load(); return get("AUDIT_MONGO_URI", "") }
func AuditMongoDB() string  { _ = Load(); return get("AUDIT_MONGO_DB", defaultAuditDB) }

func AuditMongoCollection() string {
	_ = Load()
	return get("AUDIT_MONGO_COLLECTION", defaultAuditCollection)
}

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDefault() string {
	_ = Load()
	return get("STORAGE_DISK", "local")
}

func StorageLocalRoot() string {
	_ = Load()
	return get("STORAGE_LOCAL_ROOT", ".")
}

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mergeProcessEnv(loaded)

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		var s string
		switch v := val.(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(v)
		default:
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

func mergeProcessEnv(out map[string]string) {
	for key := range defaultValues() {
		if v, ok := os.LookupEnv(key); ok {
			out[key] = strings.TrimSpace(v)
		}
	}
	for _, key := range []string{
		"AUDIT_MONGO_URI", "AUDIT_MONGO_DB", "AUDIT_MONGO_COLLECTION",
		"STORAGE_DISK", "STORAGE_LOCAL_ROOT",
		"S3_BUCKET", "S3_REGION", "S3_KEY", "S3_SECRET", "S3_ENDPOINT",
		"ORDERS_API_BASE_URL", "API_RATE_LIMIT", "RATE_LIMIT_PER_MINUTE",
		"CORS_ALLOWED_ORIGINS", "MAX_UPLOAD_BYTES", "MAX_BODY_BYTES",
	} {
		if v, ok := os.LookupEnv(key); ok {
			out[key] = strings.TrimSpace(v)
		}
	}
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

func duration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(get(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Get reads any config key by name with an optional fallback.
// Keys from .env and app.json are available after config.Load().
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// Set overrides a key at runtime. CLI flags use it to win over files.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}
