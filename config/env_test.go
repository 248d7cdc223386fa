package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

// clearEnv blanks keys the test reads so the host environment cannot leak in.
func clearEnv(t *testing.T, keys ...string) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadLayering(t *testing.T) {
	clearEnv(t, "APP_PORT", "SERVICE_NAME", "JWT_SECRET", "JWT_SECRET_KEY", "RATE_LIMIT_PER_MINUTE", "DB_DRIVER", "DATABASE_DSN", "DATABASE_URL")
	dir := t.TempDir()
	jsonPath := writeFile(t, dir, "app.json", `{
		"APP_PORT": "7000",
		"SERVICE_NAME": "from-json",
		"RATE_LIMIT_PER_MINUTE": 50,
		"db_driver": "postgresql"
	}`)
	envPath := writeFile(t, dir, ".env", `
# comment
export SERVICE_NAME="from-dotenv"
JWT_SECRET_KEY='s3cret'
not a pair
`)
	t.Setenv("APP_PORT", "9999")
	t.Setenv("PATH_LIKE_UNKNOWN", "ignored")

	cfg, err := Load(jsonPath, envPath)
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.AppPort())
	assert.Equal(t, "from-dotenv", cfg.ServiceName())
	assert.Equal(t, "s3cret", cfg.JWTSecret())
	assert.Equal(t, 50, cfg.RateLimitPerMinute())
	assert.Equal(t, "postgres", cfg.DatabaseDriver())
	assert.Equal(t, defaultPostgresDSN, cfg.DatabaseDSN())
	assert.Empty(t, cfg.Get("PATH_LIKE_UNKNOWN", ""))
}

func TestLoadSkipsMissingAndRejectsMalformed(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"), filepath.Join(dir, ".env"))
	require.NoError(t, err)

	bad := writeFile(t, dir, "bad.json", `{not json`)
	_, err = Load(bad)
	assert.ErrorContains(t, err, "decode")
}

func TestDefaults(t *testing.T) {
	cfg := FromMap(nil)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver())
	assert.Equal(t, defaultSQLiteDSN, cfg.DatabaseDSN())
	assert.Equal(t, "memory", cfg.CacheDriver())
	assert.Equal(t, "memory", cfg.QueueDriver())
	assert.Equal(t, 2, cfg.QueueWorkers())
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL())
	assert.Equal(t, 1, cfg.OrderConflictRetries())
	assert.EqualValues(t, 4<<20, cfg.MaxBodyBytes())
	assert.Nil(t, cfg.KafkaBrokers())
	assert.Equal(t, "marketplace.orders", cfg.KafkaTopic())
	assert.Empty(t, cfg.MailHost())
	assert.Equal(t, "587", cfg.MailPort())
	assert.Equal(t, 7*24*time.Hour, cfg.FailedJobRetention())
	assert.False(t, cfg.IsProduction())
}

func TestAccessorsNormalise(t *testing.T) {
	cfg := FromMap(map[string]string{
		"db_driver":              "oracle",
		"DATABASE_URL":           "file::memory:",
		"CACHE_DRIVER":           "Redis",
		"QUEUE_WORKERS":          "0",
		"JWT_TTL":                "not-a-duration",
		"ORDER_CONFLICT_RETRIES": "-3",
		"KAFKA_BROKERS":          " k1:9092, ,k2:9092 ",
		"APP_ENV":                "PROD",
		"FAILED_JOB_RETENTION":   "-1h",
	})

	assert.Equal(t, "sqlite", cfg.DatabaseDriver())
	assert.Equal(t, "file::memory:", cfg.DatabaseDSN())
	assert.Equal(t, "redis", cfg.CacheDriver())
	assert.Equal(t, 1, cfg.QueueWorkers())
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL())
	assert.Equal(t, 0, cfg.OrderConflictRetries())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 7*24*time.Hour, cfg.FailedJobRetention())
}

func TestGenericAccessors(t *testing.T) {
	cfg := FromMap(map[string]string{"n": "12", "d": "90s", "blank": "   "})

	assert.Equal(t, 12, cfg.Int("N", 0))
	assert.Equal(t, 5, cfg.Int("MISSING", 5))
	assert.Equal(t, 90*time.Second, cfg.Duration("d", time.Second))
	assert.Equal(t, "fallback", cfg.Get("blank", "fallback"))
	assert.Nil(t, cfg.CORSOrigins())
	assert.Nil(t, cfg.List("blank"))
}
