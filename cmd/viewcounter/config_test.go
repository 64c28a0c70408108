package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, storeMemory, cfg.Store)
	assert.Equal(t, 30*time.Minute, cfg.RateLimitTTL)
	assert.Equal(t, "viewcount_viewed_", cfg.CookiePrefix)
	assert.False(t, cfg.ThrottleEnabled)
	assert.Equal(t, statsNone, cfg.StatsBackend)
}

func TestLoadConfig_RedisAddrSelectsRedis(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, storeRedis, cfg.Store)

	t.Setenv("STORE", "memory")
	cfg, err = loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, storeMemory, cfg.Store)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := writeFile(t, "viewcounter.yaml", `
listen_addr: ":9090"
base_path: /wp-json/iblmemorare/v1
rate_limit_ttl: 10m
bot_signatures: [uptime, pingdom]
throttle_rps: 5
stats_backend: memory
`)
	t.Setenv("LISTEN_ADDR", ":7070")
	t.Setenv("THROTTLE_BURST", "3")

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.ListenAddr, "env overrides the file")
	assert.Equal(t, "/wp-json/iblmemorare/v1", cfg.BasePath)
	assert.Equal(t, 10*time.Minute, cfg.RateLimitTTL)
	assert.Equal(t, []string{"uptime", "pingdom"}, cfg.BotSignatures)
	assert.Equal(t, 5.0, cfg.ThrottleRPS)
	assert.Equal(t, 3, cfg.ThrottleBurst)
	assert.Equal(t, storeMemory, cfg.StatsBackend)
	assert.Equal(t, 12*time.Hour, cfg.NonceLifetime, "unset keys keep defaults")
}

func TestLoadConfig_EnvLists(t *testing.T) {
	t.Setenv("BOT_SIGNATURES", " uptime , ,pingdom")
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, []string{"uptime", "pingdom"}, cfg.BotSignatures)
}

func TestLoadConfig_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_TTL", "soon")
	t.Setenv("THROTTLE_ENABLED", "maybe")
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.RateLimitTTL)
	assert.False(t, cfg.ThrottleEnabled)
}

func TestLoadConfig_Validation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"redis without address", map[string]string{"STORE": "redis"}},
		{"unknown store", map[string]string{"STORE": "etcd"}},
		{"redis stats on memory", map[string]string{"STATS_BACKEND": "redis"}},
		{"unknown stats", map[string]string{"STATS_BACKEND": "prometheus"}},
		{"zero rps", map[string]string{"THROTTLE_ENABLED": "true", "THROTTLE_RPS": "0"}},
		{"zero burst", map[string]string{"THROTTLE_ENABLED": "true", "THROTTLE_BURST": "0"}},
		{"negative concurrency", map[string]string{"CONCURRENCY_MAX": "-1"}},
		{"zero rate limit ttl", map[string]string{"RATE_LIMIT_TTL": "0s"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for k, v := range c.env {
				t.Setenv(k, v)
			}
			_, err := loadConfig("")
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_ThrottleDisabledSkipsItsChecks(t *testing.T) {
	t.Setenv("THROTTLE_ENABLED", "false")
	t.Setenv("THROTTLE_RPS", "0")
	_, err := loadConfig("")
	assert.NoError(t, err)
}

func TestLoadConfig_BadFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, "bad.yaml", "listen_addr: [unclosed\n")
	_, err = loadConfig(path)
	assert.Error(t, err)
}
