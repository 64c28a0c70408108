package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	storeMemory = "memory"
	storeRedis  = "redis"
	statsNone   = "none"
)

// config é carregada dos defaults, depois de um arquivo YAML opcional e por fim das variáveis
// de ambiente. As chaves YAML são os nomes das variáveis em minúsculas.
type config struct {
	ListenAddr string `koanf:"listen_addr"`
	BasePath   string `koanf:"base_path"`

	Store         string        `koanf:"store"`
	SeedFile      string        `koanf:"seed_file"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	RedisPrefix   string        `koanf:"redis_prefix"`
	StoreTimeout  time.Duration `koanf:"store_timeout"`

	IdentitySecret    string        `koanf:"identity_secret"`
	ClientIPHeader    string        `koanf:"client_ip_header"`
	TrustProxyHeaders bool          `koanf:"trust_proxy_headers"`
	NonceSecret       string        `koanf:"nonce_secret"`
	NonceLifetime     time.Duration `koanf:"nonce_lifetime"`
	CookiePrefix      string        `koanf:"cookie_prefix"`
	BotSignatures     []string      `koanf:"bot_signatures"`
	RateLimitTTL      time.Duration `koanf:"rate_limit_ttl"`

	ThrottleEnabled    bool          `koanf:"throttle_enabled"`
	ThrottleRPS        float64       `koanf:"throttle_rps"`
	ThrottleBurst      int           `koanf:"throttle_burst"`
	RetryAfter         time.Duration `koanf:"retry_after"`
	AddHeaders         bool          `koanf:"add_ratelimit_headers"`
	ConcurrencyMax     int           `koanf:"concurrency_max"`
	ConcurrencyTimeout time.Duration `koanf:"concurrency_timeout"`

	RankCacheTTL  time.Duration `koanf:"rank_cache_ttl"`
	RankCacheSize int           `koanf:"rank_cache_size"`

	StatsBackend    string        `koanf:"stats_backend"`
	StatsPrefix     string        `koanf:"stats_prefix"`
	StatsBucket     string        `koanf:"stats_bucket"`
	StatsTTL        time.Duration `koanf:"stats_ttl"`
	StatsTrackItems bool          `koanf:"stats_track_items"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

func defaultConfig() config {
	return config{
		ListenAddr:        ":8080",
		RedisPrefix:       "viewcount",
		StoreTimeout:      2 * time.Second,
		ClientIPHeader:    "Client-IP",
		TrustProxyHeaders: true,
		NonceLifetime:     12 * time.Hour,
		CookiePrefix:      "viewcount_viewed_",
		RateLimitTTL:      30 * time.Minute,
		ThrottleEnabled:   false,
		ThrottleRPS:       2,
		ThrottleBurst:     10,
		RetryAfter:        1 * time.Second,
		ConcurrencyMax:    200,
		RankCacheSize:     256,
		StatsBackend:      statsNone,
		StatsPrefix:       "viewcount:stats",
		StatsBucket:       "minute",
		StatsTTL:          24 * time.Hour,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return config{}, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *config) {
	cfg.ListenAddr = getenvDefault("LISTEN_ADDR", cfg.ListenAddr)
	cfg.BasePath = getenvDefault("BASE_PATH", cfg.BasePath)

	cfg.RedisAddr = getenvDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getenvDefault("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getenvIntDefault("REDIS_DB", cfg.RedisDB)
	cfg.RedisPrefix = getenvDefault("REDIS_PREFIX", cfg.RedisPrefix)
	cfg.Store = strings.ToLower(getenvDefault("STORE", cfg.Store))
	if cfg.Store == "" {
		cfg.Store = storeMemory
		if strings.TrimSpace(cfg.RedisAddr) != "" {
			cfg.Store = storeRedis
		}
	}
	cfg.SeedFile = getenvDefault("SEED_FILE", cfg.SeedFile)
	cfg.StoreTimeout = getenvDurationDefault("STORE_TIMEOUT", cfg.StoreTimeout)

	cfg.IdentitySecret = getenvDefault("IDENTITY_SECRET", cfg.IdentitySecret)
	cfg.ClientIPHeader = getenvDefault("CLIENT_IP_HEADER", cfg.ClientIPHeader)
	cfg.TrustProxyHeaders = getenvBoolDefault("TRUST_PROXY_HEADERS", cfg.TrustProxyHeaders)
	cfg.NonceSecret = getenvDefault("NONCE_SECRET", cfg.NonceSecret)
	cfg.NonceLifetime = getenvDurationDefault("NONCE_LIFETIME", cfg.NonceLifetime)
	cfg.CookiePrefix = getenvDefault("COOKIE_PREFIX", cfg.CookiePrefix)
	if v := os.Getenv("BOT_SIGNATURES"); v != "" {
		cfg.BotSignatures = splitList(v)
	}
	cfg.RateLimitTTL = getenvDurationDefault("RATE_LIMIT_TTL", cfg.RateLimitTTL)

	cfg.ThrottleEnabled = getenvBoolDefault("THROTTLE_ENABLED", cfg.ThrottleEnabled)
	cfg.ThrottleRPS = getenvFloatDefault("THROTTLE_RPS", cfg.ThrottleRPS)
	cfg.ThrottleBurst = getenvIntDefault("THROTTLE_BURST", cfg.ThrottleBurst)
	cfg.RetryAfter = getenvDurationDefault("RETRY_AFTER", cfg.RetryAfter)
	cfg.AddHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", cfg.AddHeaders)
	cfg.ConcurrencyMax = getenvIntDefault("CONCURRENCY_MAX", cfg.ConcurrencyMax)
	cfg.ConcurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", cfg.ConcurrencyTimeout)

	cfg.RankCacheTTL = getenvDurationDefault("RANK_CACHE_TTL", cfg.RankCacheTTL)
	cfg.RankCacheSize = getenvIntDefault("RANK_CACHE_SIZE", cfg.RankCacheSize)

	cfg.StatsBackend = strings.ToLower(getenvDefault("STATS_BACKEND", cfg.StatsBackend))
	cfg.StatsPrefix = getenvDefault("STATS_PREFIX", cfg.StatsPrefix)
	cfg.StatsBucket = getenvDefault("STATS_BUCKET", cfg.StatsBucket)
	cfg.StatsTTL = getenvDurationDefault("STATS_TTL", cfg.StatsTTL)
	cfg.StatsTrackItems = getenvBoolDefault("STATS_TRACK_ITEMS", cfg.StatsTrackItems)

	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenvDefault("LOG_FORMAT", cfg.LogFormat)
}

func (c config) validate() error {
	switch c.Store {
	case storeMemory:
	case storeRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return errors.New("REDIS_ADDR is required when STORE=redis")
		}
	default:
		return fmt.Errorf("STORE must be %q or %q, got %q", storeMemory, storeRedis, c.Store)
	}

	switch c.StatsBackend {
	case statsNone, storeMemory:
	case storeRedis:
		if c.Store != storeRedis {
			return errors.New("STATS_BACKEND=redis requires STORE=redis")
		}
	default:
		return fmt.Errorf("STATS_BACKEND must be none, memory or redis, got %q", c.StatsBackend)
	}

	if c.ThrottleEnabled {
		if c.ThrottleRPS <= 0 {
			return errors.New("THROTTLE_RPS must be > 0")
		}
		if c.ThrottleBurst <= 0 {
			return errors.New("THROTTLE_BURST must be > 0")
		}
	}
	if c.ConcurrencyMax < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if c.RateLimitTTL <= 0 {
		return errors.New("RATE_LIMIT_TTL must be > 0")
	}
	if c.RankCacheTTL < 0 {
		return errors.New("RANK_CACHE_TTL must be >= 0")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
