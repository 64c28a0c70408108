package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"time"

	"view-counter/viewcount"
	"view-counter/viewcount/application"
	"view-counter/viewcount/domain"
	"view-counter/viewcount/infra"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const secretByteLength = 32

var randomRead = rand.Read

func generateRandomHex(byteLength int) (string, error) {
	buf := make([]byte, byteLength)
	if _, err := randomRead(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

type viewStore interface {
	domain.CounterStore
	domain.MarkStore
}

type itemStore interface {
	domain.ItemStore
	domain.ItemWriter
}

// stores agrupa tudo que depende do storage configurado.
type stores struct {
	items itemStore
	views viewStore
	stats domain.StatsStore

	// janitors rodam até o contexto do serve acabar (só no store em memória).
	janitors []func(context.Context)
	close    func() error
}

func openStores(ctx context.Context, cfg config) (*stores, error) {
	st := &stores{close: func() error { return nil }}

	switch cfg.Store {
	case storeRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		st.close = rdb.Close
		st.items = infra.NewRedisItemStore(rdb, infra.WithKeyPrefix(cfg.RedisPrefix))
		st.views = infra.NewRedisViewStore(rdb, infra.WithKeyPrefix(cfg.RedisPrefix))
		if cfg.StatsBackend == storeRedis {
			st.stats = infra.NewRedisStatsStore(rdb,
				infra.WithStatsPrefix(cfg.StatsPrefix),
				infra.WithStatsTTL(cfg.StatsTTL),
				infra.WithStatsBucket(cfg.StatsBucket),
				infra.WithStatsTrackItems(cfg.StatsTrackItems),
			)
		}
	default:
		views := infra.NewMemoryViewStore()
		st.items = infra.NewMemoryCatalog()
		st.views = views
		st.janitors = append(st.janitors, views.StartJanitor)
	}

	if cfg.StatsBackend == storeMemory {
		st.stats = infra.NewMemoryStatsStore(infra.WithTrackItems(cfg.StatsTrackItems))
	}
	return st, nil
}

// seedFromFile carrega um arquivo de seed YAML nos stores.
func seedFromFile(ctx context.Context, st *stores, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	items, err := infra.DecodeSeed(f)
	if err != nil {
		return 0, err
	}
	return infra.Seed(ctx, st.items, st.views, items)
}

// secretOrRandom retorna o segredo configurado, ou um aleatório por processo.
func secretOrRandom(log *zap.Logger, name, value string) ([]byte, error) {
	if value != "" {
		return []byte(value), nil
	}
	v, err := generateRandomHex(secretByteLength)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", name, err)
	}
	log.Warn("secret not configured, using a random per-process value", zap.String("name", name))
	return []byte(v), nil
}

// newThrottle retorna nil se THROTTLE_ENABLED não estiver ligado. Uma chamada a /track
// barrada pelo throttle responde 429 em vez de um resultado de tracking.
func newThrottle(cfg config) *infra.ThrottleStore {
	if !cfg.ThrottleEnabled {
		return nil
	}
	return infra.NewThrottleStore(cfg.ThrottleRPS, cfg.ThrottleBurst)
}

// newHandler é a composition root: monta cada componente uma vez e
// retorna o handler HTTP com a cadeia de middlewares.
func newHandler(cfg config, log *zap.Logger, st *stores, throttle *infra.ThrottleStore) (http.Handler, error) {
	identitySecret, err := secretOrRandom(log, "IDENTITY_SECRET", cfg.IdentitySecret)
	if err != nil {
		return nil, err
	}
	nonceSecret, err := secretOrRandom(log, "NONCE_SECRET", cfg.NonceSecret)
	if err != nil {
		return nil, err
	}
	nonces, err := infra.NewNonceSigner(nonceSecret, cfg.NonceLifetime)
	if err != nil {
		return nil, err
	}

	resolver := viewcount.IdentityResolver{
		Secret:             identitySecret,
		ClientHeader:       cfg.ClientIPHeader,
		IgnoreProxyHeaders: !cfg.TrustProxyHeaders,
	}

	var ranker application.RankService = application.Ranker{Items: st.items, Counts: st.views}
	if cfg.RankCacheTTL > 0 {
		cached := application.NewCachedRanker(ranker, cfg.RankCacheSize, cfg.RankCacheTTL)
		cached.FlightTimeout = cfg.StoreTimeout
		ranker = cached
	}

	h := &viewcount.Handler{
		Tracker: application.Tracker{
			Tokens:       nonces,
			Items:        st.items,
			Marks:        st.views,
			Bots:         application.NewBotFilter(cfg.BotSignatures...),
			RateLimitTTL: cfg.RateLimitTTL,
			Timeout:      cfg.StoreTimeout,
		},
		Ranker:       ranker,
		Items:        st.items,
		Counts:       st.views,
		Nonces:       nonces,
		Resolver:     resolver,
		StatsStore:   st.stats,
		Logger:       log,
		CookiePrefix: cfg.CookiePrefix,
		Timeout:      cfg.StoreTimeout,
	}

	var trackMW []viewcount.Middleware
	if throttle != nil {
		trackMW = append(trackMW, viewcount.Throttle(viewcount.ThrottleOptions{
			Store:               throttle,
			Resolver:            resolver,
			RetryAfter:          cfg.RetryAfter,
			AddRateLimitHeaders: cfg.AddHeaders,
		}))
	}

	mux := viewcount.NewMux(h.Routes(cfg.BasePath, trackMW...))
	return viewcount.Chain(mux,
		viewcount.RequestLogger(log),
		viewcount.ConcurrencyMiddleware(viewcount.ConcurrencyOptions{
			Max:            cfg.ConcurrencyMax,
			AcquireTimeout: cfg.ConcurrencyTimeout,
			Logger:         log,
		}),
	), nil
}

func serve(ctx context.Context, cfg config, log *zap.Logger) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	if cfg.SeedFile != "" {
		n, err := seedFromFile(ctx, st, cfg.SeedFile)
		if err != nil {
			return err
		}
		log.Info("seeded items", zap.Int("items", n), zap.String("file", cfg.SeedFile))
	}

	throttle := newThrottle(cfg)
	if throttle != nil {
		throttle.StartJanitor(ctx)
	}
	for _, start := range st.janitors {
		start(ctx)
	}

	h, err := newHandler(cfg, log, st, throttle)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("view counter listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("base_path", cfg.BasePath),
		zap.String("store", cfg.Store),
		zap.String("stats", cfg.StatsBackend),
		zap.Bool("throttle", cfg.ThrottleEnabled),
		zap.Float64("throttle_rps", cfg.ThrottleRPS),
		zap.Int("throttle_burst", cfg.ThrottleBurst),
		zap.Int("concurrency_max", cfg.ConcurrencyMax),
		zap.Duration("rank_cache_ttl", cfg.RankCacheTTL),
	)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
