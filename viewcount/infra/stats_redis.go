package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"view-counter/viewcount/domain"

	"github.com/redis/go-redis/v9"
)

// bucketLayouts são as granularidades de bucket de tempo suportadas.
var bucketLayouts = map[string]string{
	"minute": "200601021504",
	"hour":   "2006010215",
}

// RedisStatsStore conta outcomes de tracking em hashes Redis, campo = label do evento:
//
//	<prefix>:total          acumulado, nunca expira
//	<prefix>:<bucket>:<ts>  um hash por minuto ou hora, expira após ttl
//	<prefix>:item:<id>      por item (opcional), expira após ttl
type RedisStatsStore struct {
	rdb        redis.UniversalClient
	prefix     string
	ttl        time.Duration
	bucket     string
	trackItems bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		if p := strings.Trim(prefix, ": "); p != "" {
			s.prefix = p
		}
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

// WithStatsBucket escolhe "minute", "hour" ou "none". Valores desconhecidos desligam os buckets.
func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackItems(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackItems = track }
}

func NewRedisStatsStore(rdb redis.UniversalClient, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "viewcount:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) totalKey() string { return s.prefix + ":total" }

func (s *RedisStatsStore) itemKey(id domain.ItemID) string {
	return fmt.Sprintf("%s:item:%d", s.prefix, id)
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.TrackEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	label := ev.Label()

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.totalKey(), label, 1)

	if layout, ok := bucketLayouts[s.bucket]; ok {
		s.incrExpiring(ctx, pipe, fmt.Sprintf("%s:%s:%s", s.prefix, s.bucket, ev.At.UTC().Format(layout)), label)
	}
	if s.trackItems && ev.ItemID > 0 {
		s.incrExpiring(ctx, pipe, s.itemKey(ev.ItemID), label)
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStatsStore) incrExpiring(ctx context.Context, pipe redis.Pipeliner, key, label string) {
	pipe.HIncrBy(ctx, key, label, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
}

// Totals retorna os contadores acumulados por label.
func (s *RedisStatsStore) Totals(ctx context.Context) (map[string]int64, error) {
	return s.counters(ctx, s.totalKey())
}

// ItemTotals retorna os contadores de um item. Vazio se a contagem por item estiver
// desligada; os hashes por item expiram com o TTL dos buckets.
func (s *RedisStatsStore) ItemTotals(ctx context.Context, id domain.ItemID) (map[string]int64, error) {
	return s.counters(ctx, s.itemKey(id))
}

func (s *RedisStatsStore) counters(ctx context.Context, key string) (map[string]int64, error) {
	raw, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for label, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("stats counter %q: %w", label, err)
		}
		out[label] = n
	}
	return out, nil
}

var (
	_ domain.StatsStore      = (*RedisStatsStore)(nil)
	_ domain.ItemStatsReader = (*RedisStatsStore)(nil)
)
