package infra

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"view-counter/viewcount/domain"

	"github.com/redis/go-redis/v9"
)

// incrementAndMarkScript verifica o registro de rate limit, incrementa a contagem e
// cria o registro num único passo no servidor.
//
// KEYS[1] registro de rate limit, KEYS[2] hash de views
// ARGV[1] id do item, ARGV[2] ttl do registro em ms
// Retorna -1 quando o registro já existe, senão a nova contagem.
var incrementAndMarkScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return -1
end
local n = redis.call('HINCRBY', KEYS[2], ARGV[1], 1)
redis.call('SET', KEYS[1], '1', 'PX', ARGV[2])
return n
`)

// RedisViewStore implementa domain.CounterStore e domain.MarkStore no Redis.
//
// Layout (todas as chaves usam a hash tag {prefix} para o script funcionar em Cluster):
//
//	{prefix}:views              hash, campo = id do item, valor = contagem
//	{prefix}:rl:<identity>:<id> string com ttl PX
type RedisViewStore struct {
	rdb    redis.UniversalClient
	prefix string
}

type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix string
}

func WithKeyPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		if p := strings.Trim(prefix, ":{} "); p != "" {
			o.prefix = p
		}
	}
}

func buildRedisOptions(opts []RedisOption) redisOptions {
	o := redisOptions{prefix: "viewcount"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewRedisViewStore(rdb redis.UniversalClient, opts ...RedisOption) *RedisViewStore {
	o := buildRedisOptions(opts)
	return &RedisViewStore{rdb: rdb, prefix: o.prefix}
}

func (s *RedisViewStore) viewsKey() string {
	return "{" + s.prefix + "}:views"
}

func (s *RedisViewStore) markKey(who domain.Identity, id domain.ItemID) string {
	return fmt.Sprintf("{%s}:rl:%s:%d", s.prefix, who, id)
}

func (s *RedisViewStore) Increment(ctx context.Context, id domain.ItemID) (int64, error) {
	return s.rdb.HIncrBy(ctx, s.viewsKey(), itemField(id), 1).Result()
}

func (s *RedisViewStore) Get(ctx context.Context, id domain.ItemID) (int64, error) {
	v, err := s.rdb.HGet(ctx, s.viewsKey(), itemField(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (s *RedisViewStore) Lookup(ctx context.Context, ids []domain.ItemID) (map[domain.ItemID]int64, error) {
	out := make(map[domain.ItemID]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = itemField(id)
	}
	vals, err := s.rdb.HMGet(ctx, s.viewsKey(), fields...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("view count of item %d: %w", ids[i], err)
		}
		out[ids[i]] = n
	}
	return out, nil
}

func (s *RedisViewStore) Marked(ctx context.Context, who domain.Identity, id domain.ItemID) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.markKey(who, id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisViewStore) IncrementAndMark(ctx context.Context, id domain.ItemID, who domain.Identity, ttl time.Duration) (int64, error) {
	keys := []string{s.markKey(who, id), s.viewsKey()}
	n, err := incrementAndMarkScript.Run(ctx, s.rdb, keys, itemField(id), ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, domain.ErrAlreadyMarked
	}
	return n, nil
}

func itemField(id domain.ItemID) string {
	return strconv.FormatInt(int64(id), 10)
}

var (
	_ domain.CounterStore = (*RedisViewStore)(nil)
	_ domain.MarkStore    = (*RedisViewStore)(nil)
)
