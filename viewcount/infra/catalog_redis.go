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

// RedisItemStore é um content store sobre Redis.
//
//	{prefix}:item:<id>         hash: type, status, published_at (unix), categories (csv),
//	                           title, excerpt, url, thumbnail
//	{prefix}:published:<type>  sorted set dos ids publicados, score = published_at
type RedisItemStore struct {
	rdb    redis.UniversalClient
	prefix string
}

const statusPublish = "publish"

func NewRedisItemStore(rdb redis.UniversalClient, opts ...RedisOption) *RedisItemStore {
	o := buildRedisOptions(opts)
	return &RedisItemStore{rdb: rdb, prefix: o.prefix}
}

func (s *RedisItemStore) itemKey(id domain.ItemID) string {
	return fmt.Sprintf("{%s}:item:%d", s.prefix, id)
}

func (s *RedisItemStore) publishedKey(itemType string) string {
	return fmt.Sprintf("{%s}:published:%s", s.prefix, itemType)
}

// Put faz upsert de um item. Trocar o tipo deixa o item no índice do tipo antigo.
func (s *RedisItemStore) Put(ctx context.Context, it domain.Item) error {
	status := "draft"
	if it.Published {
		status = statusPublish
	}
	cats := make([]string, len(it.Categories))
	for i, c := range it.Categories {
		cats[i] = strconv.FormatInt(c, 10)
	}

	member := itemField(it.ID)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, s.itemKey(it.ID),
		"type", it.Type,
		"status", status,
		"published_at", strconv.FormatInt(it.PublishedAt.Unix(), 10),
		"categories", strings.Join(cats, ","),
		"title", it.Title,
		"excerpt", it.Excerpt,
		"url", it.URL,
		"thumbnail", it.Thumbnail,
	)
	if it.Published {
		pipe.ZAdd(ctx, s.publishedKey(it.Type), redis.Z{Score: float64(it.PublishedAt.Unix()), Member: member})
	} else {
		pipe.ZRem(ctx, s.publishedKey(it.Type), member)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisItemStore) Get(ctx context.Context, id domain.ItemID) (domain.Item, error) {
	fields, err := s.rdb.HGetAll(ctx, s.itemKey(id)).Result()
	if err != nil {
		return domain.Item{}, err
	}
	if len(fields) == 0 {
		return domain.Item{}, domain.ErrNotFound
	}
	return decodeItem(id, fields)
}

func (s *RedisItemStore) Query(ctx context.Context, q domain.ItemQuery) ([]domain.Item, error) {
	rng := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if !q.Since.IsZero() {
		rng.Min = strconv.FormatInt(q.Since.Unix(), 10)
	}
	if !q.Until.IsZero() {
		rng.Max = strconv.FormatInt(q.Until.Unix(), 10)
	}
	members, err := s.rdb.ZRangeByScore(ctx, s.publishedKey(q.Type), rng).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	ids := make([]domain.ItemID, 0, len(members))
	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, len(members))
	for _, m := range members {
		n, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, domain.ItemID(n))
		cmds = append(cmds, pipe.HGetAll(ctx, s.itemKey(domain.ItemID(n))))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	out := make([]domain.Item, 0, len(cmds))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// entrada no índice sem hash: item apagado pelo colaborador
			continue
		}
		it, err := decodeItem(ids[i], fields)
		if err != nil {
			return nil, err
		}
		if matchesQuery(it, q) {
			out = append(out, it)
		}
	}
	return out, nil
}

func decodeItem(id domain.ItemID, f map[string]string) (domain.Item, error) {
	it := domain.Item{
		ID:        id,
		Type:      f["type"],
		Published: f["status"] == statusPublish,
		Title:     f["title"],
		Excerpt:   f["excerpt"],
		URL:       f["url"],
		Thumbnail: f["thumbnail"],
	}
	if v := f["published_at"]; v != "" {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return domain.Item{}, fmt.Errorf("item %d published_at: %w", id, err)
		}
		it.PublishedAt = time.Unix(sec, 0).UTC()
	}
	if v := f["categories"]; v != "" {
		for _, part := range strings.Split(v, ",") {
			c, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return domain.Item{}, fmt.Errorf("item %d categories: %w", id, err)
			}
			it.Categories = append(it.Categories, c)
		}
	}
	return it, nil
}

var (
	_ domain.ItemStore  = (*RedisItemStore)(nil)
	_ domain.ItemWriter = (*RedisItemStore)(nil)
)
