package infra

import (
	"context"
	"fmt"
	"io"
	"time"

	"view-counter/viewcount/domain"

	"gopkg.in/yaml.v3"
)

// SeedItem é o formato YAML de um item no arquivo de seed:
//
//	items:
//	  - id: 42
//	    type: post
//	    status: publish
//	    published_at: 2026-10-01T08:00:00Z
//	    categories: [3, 7]
//	    title: Hello
//	    url: https://example.org/hello
type SeedItem struct {
	ID          int64     `yaml:"id"`
	Type        string    `yaml:"type"`
	Status      string    `yaml:"status"`
	PublishedAt time.Time `yaml:"published_at"`
	Categories  []int64   `yaml:"categories"`
	Title       string    `yaml:"title"`
	Excerpt     string    `yaml:"excerpt"`
	URL         string    `yaml:"url"`
	Thumbnail   string    `yaml:"thumbnail"`
	// Views, quando presente, é somado pelo contador em cima das contagens existentes.
	Views int64 `yaml:"views"`
}

type seedFile struct {
	Items []SeedItem `yaml:"items"`
}

// DecodeSeed lê um arquivo de seed YAML.
func DecodeSeed(r io.Reader) ([]SeedItem, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	for i, it := range f.Items {
		if it.ID <= 0 {
			return nil, fmt.Errorf("seed item #%d: id must be > 0", i)
		}
	}
	return f.Items, nil
}

func (s SeedItem) Item() domain.Item {
	typ := s.Type
	if typ == "" {
		typ = domain.DefaultItemType
	}
	return domain.Item{
		ID:          domain.ItemID(s.ID),
		Type:        typ,
		Published:   s.Status == "" || s.Status == statusPublish,
		PublishedAt: s.PublishedAt,
		Categories:  s.Categories,
		Title:       s.Title,
		Excerpt:     s.Excerpt,
		URL:         s.URL,
		Thumbnail:   s.Thumbnail,
	}
}

// Seed grava os itens em w e soma as views iniciais via counts (pode ser nil).
// Retorna o número de itens gravados.
func Seed(ctx context.Context, w domain.ItemWriter, counts domain.CounterStore, items []SeedItem) (int, error) {
	for i, s := range items {
		if err := w.Put(ctx, s.Item()); err != nil {
			return i, fmt.Errorf("put item %d: %w", s.ID, err)
		}
		if counts == nil {
			continue
		}
		for n := int64(0); n < s.Views; n++ {
			if _, err := counts.Increment(ctx, domain.ItemID(s.ID)); err != nil {
				return i, fmt.Errorf("seed views of item %d: %w", s.ID, err)
			}
		}
	}
	return len(items), nil
}
