package embedding

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/mwhitford/feedrank/pkg/llm"
	"github.com/mwhitford/feedrank/pkg/types"
)

// Store is the persistence contract the cache depends on. Implemented
// by pkg/store; tests inject fakes.
type Store interface {
	GetArticle(ctx context.Context, link string) (*types.Article, error)
	SaveArticleIgnore(ctx context.Context, a types.Article, embedding []float32) error
}

// Cache obtains embeddings, consulting persisted storage before
// calling the provider. Caching is a performance optimization: a
// broken store degrades to recomputing, never to a failed request.
type Cache struct {
	client *llm.Client
	store  Store
}

// NewCache wires the provider client and the persisted store. A nil
// store disables caching entirely.
func NewCache(client *llm.Client, store Store) *Cache {
	return &Cache{
		client: client,
		store:  store,
	}
}

// ForText computes an embedding for arbitrary text. Category and
// subcategory texts are request-scoped, so these are never cached.
func (c *Cache) ForText(ctx context.Context, text string) ([]float32, error) {
	return c.client.Embedding(ctx, text)
}

// ForArticle returns the article embedding, preferring the stored
// vector keyed by link. A computed embedding is persisted with
// insert-or-ignore semantics before returning.
func (c *Cache) ForArticle(ctx context.Context, a types.Article) ([]float32, error) {
	if c.store != nil {
		stored, err := c.store.GetArticle(ctx, a.Link)
		if err != nil {
			log.WithFields(log.Fields{"link": a.Link}).Warnf("Cache lookup failed, recomputing: %v", err)
		} else if stored != nil && stored.Embedding != nil {
			return stored.Embedding, nil
		}
	}

	emb, err := c.client.Embedding(ctx, a.Text())
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.SaveArticleIgnore(ctx, a, emb); err != nil {
			log.WithFields(log.Fields{"link": a.Link}).Warnf("Failed to cache embedding: %v", err)
		}
	}

	return emb, nil
}
