package rank

import (
	"context"
	"fmt"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/mwhitford/feedrank/pkg/category"
	"github.com/mwhitford/feedrank/pkg/keyword"
	"github.com/mwhitford/feedrank/pkg/similarity"
	"github.com/mwhitford/feedrank/pkg/types"
)

const (
	// tierAThreshold is the composite score above which an article is
	// considered a direct semantic hit.
	tierAThreshold = 0.8

	// tierCMax caps the low-relevance tail so weak matches never
	// dominate the report.
	tierCMax = 5
)

// Embedder obtains article embeddings, cache-or-compute. Satisfied
// by embedding.Cache.
type Embedder interface {
	ForArticle(ctx context.Context, a types.Article) ([]float32, error)
}

// Engine scores articles against categories and orders them into
// tiered result lists.
type Engine struct {
	cache Embedder
}

func New(cache Embedder) *Engine {
	return &Engine{cache: cache}
}

// Rank scores every article against every category. The returned
// slice is indexed by category, each entry ordered tier A ++ B ++ C:
//
//	A: composite >= 0.8, by composite desc
//	B: composite < 0.8 with keyword hits, by hit count desc
//	C: the rest, by composite desc, capped at 5
//
// Sorting is stable, so ties keep the input article order. An
// article whose embedding fails is dropped from every category;
// categories are assumed already encoded.
func (e *Engine) Rank(ctx context.Context, articles []types.Article, categories []category.Category) ([][]types.ScoredArticle, error) {
	embedded := e.embedArticles(ctx, articles)

	results := make([][]types.ScoredArticle, len(categories))
	for ci := range categories {
		cat := &categories[ci]
		allKeywords := cat.AllKeywords()

		scored := make([]types.ScoredArticle, 0, len(embedded))
		for _, a := range embedded {
			s, err := e.score(a, cat, allKeywords)
			if err != nil {
				return nil, err
			}
			scored = append(scored, s)
		}

		results[ci] = bucket(scored)
	}

	return results, nil
}

// embedArticles fans out the embedding lookups concurrently and
// awaits them jointly. Failed articles are logged and dropped; input
// order is preserved for the survivors.
func (e *Engine) embedArticles(ctx context.Context, articles []types.Article) []types.Article {
	embeddings := make([][]float32, len(articles))

	var wg sync.WaitGroup
	for i := range articles {
		wg.Add(1)
		go func() {
			defer wg.Done()

			emb, err := e.cache.ForArticle(ctx, articles[i])
			if err != nil {
				log.WithFields(log.Fields{"link": articles[i].Link}).Warnf("Skipping article, embedding failed: %v", err)
				return
			}
			embeddings[i] = emb
		}()
	}
	wg.Wait()

	embedded := make([]types.Article, 0, len(articles))
	for i, a := range articles {
		if embeddings[i] == nil {
			continue
		}
		a.Embedding = embeddings[i]
		embedded = append(embedded, a)
	}

	return embedded
}

func (e *Engine) score(a types.Article, cat *category.Category, allKeywords []string) (types.ScoredArticle, error) {
	sim, err := similarity.Cosine(a.Embedding, cat.Embedding)
	if err != nil {
		return types.ScoredArticle{}, fmt.Errorf("failed to score against category %q: %w", cat.Name, err)
	}

	composite := sim
	subSims := make([]float32, len(cat.Subcategories))
	for si := range cat.Subcategories {
		subSim, err := similarity.Cosine(a.Embedding, cat.Subcategories[si].Embedding)
		if err != nil {
			return types.ScoredArticle{}, fmt.Errorf("failed to score against subcategory %q: %w", cat.Subcategories[si].Title, err)
		}
		subSims[si] = subSim
		if subSim > composite {
			composite = subSim
		}
	}

	return types.ScoredArticle{
		Article:         a,
		Similarity:      sim,
		SubSimilarities: subSims,
		Keywords:        keyword.Match(a.Text(), allKeywords),
		Composite:       composite,
	}, nil
}

// bucket splits scored articles into the three tiers and
// concatenates them in priority order.
func bucket(scored []types.ScoredArticle) []types.ScoredArticle {
	var tierA, tierB, tierC []types.ScoredArticle
	for _, s := range scored {
		switch {
		case s.Composite >= tierAThreshold:
			tierA = append(tierA, s)
		case len(s.Keywords) > 0:
			tierB = append(tierB, s)
		default:
			tierC = append(tierC, s)
		}
	}

	sort.SliceStable(tierA, func(i, j int) bool {
		return tierA[i].Composite > tierA[j].Composite
	})
	// Keyword corroboration outranks raw similarity here: tier B is
	// ordered by hit count, not by composite.
	sort.SliceStable(tierB, func(i, j int) bool {
		return len(tierB[i].Keywords) > len(tierB[j].Keywords)
	})
	sort.SliceStable(tierC, func(i, j int) bool {
		return tierC[i].Composite > tierC[j].Composite
	})
	if len(tierC) > tierCMax {
		tierC = tierC[:tierCMax]
	}

	out := make([]types.ScoredArticle, 0, len(tierA)+len(tierB)+len(tierC))
	out = append(out, tierA...)
	out = append(out, tierB...)
	out = append(out, tierC...)

	return out
}
