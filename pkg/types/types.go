package types

import (
	"fmt"
	"time"
)

// Article is the canonical article shape produced at the feed-parsing
// boundary. The core never inspects raw feed items. Embedding is nil
// until computed or loaded from the store.
type Article struct {
	Title       string
	Description string
	Link        string
	Image       string
	Published   time.Time

	Embedding []float32
}

// Text is the exact string used for embedding and keyword matching.
func (a Article) Text() string {
	return fmt.Sprintf("%s\n\n%s", a.Title, a.Description)
}

func (a Article) String() string {
	return fmt.Sprintf("Article: %s\nDescription: %s\nLink: %s\nPublished: %s\n", a.Title, a.Description, a.Link, a.Published)
}

// ScoredArticle is the per-request scoring result of one article
// against one category.
type ScoredArticle struct {
	Article Article

	// Cosine similarity against the category embedding, in [-1, 1].
	Similarity float32

	// Similarities against each subcategory, in declared order.
	SubSimilarities []float32

	// Matched keywords, preserving the category's keyword order.
	Keywords []string

	// Max of Similarity and all SubSimilarities.
	Composite float32
}

func (s ScoredArticle) String() string {
	return fmt.Sprintf("%s (composite %.2f, %d keywords)", s.Article.Title, s.Composite, len(s.Keywords))
}
