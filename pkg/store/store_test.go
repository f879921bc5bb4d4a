package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitford/feedrank/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestArticleRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	published := time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)
	a := types.Article{
		Title:       "NTT says hackers accessed details of 18,000 organizations",
		Description: "Japanese telco giant discloses breach",
		Link:        "https://example.com/ntt",
		Image:       "https://example.com/ntt.jpg",
		Published:   published,
	}

	require.NoError(t, s.SaveArticleIgnore(ctx, a, []float32{0.1, 0.2, 0.3}))

	got, err := s.GetArticle(ctx, a.Link)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, a.Title, got.Title)
	assert.Equal(t, a.Description, got.Description)
	assert.Equal(t, a.Image, got.Image)
	assert.True(t, published.Equal(got.Published))
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got.Embedding)
}

func TestGetArticleAbsent(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetArticle(context.Background(), "https://example.com/nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDuplicateLinkKeepsFirstEmbedding(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := types.Article{Title: "first", Link: "https://example.com/dup"}
	require.NoError(t, s.SaveArticleIgnore(ctx, a, []float32{1, 1}))

	b := types.Article{Title: "second", Link: "https://example.com/dup"}
	require.NoError(t, s.SaveArticleIgnore(ctx, b, []float32{2, 2}))

	got, err := s.GetArticle(ctx, "https://example.com/dup")
	require.NoError(t, err)
	require.NotNil(t, got)

	// Exactly one row, retaining the first-written values.
	assert.Equal(t, "first", got.Title)
	assert.Equal(t, []float32{1, 1}, got.Embedding)

	all, err := s.ListArticles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestListArticlesInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, link := range []string{"https://a", "https://b", "https://c"} {
		require.NoError(t, s.SaveArticleIgnore(ctx, types.Article{Title: link, Link: link}, []float32{0.5}))
	}

	all, err := s.ListArticles(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "https://a", all[0].Link)
	assert.Equal(t, "https://c", all[2].Link)
}

func TestFeeds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddFeed(ctx, "https://example.com/rss"))
	require.NoError(t, s.AddFeed(ctx, "https://example.org/rss"))
	// Duplicate add is a no-op.
	require.NoError(t, s.AddFeed(ctx, "https://example.com/rss"))

	feeds, err := s.ListFeeds(ctx)
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, "https://example.com/rss", feeds[0].Url)
	assert.True(t, feeds[0].LastFetched.IsZero())

	when := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.TouchFeed(ctx, feeds[0].Url, when))

	feeds, err = s.ListFeeds(ctx)
	require.NoError(t, err)
	assert.True(t, when.Equal(feeds[0].LastFetched))

	require.NoError(t, s.DeleteFeed(ctx, feeds[0].ID))

	feeds, err = s.ListFeeds(ctx)
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, "https://example.org/rss", feeds[0].Url)
}
