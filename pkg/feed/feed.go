package feed

import (
	"context"
	"errors"
	"time"

	"github.com/mmcdole/gofeed"
	log "github.com/sirupsen/logrus"

	"github.com/mwhitford/feedrank/pkg/types"
)

// maxItemsPerFeed caps how many items a single feed contributes to
// one request.
const maxItemsPerFeed = 50

// ErrNoArticles is returned when every feed failed or yielded zero
// articles.
var ErrNoArticles = errors.New("no articles could be fetched from any feed")

type parser interface {
	ParseURLWithContext(feedURL string, ctx context.Context) (*gofeed.Feed, error)
}

// Fetcher fetches and normalizes RSS feeds into canonical articles.
// Raw feed-item shapes never leave this package.
type Fetcher struct {
	feedParser parser
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		feedParser: gofeed.NewParser(),
	}
}

// Fetch pulls every feed URL and returns the combined article list.
// A feed that fails to fetch or parse is logged and skipped; the
// request fails only when no feed produced any article.
func (f *Fetcher) Fetch(ctx context.Context, urls []string) ([]types.Article, error) {
	var articles []types.Article

	for _, url := range urls {
		feedFields := log.Fields{"url": url}
		log.WithFields(feedFields).Debug("Fetching feed")

		parsed, err := f.feedParser.ParseURLWithContext(url, ctx)
		if err != nil {
			log.WithFields(feedFields).Warnf("Error fetching feed: %v", err)
			continue
		}

		items := parsed.Items
		if len(items) > maxItemsPerFeed {
			items = items[:maxItemsPerFeed]
		}

		for _, item := range items {
			articles = append(articles, normalizeItem(item))
		}
	}

	if len(articles) == 0 {
		return nil, ErrNoArticles
	}

	return articles, nil
}

// normalizeItem converts a raw feed item into the canonical Article
// shape consumed by the ranking core.
func normalizeItem(item *gofeed.Item) types.Article {
	a := types.Article{
		Title:       item.Title,
		Description: item.Description,
		Link:        item.Link,
		Image:       itemImage(item),
	}

	if item.PublishedParsed != nil {
		a.Published = *item.PublishedParsed
	} else if item.Published != "" {
		// Some feeds carry a date gofeed cannot parse.
		if t, err := time.Parse("Jan 2, 2006 15:04:05-0700", item.Published); err == nil {
			a.Published = t
		}
	}
	if a.Published.IsZero() {
		a.Published = time.Now()
	}

	return a
}

// itemImage resolves the historic image-field variants: the channel
// image, enclosures, then the media:content extension.
func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" {
			return enc.URL
		}
	}

	if media, ok := item.Extensions["media"]; ok {
		for _, content := range media["content"] {
			if url, ok := content.Attrs["url"]; ok && url != "" {
				return url
			}
		}
	}

	return ""
}
