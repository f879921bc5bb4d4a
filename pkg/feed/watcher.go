package feed

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mwhitford/feedrank/pkg/types"
)

// Watcher polls the configured feeds on an interval and streams
// newly published articles on a channel.
type Watcher struct {
	fetcher  *Fetcher
	urls     []string
	interval time.Duration
	ch       chan types.Article

	// Last seen publish time per feed URL.
	lastItemPerFeed map[string]time.Time
}

func NewWatcher(fetcher *Fetcher, urls []string, interval time.Duration, initPull time.Duration) *Watcher {
	lastItemPerFeed := make(map[string]time.Time, len(urls))
	initFrom := time.Now().Add(-initPull)
	for _, url := range urls {
		lastItemPerFeed[url] = initFrom
	}

	return &Watcher{
		fetcher:         fetcher,
		urls:            urls,
		interval:        interval,
		ch:              make(chan types.Article),
		lastItemPerFeed: lastItemPerFeed,
	}
}

func (w *Watcher) Stream() <-chan types.Article {
	return w.ch
}

// Start launches the polling loop. The channel is closed when ctx is
// canceled.
func (w *Watcher) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.ch)

	log.Info("Starting to watch feeds")

	w.pull(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.pull(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) pull(ctx context.Context) {
	for _, url := range w.urls {
		articles, err := w.collectFeed(ctx, url)
		if err != nil {
			log.WithFields(log.Fields{"url": url}).Warnf("Failed to collect feed: %v", err)
			continue
		}

		for _, a := range articles {
			select {
			case w.ch <- a:
			case <-ctx.Done():
				return
			}
		}
	}
}

// collectFeed returns the articles published since the last pull of
// this feed and advances the per-feed watermark.
func (w *Watcher) collectFeed(ctx context.Context, url string) ([]types.Article, error) {
	parsed, err := w.fetcher.feedParser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, err
	}

	since := w.lastItemPerFeed[url]
	latest := since

	var articles []types.Article
	for _, item := range parsed.Items {
		a := normalizeItem(item)
		if !a.Published.After(since) {
			continue
		}
		if a.Published.After(latest) {
			latest = a.Published
		}
		articles = append(articles, a)
	}

	w.lastItemPerFeed[url] = latest

	return articles, nil
}
