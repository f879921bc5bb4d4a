package scrape

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	log "github.com/sirupsen/logrus"
)

const (
	// maxLinks caps how many anchors one page contributes to a
	// synthesized feed.
	maxLinks = 10

	enrichTimeout    = 5 * time.Second
	enrichExcerptLen = 300
)

// Item is a scraped link destined for a synthesized feed item.
type Item struct {
	Title       string
	Link        string
	Description string
}

// Scraper extracts article links from a static HTML page and
// synthesizes an RSS 2.0 feed from them, so scraped pages flow
// through the same pipeline as real feeds.
type Scraper struct {
	client *http.Client

	// When set, item descriptions are filled with a readability
	// excerpt of the linked page.
	enrich bool
}

func New(enrich bool) *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: 10 * time.Second},
		enrich: enrich,
	}
}

// Links fetches the target page and returns up to maxLinks anchors,
// deduplicated by resolved URL, skipping anchors without text.
func (s *Scraper) Links(ctx context.Context, target string) ([]Item, error) {
	base, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch page: status code %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	seen := make(map[string]bool)
	var items []Item

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}

		link := base.ResolveReference(ref).String()
		text := strings.TrimSpace(sel.Text())
		if text == "" || seen[link] {
			return true
		}
		seen[link] = true

		items = append(items, Item{Title: text, Link: link})

		return len(items) < maxLinks
	})

	if s.enrich {
		s.enrichItems(items)
	}

	return items, nil
}

// enrichItems fills item descriptions with a readability excerpt of
// the linked page. Failures leave the description empty.
func (s *Scraper) enrichItems(items []Item) {
	for i := range items {
		article, err := readability.FromURL(items[i].Link, enrichTimeout)
		if err != nil {
			log.WithFields(log.Fields{"link": items[i].Link}).Debugf("Failed to enrich scraped item: %v", err)
			continue
		}

		excerpt := strings.Join(strings.Fields(article.TextContent), " ")
		if len(excerpt) > enrichExcerptLen {
			excerpt = excerpt[:enrichExcerptLen]
		}
		items[i].Description = excerpt
	}
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description,omitempty"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

// ToRSS scrapes the target page and returns a synthesized RSS 2.0
// document for its links.
func (s *Scraper) ToRSS(ctx context.Context, target string) ([]byte, error) {
	items, err := s.Links(ctx, target)
	if err != nil {
		return nil, err
	}

	doc := rssDoc{
		Version: "2.0",
		Channel: rssChannel{
			Title:       target,
			Link:        target,
			Description: fmt.Sprintf("Generated feed for %s", target),
		},
	}
	for _, item := range items {
		doc.Channel.Items = append(doc.Channel.Items, rssItem(item))
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal RSS: %w", err)
	}

	return append([]byte(xml.Header), out...), nil
}
